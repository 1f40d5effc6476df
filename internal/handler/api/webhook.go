package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"tradevision/internal/domain/models"
	"tradevision/internal/service/auth"
	"tradevision/internal/usecase"
	apphttp "tradevision/pkg/http"
	applogger "tradevision/pkg/logger"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-TV-Signature"

// WebhookHandler receives TradingView-style alert webhooks.
type WebhookHandler struct {
	ingestor  *usecase.Ingestor
	validator *auth.Validator
	logger    *applogger.Logger
	debug     bool
}

// NewWebhookHandler creates a webhook handler. When debug is true an
// unsigned test route is registered alongside the production one.
func NewWebhookHandler(ingestor *usecase.Ingestor, validator *auth.Validator, l *applogger.Logger, debug bool) *WebhookHandler {
	return &WebhookHandler{
		ingestor:  ingestor,
		validator: validator,
		logger:    l,
		debug:     debug,
	}
}

// RegisterRoutes registers webhook routes.
func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/tv-hook", h.Receive)
	if h.debug {
		e.POST("/api/tv-hook/test", h.ReceiveTest)
	}
}

// Receive handles a signed webhook event. The signature is verified over the
// exact raw body bytes before the payload is even decoded, so a tampered or
// unsigned request never reaches parsing.
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apphttp.BadRequestResponse(c, []*apphttp.AppError{
			apphttp.BadRequestError("unreadable request body"),
		})
	}

	if err := h.validator.VerifySignature(body, c.Request().Header.Get(SignatureHeader)); err != nil {
		h.logger.Warn("webhook signature rejected", applogger.Error(err))
		return apphttp.UnauthorizedResponse(c, []*apphttp.AppError{
			apphttp.UnauthorizedError("invalid signature"),
		})
	}

	var ev models.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return apphttp.BadRequestResponse(c, []*apphttp.AppError{
			apphttp.BadRequestError("malformed JSON payload"),
		})
	}
	if errs := apphttp.ValidateStruct(&ev); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	return h.submit(c, ev)
}

// ReceiveTest handles an unsigned event on the debug route. Validation,
// idempotency and storage behave exactly as on the production route.
func (h *WebhookHandler) ReceiveTest(c echo.Context) error {
	var ev models.WebhookEvent
	if errs := apphttp.ReadAndValidateRequest(c, &ev); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}
	return h.submit(c, ev)
}

func (h *WebhookHandler) submit(c echo.Context, ev models.WebhookEvent) error {
	out, err := h.ingestor.Submit(c.Request().Context(), ev)
	if err != nil {
		var rej *auth.RejectionError
		if errors.As(err, &rej) {
			return apphttp.BadRequestResponse(c, []*apphttp.AppError{
				apphttp.BadRequestError(rej.Error()),
			})
		}
		h.logger.Error("webhook processing failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}

	if out.Status == models.StatusDuplicate {
		return apphttp.SuccessResponse(c, models.WebhookResult{
			Status:  models.StatusDuplicate,
			Message: "signal already processed",
		})
	}

	return apphttp.DataResponse(c, http.StatusCreated, models.WebhookResult{
		Status:   models.StatusSuccess,
		SignalID: &out.Signal.ID,
	})
}
