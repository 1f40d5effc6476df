package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"tradevision/internal/domain/repository"
	"tradevision/internal/usecase"
	apphttp "tradevision/pkg/http"
	applogger "tradevision/pkg/logger"
)

// PublicHandler serves the read-side API: latest signal, rolling stats,
// symbol listing and health.
type PublicHandler struct {
	ingestor *usecase.Ingestor
	stats    *usecase.StatsAggregator
	symbols  repository.SymbolStore
	logger   *applogger.Logger
}

// NewPublicHandler creates a public read API handler.
func NewPublicHandler(
	ingestor *usecase.Ingestor,
	stats *usecase.StatsAggregator,
	symbols repository.SymbolStore,
	l *applogger.Logger,
) *PublicHandler {
	return &PublicHandler{
		ingestor: ingestor,
		stats:    stats,
		symbols:  symbols,
		logger:   l,
	}
}

// RegisterRoutes registers read API routes.
func (h *PublicHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/health", h.Health)
	e.GET("/api/signal", h.LatestSignal)
	e.GET("/api/stats", h.Stats)
	e.GET("/api/symbols", h.Symbols)
}

// Health reports liveness.
func (h *PublicHandler) Health(c echo.Context) error {
	return apphttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// LatestSignal returns the most recent signal for ?symbol=&tf=, cache first.
func (h *PublicHandler) LatestSignal(c echo.Context) error {
	symbol, tf, errs := querySymbolTF(c)
	if errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	snap, err := h.ingestor.LatestSignal(c.Request().Context(), symbol, tf)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apphttp.NotFoundResponse(c, []*apphttp.AppError{
				apphttp.NotFoundErrorf("no signal for %s %s", symbol, tf),
			})
		}
		h.logger.Error("latest signal lookup failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}

	return apphttp.SuccessResponse(c, snap)
}

// Stats returns rolling statistics for ?symbol=&tf=[&window=].
func (h *PublicHandler) Stats(c echo.Context) error {
	symbolName, tf, errs := querySymbolTF(c)
	if errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	window := 0
	if raw := c.QueryParam("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return apphttp.BadRequestResponse(c, []*apphttp.AppError{
				apphttp.BadRequestError("window must be a positive integer"),
			})
		}
		window = n
	}

	symbol, err := h.symbols.GetByName(c.Request().Context(), symbolName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apphttp.NotFoundResponse(c, []*apphttp.AppError{
				apphttp.NotFoundErrorf("unknown symbol %s", symbolName),
			})
		}
		h.logger.Error("symbol lookup failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}

	view, err := h.stats.View(c.Request().Context(), symbol, repository.Timeframe(tf), window)
	if err != nil {
		h.logger.Error("stats view failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}

	return apphttp.SuccessResponse(c, view)
}

// Symbols lists all known symbols.
func (h *PublicHandler) Symbols(c echo.Context) error {
	symbols, err := h.symbols.List(c.Request().Context())
	if err != nil {
		h.logger.Error("symbol list failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}

	names := make([]string, 0, len(symbols))
	for _, s := range symbols {
		names = append(names, s.Name)
	}
	return apphttp.ListResponse(c, names, int64(len(names)))
}

func querySymbolTF(c echo.Context) (symbol, tf string, errs []*apphttp.AppError) {
	symbol = strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))
	if symbol == "" {
		errs = append(errs, apphttp.BadRequestError("symbol query parameter is required"))
	}

	tf = strings.TrimSpace(c.QueryParam("tf"))
	if tf == "" {
		errs = append(errs, apphttp.BadRequestError("tf query parameter is required"))
	} else if !repository.IsValidTimeframe(repository.Timeframe(tf)) {
		errs = append(errs, apphttp.BadRequestErrorf("unsupported timeframe %q", tf))
	}

	return symbol, tf, errs
}
