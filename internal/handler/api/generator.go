package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"tradevision/internal/service/generator"
	apphttp "tradevision/pkg/http"
	applogger "tradevision/pkg/logger"
)

// GeneratorHandler controls the demo signal generator. Registered only in
// debug environments.
type GeneratorHandler struct {
	gen    *generator.Generator
	logger *applogger.Logger
}

// NewGeneratorHandler creates a generator control handler.
func NewGeneratorHandler(gen *generator.Generator, l *applogger.Logger) *GeneratorHandler {
	return &GeneratorHandler{gen: gen, logger: l}
}

// RegisterRoutes registers generator control routes.
func (h *GeneratorHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/generator/start", h.Start)
	e.POST("/api/generator/stop", h.Stop)
	e.GET("/api/generator/status", h.Status)
}

// Start launches the generator task.
func (h *GeneratorHandler) Start(c echo.Context) error {
	if err := h.gen.Start(c.Request().Context()); err != nil {
		if errors.Is(err, generator.ErrAlreadyRunning) {
			return apphttp.BadRequestResponse(c, []*apphttp.AppError{
				apphttp.BadRequestError("generator already running"),
			})
		}
		h.logger.Error("generator start failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}
	return apphttp.SuccessResponse(c, h.gen.Status())
}

// Stop cancels the generator task.
func (h *GeneratorHandler) Stop(c echo.Context) error {
	if err := h.gen.Stop(); err != nil {
		if errors.Is(err, generator.ErrNotRunning) {
			return apphttp.BadRequestResponse(c, []*apphttp.AppError{
				apphttp.BadRequestError("generator not running"),
			})
		}
		h.logger.Error("generator stop failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}
	return apphttp.SuccessResponse(c, h.gen.Status())
}

// Status reports the generator task state.
func (h *GeneratorHandler) Status(c echo.Context) error {
	return apphttp.SuccessResponse(c, h.gen.Status())
}
