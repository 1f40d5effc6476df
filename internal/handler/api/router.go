package api

import (
	"github.com/labstack/echo/v4"

	apphttp "tradevision/pkg/http"
)

// Router aggregates all API handlers into a single route registrar.
type Router struct {
	handlers []apphttp.Handler
}

var _ apphttp.Handler = (*Router)(nil)

// NewRouter creates a router over the given handlers. Nil entries are
// skipped, so optional handlers (debug-only routes) can be passed as-is.
func NewRouter(handlers ...apphttp.Handler) *Router {
	r := &Router{}
	for _, h := range handlers {
		if h != nil {
			r.handlers = append(r.handlers, h)
		}
	}
	return r
}

// RegisterRoutes registers all aggregated routes.
func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}
