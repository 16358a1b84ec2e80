package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-centre-booking/internal/handler"
	"github.com/iliyamo/training-centre-booking/internal/middleware"
	"github.com/iliyamo/training-centre-booking/internal/model"
)

// RegisterAdmin registers catalogue maintenance. All routes require a
// valid JWT and the admin role. They share a prefix with the public
// catalogue, so the middleware is attached per route rather than through a
// second group.
func RegisterAdmin(e *echo.Echo, o *handler.OfferingHandler, g Guards) {
	mw := g.authed(middleware.RequireRole(model.RoleAdmin))

	e.POST("/v1/training-centres", o.Create, mw...)
	e.PUT("/v1/training-centres/:id", o.Update, mw...)
	e.PATCH("/v1/training-centres/:id", o.Update, mw...)
	e.DELETE("/v1/training-centres/:id", o.Delete, mw...)
}
