package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-centre-booking/internal/handler"
)

// RegisterCustomer registers booking and cart endpoints under /v1. Any
// authenticated user may book; ownership of reservations is checked in the
// service layer.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, c *handler.CartHandler, g Guards) {
	grp := e.Group("/v1", g.authed()...)

	grp.POST("/bookings", b.Book)
	grp.GET("/bookings/my-bookings", b.Mine)
	grp.DELETE("/bookings/:id", b.Cancel)

	grp.POST("/cart", c.Add)
	grp.GET("/cart", c.View)
	grp.DELETE("/cart/:itemId", c.Remove)
	grp.POST("/cart/checkout", c.Checkout)
}
