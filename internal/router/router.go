package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-centre-booking/internal/handler"
	"github.com/iliyamo/training-centre-booking/internal/middleware"
)

// Guards bundles the cross-cutting middleware shared by the route groups.
// Limiter may be nil (rate limiting disabled). ListCache may be nil.
type Guards struct {
	Auth      middleware.Authenticator
	Limiter   *middleware.RateLimiter
	ListCache echo.MiddlewareFunc
}

// authed returns the middleware chain for routes that need a session.
// The limiter runs after JWT so the user id is known when keying buckets.
func (g Guards) authed(extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(g.Auth), g.Limiter.Middleware()}
	return append(mw, extra...)
}

func (g Guards) listCache() echo.MiddlewareFunc {
	if g.ListCache == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return g.ListCache
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterAuth registers the session endpoints. Register, login, refresh
// and logout live under /v1/auth without a token; the profile needs one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	pub := e.Group("/v1/auth", g.Limiter.Middleware())
	pub.POST("/register", a.Register)
	pub.POST("/login", a.Login)
	pub.POST("/refresh", a.Refresh)
	pub.POST("/refresh-access", a.RefreshAccess)
	pub.POST("/logout", a.Logout)

	e.GET("/v1/profile", a.Profile, g.authed()...)
}

// RegisterPublic registers catalogue browsing for guests. The listing is
// served through the response cache.
func RegisterPublic(e *echo.Echo, o *handler.OfferingHandler, g Guards) {
	pub := e.Group("/v1/training-centres", g.Limiter.Middleware())
	pub.GET("", o.List, g.listCache())
	pub.GET("/:id", o.Get)
	pub.POST("/search", o.FindByName)
}

// Register wires every group onto e.
func Register(e *echo.Echo, h Handlers, g Guards) {
	RegisterRoutes(e, h.Health)
	RegisterAuth(e, h.Auth, g)
	RegisterPublic(e, h.Offerings, g)
	RegisterAdmin(e, h.Offerings, g)
	RegisterCustomer(e, h.Bookings, h.Cart, g)
}

// Handlers is the full set of HTTP handlers served by the API.
type Handlers struct {
	Health    echo.HandlerFunc
	Auth      *handler.AuthHandler
	Offerings *handler.OfferingHandler
	Bookings  *handler.BookingHandler
	Cart      *handler.CartHandler
}
