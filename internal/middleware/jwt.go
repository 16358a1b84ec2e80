package middleware

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/training-centre-booking/internal/model"
    "github.com/iliyamo/training-centre-booking/internal/service"
)

// Authenticator turns a bearer credential into a principal.
type Authenticator interface {
    Authenticate(ctx context.Context, bearer string) (model.Principal, error)
}

// JWTAuth rejects requests without a valid "Bearer" access token and
// stores the caller under "principal", plus "user_id" and "role" for
// handlers that only need one of them.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            p, err := auth.Authenticate(c.Request().Context(), header)
            if err != nil {
                if errors.Is(err, service.ErrTokenExpired) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(principalKey, p)
            c.Set(userIDKey, p.UserID)
            c.Set(roleKey, p.Role)
            return next(c)
        }
    }
}
