package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/training-centre-booking/internal/model"
)

// Context keys set by JWTAuth.
const (
    principalKey = "principal"
    userIDKey    = "user_id"
    roleKey      = "role"
)

// PrincipalFrom returns the caller stored by JWTAuth.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
    p, ok := c.Get(principalKey).(model.Principal)
    return p, ok && p.UserID != 0
}

// userID identifies the caller for rate limiting; "anon" when the request
// is not authenticated.
func userID(c echo.Context) string {
    if p, ok := PrincipalFrom(c); ok {
        return strconv.FormatUint(p.UserID, 10)
    }
    return "anon"
}
