package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/training-centre-booking/internal/model"
    "github.com/iliyamo/training-centre-booking/internal/service"
)

// AuthHandler serves /v1/auth and the caller's profile.
type AuthHandler struct {
    Auth Auth
}

func NewAuthHandler(a Auth) *AuthHandler { return &AuthHandler{Auth: a} }

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID         uint64  `json:"id"`
    Email      string  `json:"email"`
    Role       string  `json:"role"`
    FirstName  string  `json:"first_name"`
    LastName   string  `json:"last_name"`
    Phone      string  `json:"phone,omitempty"`
    Country    string  `json:"country,omitempty"`
    NationalID *string `json:"national_id,omitempty"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{
        ID: u.ID, Email: u.Email, Role: u.Role, FirstName: u.FirstName, LastName: u.LastName,
        Phone: u.Phone, Country: u.Country, NationalID: u.NationalID,
    }
}

func toAuthResp(s service.Session) authResp {
    return authResp{
        User:    toUserPart(s.User),
        Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
        Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
    }
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req service.RegisterInput
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    sess, err := h.Auth.Register(ctx, req)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toAuthResp(sess))
}

// Login: verify and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    sess, err := h.Auth.Login(ctx, req.Email, req.Password)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toAuthResp(sess))
}

// Refresh: revoke the presented refresh token and issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    sess, err := h.Auth.Refresh(ctx, req.RefreshToken)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toAuthResp(sess))
}

// RefreshAccess: new access token, same refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    access, err := h.Auth.RefreshAccess(ctx, req.RefreshToken)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"access": tokenPart{Token: access.Token, Expires: access.Exp}})
}

// Logout revokes the refresh token given in the body. Without one, a valid
// bearer token revokes every session of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    ctx, cancel := requestContext(c)
    defer cancel()

    if strings.TrimSpace(req.RefreshToken) != "" {
        if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
            return writeError(c, err)
        }
        return c.NoContent(http.StatusNoContent)
    }

    bearer := c.Request().Header.Get(echo.HeaderAuthorization)
    if !strings.HasPrefix(bearer, "Bearer ") {
        return badRequest(c, "refresh_token or bearer token required")
    }
    p, err := h.Auth.Authenticate(ctx, bearer)
    if err != nil {
        return writeError(c, err)
    }
    if err := h.Auth.LogoutAll(ctx, p); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    u, err := h.Auth.Profile(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}
