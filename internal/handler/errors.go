package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/training-centre-booking/internal/middleware"
    "github.com/iliyamo/training-centre-booking/internal/model"
    "github.com/iliyamo/training-centre-booking/internal/repository"
    "github.com/iliyamo/training-centre-booking/internal/service"
)

const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

var errUnauthorized = errors.New("unauthorized")

// principal returns the caller stored by the JWT middleware.
func principal(c echo.Context) (model.Principal, error) {
    p, ok := middleware.PrincipalFrom(c)
    if !ok {
        return model.Principal{}, errUnauthorized
    }
    return p, nil
}

func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id != 0
}

var notFound = []struct {
    err error
    msg string
}{
    {repository.ErrOfferingNotFound, "training centre not found"},
    {repository.ErrReservationNotFound, "booking not found"},
    {repository.ErrCartNotFound, "cart not found"},
    {repository.ErrCartItemNotFound, "cart item not found"},
    {repository.ErrUserNotFound, "user not found"},
}

// writeError maps a service error to its HTTP response. Unknown errors are
// logged and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
    var seatErr *service.SeatError
    switch {
    case errors.As(err, &seatErr):
        code := "seats_exhausted"
        if errors.Is(err, service.ErrSeatAlreadyTaken) {
            code = "seat_already_taken"
        }
        return c.JSON(http.StatusConflict, echo.Map{
            "error":         seatErr.Error(),
            "code":          code,
            "offering_id":   seatErr.OfferingID,
            "offering_name": seatErr.OfferingName,
        })
    case errors.Is(err, service.ErrSeatsExhausted):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": "seats_exhausted"})
    case errors.Is(err, service.ErrSeatAlreadyTaken):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": "seat_already_taken"})
    case errors.Is(err, service.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": "validation_failed"})
    case errors.Is(err, service.ErrInvalidCredentials):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials", "code": "auth_failed"})
    case errors.Is(err, service.ErrTokenExpired):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired", "code": "auth_failed"})
    case errors.Is(err, service.ErrAuthFailure), errors.Is(err, errUnauthorized):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "auth_failed"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "code": "not_authorized"})
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists", "code": "conflict"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": "conflict"})
    }
    for _, nf := range notFound {
        if errors.Is(err, nf.err) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": nf.msg, "code": "not_found"})
        }
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
    }

    logrus.WithError(err).WithFields(logrus.Fields{
        "method": c.Request().Method,
        "path":   c.Path(),
    }).Error("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "validation_failed"})
}
