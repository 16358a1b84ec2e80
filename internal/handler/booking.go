package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/training-centre-booking/internal/service"
)

// BookingHandler serves direct bookings and the caller's reservations.
type BookingHandler struct {
    Checkout Checkout
    Ledger   Ledger
}

func NewBookingHandler(co Checkout, l Ledger) *BookingHandler {
    return &BookingHandler{Checkout: co, Ledger: l}
}

// Book handles POST /v1/bookings. The body names one seat:
// {"offering_id": 1, "date": "2026-11-03", "time": "9:30 AM", "seat": "A1"}.
func (h *BookingHandler) Book(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    var req service.SeatRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Checkout.BookDirect(ctx, p, req)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, res)
}

// Mine handles GET /v1/bookings/my-bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    items, err := h.Ledger.ListByUser(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"data": items, "total": len(items)})
}

// Cancel handles DELETE /v1/bookings/:id. The seat becomes available
// again.
func (h *BookingHandler) Cancel(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid booking id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Ledger.Cancel(ctx, p, id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
