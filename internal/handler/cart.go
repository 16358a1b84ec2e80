package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/training-centre-booking/internal/service"
)

// CartHandler serves /v1/cart.
type CartHandler struct {
    Cart   Cart
    Orders Checkout
}

func NewCartHandler(cart Cart, co Checkout) *CartHandler {
    return &CartHandler{Cart: cart, Orders: co}
}

// Add handles POST /v1/cart. The line is not a reservation; the seat is
// only claimed at checkout.
func (h *CartHandler) Add(c echo.Context) error {
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

    line, err := h.Cart.AddItem(ctx, p, req)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, line)
}

// View handles GET /v1/cart.
func (h *CartHandler) View(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    view, err := h.Cart.View(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, view)
}

// Remove handles DELETE /v1/cart/:itemId.
func (h *CartHandler) Remove(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Cart.RemoveItem(ctx, p, c.Param("itemId")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Checkout handles POST /v1/cart/checkout. Either every line becomes a
// reservation or none does; a 409 names the offering that failed.
func (h *CartHandler) Checkout(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Orders.PlaceOrder(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    var total uint64
    for _, r := range out {
        total += uint64(r.PriceCents)
    }
    return c.JSON(http.StatusCreated, echo.Map{"reservations": out, "total_cents": total})
}
