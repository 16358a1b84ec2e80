package model

import "time"

// CartLine is one prospective booking inside a cart. PriceCents is the
// offering price captured when the line was added.
type CartLine struct {
    ID           string    `json:"item_id"`       // cart_items.id (uuid)
    CartID       uint64    `json:"-"`             // cart_items.cart_id
    OfferingID   uint64    `json:"offering_id"`   // cart_items.offering_id
    OfferingName string    `json:"offering_name"` // offerings.name (joined)
    Location     string    `json:"location"`      // offerings.location (joined)
    Date         string    `json:"date"`          // cart_items.slot_date
    Time         string    `json:"time"`          // cart_items.slot_time
    Seat         string    `json:"seat"`          // cart_items.seat_label
    PriceCents   uint32    `json:"price_cents"`   // cart_items.price_cents
    CreatedAt    time.Time `json:"created_at"`    // cart_items.created_at
}
