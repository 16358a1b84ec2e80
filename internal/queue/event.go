// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types carried in BookingEvent.Type.
const (
    EventBookingConfirmed = "booking.confirmed"
    EventBookingCancelled = "booking.cancelled"
)

// DefaultQueue is the durable queue booking events are published to.
const DefaultQueue = "booking.events"

// BookingEvent is published after a reservation is committed or
// cancelled.  It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary database.
type BookingEvent struct {
    Type          string `json:"type"`
    ReservationID uint64 `json:"reservation_id"`
    UserID        uint64 `json:"user_id"`
    OfferingID    uint64 `json:"offering_id"`
    OfferingName  string `json:"offering_name"`
    Location      string `json:"location"`
    Date          string `json:"date"`
    Time          string `json:"time"`
    Seat          string `json:"seat"`
    PriceCents    uint32 `json:"price_cents"`
    Source        string `json:"source"` // "cart" or "direct"; empty for cancellations
    OccurredAt    string `json:"occurred_at"`
}
