package model

import "time"

// Reservation records one seat booked by a user for an offering at a
// given date and time slot. The tuple (OfferingID, Date, Time, Seat) is
// unique across the table.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who holds the seat.
//  OfferingID – offering being attended.
//  Date       – session date (YYYY-MM-DD).
//  Time       – session time slot.
//  Seat       – seat label, e.g. "Seat 3".
//  PriceCents – price paid for the seat.
//  CreatedAt  – creation timestamp.
type Reservation struct {
    ID         uint64    `json:"id"`          // reservations.id
    UserID     uint64    `json:"user_id"`     // reservations.user_id
    OfferingID uint64    `json:"offering_id"` // reservations.offering_id
    Date       string    `json:"date"`        // reservations.slot_date
    Time       string    `json:"time"`        // reservations.slot_time
    Seat       string    `json:"seat"`        // reservations.seat_label
    PriceCents uint32    `json:"price_cents"` // reservations.price_cents
    CreatedAt  time.Time `json:"created_at"`  // reservations.created_at
}

// ReservationDetail is a reservation joined with the offering it belongs
// to. It is what users see when listing their bookings.
type ReservationDetail struct {
    Reservation
    OfferingName string `json:"offering_name"`
    Location     string `json:"location"`
    ContactInfo  string `json:"contact_info"`
}
