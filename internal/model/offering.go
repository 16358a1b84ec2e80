package model

import "time"

// Offering is a bookable training-centre session as stored in the
// `offerings` table. AvailableSeats is only ever changed through the
// conditional decrement/increment in the repository so that it stays
// within [0, Capacity].
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name of the training centre.
//  Slug           – lowercase, dash-separated name used for lookups by name.
//  Location       – free-form address.
//  Capacity       – total number of seats.
//  AvailableSeats – seats not yet reserved.
//  Date           – session date (YYYY-MM-DD).
//  Time           – session time slot, e.g. "9:30 AM".
//  ContactInfo    – phone or email shown to customers.
//  PriceCents     – price per seat in cents.
//  CreatedBy      – admin user that created the offering.
type Offering struct {
    ID             uint64    `json:"id"`              // offerings.id
    Name           string    `json:"name"`            // offerings.name
    Slug           string    `json:"slug"`            // offerings.slug
    Location       string    `json:"location"`        // offerings.location
    Capacity       int       `json:"capacity"`        // offerings.capacity
    AvailableSeats int       `json:"available_seats"` // offerings.available_seats
    Date           string    `json:"date"`            // offerings.slot_date
    Time           string    `json:"time"`            // offerings.slot_time
    ContactInfo    string    `json:"contact_info"`    // offerings.contact_info
    PriceCents     uint32    `json:"price_cents"`     // offerings.price_cents
    CreatedBy      uint64    `json:"created_by"`      // offerings.created_by
    CreatedAt      time.Time `json:"created_at"`      // offerings.created_at
    UpdatedAt      time.Time `json:"updated_at"`      // offerings.updated_at
}
