package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/training-centre-booking/internal/repository"
)

// Inventory owns the seat counter of each offering.
type Inventory struct {
	offerings OfferingStore
}

func NewInventory(offerings OfferingStore) *Inventory { return &Inventory{offerings: offerings} }

// DecrementSeat takes one seat from the offering, or fails with
// ErrSeatsExhausted when none is left. The check and the write are one
// conditional statement, so two callers can never both take the last seat.
func (i *Inventory) DecrementSeat(ctx context.Context, offeringID uint64) error {
	err := i.offerings.DecrementSeat(ctx, offeringID)
	if errors.Is(err, repository.ErrNoSeatsAvailable) {
		return ErrSeatsExhausted
	}
	return err
}

// RestoreSeat gives one seat back, never going above capacity.
func (i *Inventory) RestoreSeat(ctx context.Context, offeringID uint64) error {
	return i.offerings.IncrementSeat(ctx, offeringID)
}

// SeatRequest identifies one seat of one offering session.
type SeatRequest struct {
	OfferingID uint64 `json:"offering_id" validate:"required"`
	Date       string `json:"date" validate:"required,isodate"`
	Time       string `json:"time" validate:"required,timeslot"`
	Seat       string `json:"seat" validate:"required,max=32"`
}

// normalize trims the request into its canonical form so that "09:30 AM"
// and "9:30 AM", or "Seat  3" and "Seat 3", name the same seat.
func (r SeatRequest) normalize() SeatRequest {
	r.Date = strings.TrimSpace(r.Date)
	r.Seat = strings.Join(strings.Fields(r.Seat), " ")
	r.Time = canonicalSlot(r.Time)
	return r
}

// canonicalSlot rewrites a 12-hour slot as "3:04 PM". Input that does not
// parse is returned with its whitespace collapsed and letters uppercased,
// for the validator to reject.
func canonicalSlot(s string) string {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if t, err := time.Parse("3:04 PM", s); err == nil {
		return t.Format("3:04 PM")
	}
	return s
}
