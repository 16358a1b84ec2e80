package service

import (
	"context"
	"errors"

	"github.com/iliyamo/training-centre-booking/internal/model"
	"github.com/iliyamo/training-centre-booking/internal/queue"
	"github.com/iliyamo/training-centre-booking/internal/repository"
)

// Ledger records which user holds which seat.
type Ledger struct {
	tx           Transactor
	reservations ReservationStore
	inventory    *Inventory
	cache        OfferingCache
	events       EventPublisher
	clock        Clock
}

func NewLedger(tx Transactor, reservations ReservationStore, inventory *Inventory, cache OfferingCache, events EventPublisher, clock Clock) *Ledger {
	return &Ledger{tx: tx, reservations: reservations, inventory: inventory, cache: orNoCache(cache), events: events, clock: clock}
}

// Reserve writes the reservation row. The unique seat index decides
// races: the loser gets ErrSeatAlreadyTaken. It must be called inside the
// transaction that also decremented the offering's seats.
func (l *Ledger) Reserve(ctx context.Context, p model.Principal, req SeatRequest, priceCents uint32) (model.Reservation, error) {
	res := model.Reservation{
		UserID:     p.UserID,
		OfferingID: req.OfferingID,
		Date:       req.Date,
		Time:       req.Time,
		Seat:       req.Seat,
		PriceCents: priceCents,
	}
	if err := l.reservations.Create(ctx, &res); err != nil {
		if errors.Is(err, repository.ErrDuplicateSeat) {
			return model.Reservation{}, ErrSeatAlreadyTaken
		}
		return model.Reservation{}, err
	}
	return res, nil
}

// ListByUser returns the caller's reservations, newest first.
func (l *Ledger) ListByUser(ctx context.Context, p model.Principal) ([]model.ReservationDetail, error) {
	return l.reservations.ListByUser(ctx, p.UserID)
}

// Cancel deletes a reservation and puts its seat back. Only the holder
// or an admin may cancel.
func (l *Ledger) Cancel(ctx context.Context, p model.Principal, reservationID uint64) error {
	var res model.Reservation
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = l.reservations.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.UserID != p.UserID && !p.IsAdmin() {
			return repository.ErrForbidden
		}
		if err := l.reservations.Delete(ctx, res.ID); err != nil {
			return err
		}
		return l.inventory.RestoreSeat(ctx, res.OfferingID)
	})
	if err != nil {
		return err
	}

	l.cache.Invalidate(ctx, res.OfferingID)
	publishAll(ctx, l.events, []queue.BookingEvent{{
		Type:          queue.EventBookingCancelled,
		ReservationID: res.ID,
		UserID:        res.UserID,
		OfferingID:    res.OfferingID,
		Date:          res.Date,
		Time:          res.Time,
		Seat:          res.Seat,
		PriceCents:    res.PriceCents,
		OccurredAt:    l.clock.now().Format(timeFormat),
	}})
	return nil
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
