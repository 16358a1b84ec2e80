package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/training-centre-booking/internal/model"
	"github.com/iliyamo/training-centre-booking/internal/queue"
	"github.com/iliyamo/training-centre-booking/internal/repository"
)

// Checkout turns selections into reservations. Every booking path
// decrements inventory and writes the ledger in one transaction.
type Checkout struct {
	tx        Transactor
	carts     CartStore
	offerings OfferingStore
	inventory *Inventory
	ledger    *Ledger
	cache     OfferingCache
	events    EventPublisher
	validate  *validator.Validate
	clock     Clock
}

func NewCheckout(tx Transactor, carts CartStore, offerings OfferingStore, inventory *Inventory, ledger *Ledger, cache OfferingCache, events EventPublisher, clock Clock) *Checkout {
	return &Checkout{
		tx:        tx,
		carts:     carts,
		offerings: offerings,
		inventory: inventory,
		ledger:    ledger,
		cache:     orNoCache(cache),
		events:    events,
		validate:  newValidator(),
		clock:     clock,
	}
}

type booked struct {
	res      model.Reservation
	offering model.Offering
}

// PlaceOrder books every line of the caller's cart and deletes the cart,
// all or nothing. The first line that cannot be booked aborts the order
// with a *SeatError naming its offering; nothing is written and the cart
// stays as it was. Lines are charged the price captured when they were
// added.
func (c *Checkout) PlaceOrder(ctx context.Context, p model.Principal) ([]model.Reservation, error) {
	var done []booked
	err := c.tx.WithTx(ctx, func(ctx context.Context) error {
		done = done[:0]
		cartID, err := c.carts.LockCart(ctx, p.UserID)
		if err != nil {
			return err
		}
		lines, err := c.carts.Lines(ctx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return repository.ErrCartNotFound
		}
		for _, l := range lines {
			req := SeatRequest{OfferingID: l.OfferingID, Date: l.Date, Time: l.Time, Seat: l.Seat}
			b, err := c.claim(ctx, p, req, &l.PriceCents)
			if err != nil {
				return err
			}
			done = append(done, b)
		}
		return c.carts.DeleteCart(ctx, cartID)
	})
	if err != nil {
		c.logFailure(p, "cart", err)
		return nil, err
	}

	c.afterCommit(ctx, "cart", done)
	out := make([]model.Reservation, 0, len(done))
	for _, b := range done {
		out = append(out, b.res)
	}
	return out, nil
}

// BookDirect books a single seat without going through the cart, at the
// offering's current price.
func (c *Checkout) BookDirect(ctx context.Context, p model.Principal, req SeatRequest) (model.Reservation, error) {
	req = req.normalize()
	if err := check(c.validate, req); err != nil {
		return model.Reservation{}, err
	}

	var b booked
	err := c.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = c.claim(ctx, p, req, nil)
		return err
	})
	if err != nil {
		c.logFailure(p, "direct", err)
		return model.Reservation{}, err
	}

	c.afterCommit(ctx, "direct", []booked{b})
	return b.res, nil
}

// claim locks the offering, takes a seat and records the reservation.
// price overrides the offering's current price when non-nil.
func (c *Checkout) claim(ctx context.Context, p model.Principal, req SeatRequest, price *uint32) (booked, error) {
	o, err := c.offerings.GetForUpdate(ctx, req.OfferingID)
	if err != nil {
		return booked{}, err
	}
	seatErr := func(kind error) error {
		return &SeatError{Err: kind, OfferingID: o.ID, OfferingName: o.Name, Date: req.Date, Time: req.Time, Seat: req.Seat}
	}

	if err := c.inventory.DecrementSeat(ctx, o.ID); err != nil {
		if errors.Is(err, ErrSeatsExhausted) {
			return booked{}, seatErr(ErrSeatsExhausted)
		}
		return booked{}, err
	}

	cents := o.PriceCents
	if price != nil {
		cents = *price
	}
	res, err := c.ledger.Reserve(ctx, p, req, cents)
	if err != nil {
		if errors.Is(err, ErrSeatAlreadyTaken) {
			return booked{}, seatErr(ErrSeatAlreadyTaken)
		}
		return booked{}, err
	}
	return booked{res: res, offering: o}, nil
}

func (c *Checkout) afterCommit(ctx context.Context, source string, done []booked) {
	ids := make([]uint64, 0, len(done))
	events := make([]queue.BookingEvent, 0, len(done))
	now := c.clock.now().Format(timeFormat)
	for _, b := range done {
		ids = append(ids, b.offering.ID)
		events = append(events, queue.BookingEvent{
			Type:          queue.EventBookingConfirmed,
			ReservationID: b.res.ID,
			UserID:        b.res.UserID,
			OfferingID:    b.offering.ID,
			OfferingName:  b.offering.Name,
			Location:      b.offering.Location,
			Date:          b.res.Date,
			Time:          b.res.Time,
			Seat:          b.res.Seat,
			PriceCents:    b.res.PriceCents,
			Source:        source,
			OccurredAt:    now,
		})
	}
	c.cache.Invalidate(ctx, ids...)
	publishAll(ctx, c.events, events)

	logrus.WithFields(logrus.Fields{
		"user_id": done[0].res.UserID,
		"source":  source,
		"seats":   len(done),
	}).Info("booking committed")
}

func (c *Checkout) logFailure(p model.Principal, source string, err error) {
	entry := logrus.WithFields(logrus.Fields{"user_id": p.UserID, "source": source})
	var se *SeatError
	if errors.As(err, &se) {
		entry.WithField("offering_id", se.OfferingID).Info(se.Error())
		return
	}
	entry.WithError(err).Debug("booking rejected")
}
