package service

import (
	"context"
	"time"

	"github.com/iliyamo/training-centre-booking/internal/model"
	"github.com/iliyamo/training-centre-booking/internal/queue"
	"github.com/iliyamo/training-centre-booking/internal/repository"
)

// Transactor runs fn inside one database transaction. Stores called with
// the context handed to fn take part in it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OfferingStore is implemented by repository.OfferingRepo.
type OfferingStore interface {
	Create(ctx context.Context, o *model.Offering) error
	GetByID(ctx context.Context, id uint64) (model.Offering, error)
	GetForUpdate(ctx context.Context, id uint64) (model.Offering, error)
	GetByName(ctx context.Context, name string) (model.Offering, error)
	GetBySlug(ctx context.Context, slug string) (model.Offering, error)
	ListAll(ctx context.Context) ([]model.Offering, error)
	Search(ctx context.Context, q repository.OfferingSearchQuery) ([]model.Offering, int64, error)
	Update(ctx context.Context, o *model.Offering) error
	Delete(ctx context.Context, id uint64) error
	CountReservations(ctx context.Context, id uint64) (int, error)
	DecrementSeat(ctx context.Context, id uint64) error
	IncrementSeat(ctx context.Context, id uint64) error
}

// ReservationStore is implemented by repository.ReservationRepo.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error)
	Delete(ctx context.Context, id uint64) error
	ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error)
}

// CartStore is implemented by repository.CartRepo.
type CartStore interface {
	EnsureCart(ctx context.Context, userID uint64) (uint64, error)
	CartID(ctx context.Context, userID uint64) (uint64, error)
	LockCart(ctx context.Context, userID uint64) (uint64, error)
	AddLine(ctx context.Context, line *model.CartLine) error
	Lines(ctx context.Context, cartID uint64) ([]model.CartLine, error)
	DeleteLine(ctx context.Context, cartID uint64, itemID string) error
	DeleteCart(ctx context.Context, cartID uint64) error
}

// UserStore is implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is implemented by repository.TokenRepo.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// OfferingCache is a best-effort read cache for single offerings. A miss
// or a cache failure must never fail the caller.
type OfferingCache interface {
	Get(ctx context.Context, id uint64) (model.Offering, bool)
	Set(ctx context.Context, o model.Offering)
	Invalidate(ctx context.Context, ids ...uint64)
}

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
