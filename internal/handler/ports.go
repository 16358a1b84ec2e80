package handler

import (
    "context"

    "github.com/iliyamo/training-centre-booking/internal/model"
    "github.com/iliyamo/training-centre-booking/internal/service"
    "github.com/iliyamo/training-centre-booking/internal/utils"
)

// The handlers depend on these narrow views of the service layer so that
// tests can substitute them.

type Auth interface {
    Register(ctx context.Context, in service.RegisterInput) (service.Session, error)
    Login(ctx context.Context, email, password string) (service.Session, error)
    Authenticate(ctx context.Context, bearer string) (model.Principal, error)
    Refresh(ctx context.Context, raw string) (service.Session, error)
    RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error)
    Logout(ctx context.Context, raw string) error
    LogoutAll(ctx context.Context, p model.Principal) error
    Profile(ctx context.Context, p model.Principal) (model.User, error)
}

type Directory interface {
    Find(ctx context.Context, id uint64) (model.Offering, error)
    FindAll(ctx context.Context) ([]model.Offering, error)
    FindByName(ctx context.Context, name string) (model.Offering, error)
    Search(ctx context.Context, q service.OfferingQuery) (service.OfferingPage, error)
    Create(ctx context.Context, p model.Principal, in service.OfferingInput) (model.Offering, error)
    Update(ctx context.Context, p model.Principal, id uint64, in service.OfferingUpdate) (model.Offering, error)
    Delete(ctx context.Context, p model.Principal, id uint64) error
}

type Ledger interface {
    ListByUser(ctx context.Context, p model.Principal) ([]model.ReservationDetail, error)
    Cancel(ctx context.Context, p model.Principal, reservationID uint64) error
}

type Cart interface {
    AddItem(ctx context.Context, p model.Principal, req service.SeatRequest) (model.CartLine, error)
    View(ctx context.Context, p model.Principal) (service.CartView, error)
    RemoveItem(ctx context.Context, p model.Principal, itemID string) error
}

type Checkout interface {
    PlaceOrder(ctx context.Context, p model.Principal) ([]model.Reservation, error)
    BookDirect(ctx context.Context, p model.Principal, req service.SeatRequest) (model.Reservation, error)
}
