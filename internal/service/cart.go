package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iliyamo/training-centre-booking/internal/model"
)

// CartService manages each user's pending selections. Adding a line does
// not claim a seat; availability is checked again at checkout.
type CartService struct {
	tx        Transactor
	carts     CartStore
	offerings OfferingStore
	validate  *validator.Validate
}

func NewCartService(tx Transactor, carts CartStore, offerings OfferingStore) *CartService {
	return &CartService{tx: tx, carts: carts, offerings: offerings, validate: newValidator()}
}

// CartView is the cart with its lines and their summed price.
type CartView struct {
	Items      []model.CartLine `json:"items"`
	TotalCents uint64           `json:"total_cents"`
}

// AddItem appends a line for an existing offering, capturing its current
// price. The cart is created on first use.
func (s *CartService) AddItem(ctx context.Context, p model.Principal, req SeatRequest) (model.CartLine, error) {
	req = req.normalize()
	if err := check(s.validate, req); err != nil {
		return model.CartLine{}, err
	}

	var line model.CartLine
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		o, err := s.offerings.GetByID(ctx, req.OfferingID)
		if err != nil {
			return err
		}
		cartID, err := s.carts.EnsureCart(ctx, p.UserID)
		if err != nil {
			return err
		}
		line = model.CartLine{
			ID:           uuid.NewString(),
			CartID:       cartID,
			OfferingID:   o.ID,
			OfferingName: o.Name,
			Location:     o.Location,
			Date:         req.Date,
			Time:         req.Time,
			Seat:         req.Seat,
			PriceCents:   o.PriceCents,
		}
		return s.carts.AddLine(ctx, &line)
	})
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

// View returns the caller's cart. A user who never added anything, or
// whose cart was checked out, gets repository.ErrCartNotFound.
func (s *CartService) View(ctx context.Context, p model.Principal) (CartView, error) {
	cartID, err := s.carts.CartID(ctx, p.UserID)
	if err != nil {
		return CartView{}, err
	}
	lines, err := s.carts.Lines(ctx, cartID)
	if err != nil {
		return CartView{}, err
	}
	view := CartView{Items: lines}
	for _, l := range lines {
		view.TotalCents += uint64(l.PriceCents)
	}
	return view, nil
}

// RemoveItem deletes one line. An unknown item ID is reported as
// repository.ErrCartItemNotFound and leaves the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, p model.Principal, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return validationError("item id is required")
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		cartID, err := s.carts.LockCart(ctx, p.UserID)
		if err != nil {
			return err
		}
		return s.carts.DeleteLine(ctx, cartID, itemID)
	})
}
