package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/training-centre-booking/internal/model"
)

// CartRepo persists per-user carts and their lines. A user has at most
// one cart (unique carts.user_id); lines are removed with it through
// ON DELETE CASCADE.
type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// EnsureCart returns the user's cart ID, creating the cart if needed.
// LAST_INSERT_ID(id) makes the existing row's ID come back on conflict.
func (r *CartRepo) EnsureCart(ctx context.Context, userID uint64) (uint64, error) {
	const q = `INSERT INTO carts (user_id) VALUES (?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), updated_at = CURRENT_TIMESTAMP`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, userID)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CartID returns the user's cart ID or ErrCartNotFound.
func (r *CartRepo) CartID(ctx context.Context, userID uint64) (uint64, error) {
	return r.cartID(ctx, `SELECT id FROM carts WHERE user_id = ?`, userID)
}

// LockCart is CartID with a row lock held until the transaction ends.
// Checkout and line removal take it so that concurrent requests by the
// same user serialise on the cart.
func (r *CartRepo) LockCart(ctx context.Context, userID uint64) (uint64, error) {
	return r.cartID(ctx, `SELECT id FROM carts WHERE user_id = ? FOR UPDATE`, userID)
}

func (r *CartRepo) cartID(ctx context.Context, q string, userID uint64) (uint64, error) {
	var id uint64
	err := conn(ctx, r.db).QueryRowContext(ctx, q, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCartNotFound
	}
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

// AddLine appends a line to the cart. The caller generates line.ID.
func (r *CartRepo) AddLine(ctx context.Context, line *model.CartLine) error {
	now := time.Now().UTC()
	const q = `INSERT INTO cart_items (id, cart_id, offering_id, slot_date, slot_time, seat_label, price_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := conn(ctx, r.db).ExecContext(ctx, q,
		line.ID, line.CartID, line.OfferingID, line.Date, line.Time, line.Seat, line.PriceCents, now)
	if err != nil {
		return translate(err)
	}
	line.CreatedAt = now
	return nil
}

// Lines returns the cart's lines in insertion order, joined with the
// offering name and location.
func (r *CartRepo) Lines(ctx context.Context, cartID uint64) ([]model.CartLine, error) {
	const q = `SELECT ci.id, ci.cart_id, ci.offering_id, o.name, o.location,
			DATE_FORMAT(ci.slot_date, '%Y-%m-%d'), ci.slot_time, ci.seat_label, ci.price_cents, ci.created_at
		FROM cart_items ci
		JOIN offerings o ON o.id = ci.offering_id
		WHERE ci.cart_id = ?
		ORDER BY ci.seq`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CartLine{}
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.OfferingID, &l.OfferingName, &l.Location,
			&l.Date, &l.Time, &l.Seat, &l.PriceCents, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLine removes one line from the cart. It returns
// ErrCartItemNotFound when the cart holds no line with that ID.
func (r *CartRepo) DeleteLine(ctx context.Context, cartID uint64, itemID string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = ? AND id = ?`, cartID, itemID)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// DeleteCart removes the cart and, by cascade, all of its lines.
func (r *CartRepo) DeleteCart(ctx context.Context, cartID uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCartNotFound
	}
	return nil
}
