package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/training-centre-booking/internal/model"
)

// OfferingRepo persists offerings and owns the seat counter. The counter
// is changed only through DecrementSeat and IncrementSeat, both single
// conditional UPDATEs, so concurrent bookings can never drive it below
// zero or above capacity.
type OfferingRepo struct {
	db *sql.DB
}

// NewOfferingRepo returns a new OfferingRepo bound to the given database.
func NewOfferingRepo(db *sql.DB) *OfferingRepo { return &OfferingRepo{db: db} }

const offeringColumns = `id, name, slug, location, capacity, available_seats,
	DATE_FORMAT(slot_date, '%Y-%m-%d'), slot_time, contact_info, price_cents,
	created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffering(s rowScanner) (model.Offering, error) {
	var o model.Offering
	err := s.Scan(&o.ID, &o.Name, &o.Slug, &o.Location, &o.Capacity, &o.AvailableSeats,
		&o.Date, &o.Time, &o.ContactInfo, &o.PriceCents,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create inserts the offering and fills in its ID and timestamps.
func (r *OfferingRepo) Create(ctx context.Context, o *model.Offering) error {
	now := time.Now().UTC()
	const q = `INSERT INTO offerings
		(name, slug, location, capacity, available_seats, slot_date, slot_time, contact_info, price_cents, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		o.Name, o.Slug, o.Location, o.Capacity, o.AvailableSeats, o.Date, o.Time,
		o.ContactInfo, o.PriceCents, o.CreatedBy, now, now)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.CreatedAt, o.UpdatedAt = now, now
	return nil
}

// GetByID fetches a single offering.
func (r *OfferingRepo) GetByID(ctx context.Context, id uint64) (model.Offering, error) {
	return r.getOne(ctx, `SELECT `+offeringColumns+` FROM offerings WHERE id = ?`, id)
}

// GetForUpdate fetches the offering and locks its row until the enclosing
// transaction ends. Outside a transaction the lock is released at once.
func (r *OfferingRepo) GetForUpdate(ctx context.Context, id uint64) (model.Offering, error) {
	return r.getOne(ctx, `SELECT `+offeringColumns+` FROM offerings WHERE id = ? FOR UPDATE`, id)
}

// GetByName returns the oldest offering with exactly this name. The
// column collation makes the comparison case-insensitive.
func (r *OfferingRepo) GetByName(ctx context.Context, name string) (model.Offering, error) {
	return r.getOne(ctx, `SELECT `+offeringColumns+` FROM offerings WHERE name = ? ORDER BY id LIMIT 1`, name)
}

// GetBySlug returns the single offering whose slug matches. Distinct names
// can share a slug ("C++ Basics" and "C Basics"); that case is ErrConflict
// rather than a guess.
func (r *OfferingRepo) GetBySlug(ctx context.Context, slug string) (model.Offering, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+offeringColumns+` FROM offerings WHERE slug = ? ORDER BY id LIMIT 2`, slug)
	if err != nil {
		return model.Offering{}, translate(err)
	}
	defer rows.Close()

	var found []model.Offering
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return model.Offering{}, err
		}
		found = append(found, o)
	}
	if err := rows.Err(); err != nil {
		return model.Offering{}, translate(err)
	}
	switch len(found) {
	case 0:
		return model.Offering{}, ErrOfferingNotFound
	case 1:
		return found[0], nil
	}
	return model.Offering{}, fmt.Errorf("%w: several offerings match %q", ErrConflict, slug)
}

func (r *OfferingRepo) getOne(ctx context.Context, q string, args ...any) (model.Offering, error) {
	o, err := scanOffering(conn(ctx, r.db).QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Offering{}, ErrOfferingNotFound
	}
	if err != nil {
		return model.Offering{}, translate(err)
	}
	return o, nil
}

// ListAll returns every offering ordered by date and time slot.
func (r *OfferingRepo) ListAll(ctx context.Context) ([]model.Offering, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+offeringColumns+` FROM offerings ORDER BY slot_date, slot_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Offering{}
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update writes every mutable column. Callers load the row with
// GetForUpdate first; MySQL reports zero affected rows for an update
// that changes nothing, so the row count is not used as an existence
// check here.
func (r *OfferingRepo) Update(ctx context.Context, o *model.Offering) error {
	o.UpdatedAt = time.Now().UTC()
	const q = `UPDATE offerings SET name = ?, slug = ?, location = ?, capacity = ?, available_seats = ?,
		slot_date = ?, slot_time = ?, contact_info = ?, price_cents = ?, updated_at = ?
		WHERE id = ?`
	_, err := conn(ctx, r.db).ExecContext(ctx, q,
		o.Name, o.Slug, o.Location, o.Capacity, o.AvailableSeats,
		o.Date, o.Time, o.ContactInfo, o.PriceCents, o.UpdatedAt, o.ID)
	return translate(err)
}

// Delete removes the offering. Cart lines referencing it cascade;
// reservations do not, so callers check CountReservations first.
func (r *OfferingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM offerings WHERE id = ?`, id)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOfferingNotFound
	}
	return nil
}

// CountReservations returns how many reservations reference the offering.
func (r *OfferingRepo) CountReservations(ctx context.Context, id uint64) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE offering_id = ?`, id).Scan(&n)
	return n, err
}

// DecrementSeat takes one seat from the offering. It returns
// ErrNoSeatsAvailable when none is left and ErrOfferingNotFound when the
// offering does not exist.
func (r *OfferingRepo) DecrementSeat(ctx context.Context, id uint64) error {
	const q = `UPDATE offerings SET available_seats = available_seats - 1
		WHERE id = ? AND available_seats > 0`
	return r.adjust(ctx, q, id, ErrNoSeatsAvailable)
}

// IncrementSeat gives one seat back. It is a no-op when the offering is
// already at capacity.
func (r *OfferingRepo) IncrementSeat(ctx context.Context, id uint64) error {
	const q = `UPDATE offerings SET available_seats = available_seats + 1
		WHERE id = ? AND available_seats < capacity`
	return r.adjust(ctx, q, id, nil)
}

// adjust runs a conditional seat update. When no row matched it probes
// for existence to tell a missing offering apart from a failed condition.
func (r *OfferingRepo) adjust(ctx context.Context, q string, id uint64, onMiss error) error {
	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM offerings WHERE id = ?`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrOfferingNotFound
	case err != nil:
		return fmt.Errorf("probe offering %d: %w", id, err)
	}
	return onMiss
}
