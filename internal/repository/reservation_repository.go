package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/training-centre-booking/internal/model"
)

// ReservationRepo stores one row per booked seat.  The unique index on
// (offering_id, slot_date, slot_time, seat_label) is the authority on
// whether a seat is taken; Create translates its violation into
// ErrDuplicateSeat.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts the reservation and populates its ID and CreatedAt.  It
// must run in the same transaction as the seat decrement that pays for it.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    now := time.Now().UTC()
    const q = `INSERT INTO reservations (user_id, offering_id, slot_date, slot_time, seat_label, price_cents, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    result, err := conn(ctx, r.db).ExecContext(ctx, q,
        res.UserID, res.OfferingID, res.Date, res.Time, res.Seat, res.PriceCents, now)
    if err != nil {
        if isDuplicate(err) {
            return ErrDuplicateSeat
        }
        return translate(err)
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    res.CreatedAt = now
    return nil
}

// GetForUpdate loads a reservation and locks its row.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
    const q = `SELECT id, user_id, offering_id, DATE_FORMAT(slot_date, '%Y-%m-%d'), slot_time, seat_label, price_cents, created_at
               FROM reservations WHERE id = ? FOR UPDATE`
    var res model.Reservation
    err := conn(ctx, r.db).QueryRowContext(ctx, q, id).Scan(
        &res.ID, &res.UserID, &res.OfferingID, &res.Date, &res.Time, &res.Seat, &res.PriceCents, &res.CreatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return model.Reservation{}, ErrReservationNotFound
    }
    if err != nil {
        return model.Reservation{}, translate(err)
    }
    return res, nil
}

// Delete removes a reservation, freeing its seat tuple.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
    result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    if err != nil {
        return translate(err)
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrReservationNotFound
    }
    return nil
}

// ListByUser returns the user's reservations joined with their offering,
// newest first.  When the user has none it returns an empty slice.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
    const q = `SELECT r.id, r.user_id, r.offering_id, DATE_FORMAT(r.slot_date, '%Y-%m-%d'), r.slot_time,
                      r.seat_label, r.price_cents, r.created_at,
                      o.name, o.location, o.contact_info
               FROM reservations r
               JOIN offerings o ON o.id = r.offering_id
               WHERE r.user_id = ?
               ORDER BY r.created_at DESC, r.id DESC`
    rows, err := conn(ctx, r.db).QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := []model.ReservationDetail{}
    for rows.Next() {
        var d model.ReservationDetail
        if err := rows.Scan(
            &d.ID, &d.UserID, &d.OfferingID, &d.Date, &d.Time,
            &d.Seat, &d.PriceCents, &d.CreatedAt,
            &d.OfferingName, &d.Location, &d.ContactInfo,
        ); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
