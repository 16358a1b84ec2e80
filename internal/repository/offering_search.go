package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/training-centre-booking/internal/model"
)

// OfferingSearchQuery defines filters & pagination for searching offerings.
type OfferingSearchQuery struct {
	Name     string
	Location string
	From     string // YYYY-MM-DD, inclusive
	OnlyOpen bool   // only offerings with at least one free seat
	Page     int
	PageSize int
}

// Search returns one page of offerings matching the filters and the total
// number of matches.
func (r *OfferingRepo) Search(ctx context.Context, q OfferingSearchQuery) ([]model.Offering, int64, error) {
	where := []string{}
	args := []any{}

	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.Location != "" {
		where = append(where, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Location)+"%")
	}
	if q.From != "" {
		where = append(where, "slot_date >= ?")
		args = append(args, q.From)
	}
	if q.OnlyOpen {
		where = append(where, "available_seats > 0")
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	db := conn(ctx, r.db)

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offerings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT ` + offeringColumns + `
		FROM offerings
		WHERE ` + cond + `
		ORDER BY slot_date ASC, slot_time ASC, id ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Offering, 0, limit)
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
