package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/training-centre-booking/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var offeringCols = []string{"id", "name", "slug", "location", "capacity", "available_seats",
	"slot_date", "slot_time", "contact_info", "price_cents", "created_by", "created_at", "updated_at"}

func offeringRow(rows *sqlmock.Rows, id uint64, available int) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return rows.AddRow(id, "Go Basics", "go-basics", "Berlin", 10, available,
		"2026-11-03", "9:30 AM", "hello@example.com", uint32(2500), uint64(7), now, now)
}

const decrementSQL = `UPDATE offerings SET available_seats = available_seats - 1 WHERE id = ? AND available_seats > 0`

func TestOfferingRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOfferingRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO offerings")).
		WithArgs("Go Basics", "go-basics", "Berlin", 10, 10, "2026-11-03", "9:30 AM",
			"hello@example.com", uint32(2500), uint64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	o := model.Offering{Name: "Go Basics", Slug: "go-basics", Location: "Berlin", Capacity: 10,
		AvailableSeats: 10, Date: "2026-11-03", Time: "9:30 AM", ContactInfo: "hello@example.com",
		PriceCents: 2500, CreatedBy: 7}
	require.NoError(t, repo.Create(context.Background(), &o))
	assert.Equal(t, uint64(42), o.ID)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestOfferingRepo_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = ?")).
			WithArgs(uint64(3)).
			WillReturnRows(offeringRow(sqlmock.NewRows(offeringCols), 3, 4))

		o, err := NewOfferingRepo(db).GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "Go Basics", o.Name)
		assert.Equal(t, 4, o.AvailableSeats)
		assert.Equal(t, "2026-11-03", o.Date)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = ?")).
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(offeringCols))

		_, err := NewOfferingRepo(db).GetByID(context.Background(), 3)
		assert.ErrorIs(t, err, ErrOfferingNotFound)
	})
}

func TestOfferingRepo_GetForUpdateLocksRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(offeringRow(sqlmock.NewRows(offeringCols), 9, 1))

	o, err := NewOfferingRepo(db).GetForUpdate(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), o.ID)
}

func TestOfferingRepo_GetByName(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE name = ? ORDER BY id LIMIT 1")).
		WithArgs("go basics").
		WillReturnRows(offeringRow(sqlmock.NewRows(offeringCols), 3, 4))

	o, err := NewOfferingRepo(db).GetByName(context.Background(), "go basics")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), o.ID)
}

func TestOfferingRepo_GetBySlug(t *testing.T) {
	const q = "FROM offerings WHERE slug = ? ORDER BY id LIMIT 2"

	t.Run("single match", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(q)).
			WithArgs("go-basics").
			WillReturnRows(offeringRow(sqlmock.NewRows(offeringCols), 3, 4))

		o, err := NewOfferingRepo(db).GetBySlug(context.Background(), "go-basics")
		require.NoError(t, err)
		assert.Equal(t, uint64(3), o.ID)
	})

	t.Run("no match", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(q)).
			WithArgs("rust").
			WillReturnRows(sqlmock.NewRows(offeringCols))

		_, err := NewOfferingRepo(db).GetBySlug(context.Background(), "rust")
		assert.ErrorIs(t, err, ErrOfferingNotFound)
	})

	t.Run("shared slug", func(t *testing.T) {
		db, mock := newMock(t)
		rows := offeringRow(sqlmock.NewRows(offeringCols), 2, 4)
		mock.ExpectQuery(regexp.QuoteMeta(q)).
			WithArgs("c-basics").
			WillReturnRows(offeringRow(rows, 3, 4))

		_, err := NewOfferingRepo(db).GetBySlug(context.Background(), "c-basics")
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestOfferingRepo_DecrementSeat(t *testing.T) {
	t.Run("seat taken", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewOfferingRepo(db).DecrementSeat(context.Background(), 5))
	})

	t.Run("sold out", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM offerings WHERE id = ?")).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		err := NewOfferingRepo(db).DecrementSeat(context.Background(), 5)
		assert.ErrorIs(t, err, ErrNoSeatsAvailable)
	})

	t.Run("unknown offering", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM offerings WHERE id = ?")).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		err := NewOfferingRepo(db).DecrementSeat(context.Background(), 5)
		assert.ErrorIs(t, err, ErrOfferingNotFound)
	})

	t.Run("deadlock", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).
			WithArgs(uint64(5)).
			WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})

		err := NewOfferingRepo(db).DecrementSeat(context.Background(), 5)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestOfferingRepo_IncrementSeatAtCapacityIsNoop(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("SET available_seats = available_seats + 1 WHERE id = ? AND available_seats < capacity")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM offerings WHERE id = ?")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	assert.NoError(t, NewOfferingRepo(db).IncrementSeat(context.Background(), 5))
}

func TestOfferingRepo_Delete(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM offerings WHERE id = ?")).
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewOfferingRepo(db).Delete(context.Background(), 8)
	assert.ErrorIs(t, err, ErrOfferingNotFound)
}

func TestOfferingRepo_CountReservations(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE offering_id = ?")).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))

	n, err := NewOfferingRepo(db).CountReservations(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOfferingRepo_Search(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM offerings WHERE LOWER(name) LIKE ? AND LOWER(location) LIKE ? AND available_seats > 0")).
		WithArgs("%go%", "%berlin%").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ? OFFSET ?")).
		WithArgs("%go%", "%berlin%", 5, 10).
		WillReturnRows(offeringRow(sqlmock.NewRows(offeringCols), 1, 2))

	items, total, err := NewOfferingRepo(db).Search(context.Background(), OfferingSearchQuery{
		Name: "Go", Location: "Berlin", OnlyOpen: true, Page: 3, PageSize: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, items, 1)
	assert.Equal(t, "go-basics", items[0].Slug)
}
