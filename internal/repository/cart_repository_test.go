package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/training-centre-booking/internal/model"
)

func TestCartRepo_EnsureCart(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO carts (user_id) VALUES (?) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(12, 2))

	id, err := NewCartRepo(db).EnsureCart(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)
}

func TestCartRepo_LockCart(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ? FOR UPDATE")).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

		id, err := NewCartRepo(db).LockCart(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(12), id)
	})

	t.Run("no cart", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ? FOR UPDATE")).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewCartRepo(db).LockCart(context.Background(), 5)
		assert.ErrorIs(t, err, ErrCartNotFound)
	})
}

func TestCartRepo_AddLine(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_items")).
		WithArgs("b5a3", uint64(12), uint64(2), "2026-11-03", "9:30 AM", "Seat 4", uint32(2500), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	line := model.CartLine{ID: "b5a3", CartID: 12, OfferingID: 2, Date: "2026-11-03", Time: "9:30 AM", Seat: "Seat 4", PriceCents: 2500}
	require.NoError(t, NewCartRepo(db).AddLine(context.Background(), &line))
	assert.False(t, line.CreatedAt.IsZero())
}

func TestCartRepo_Lines(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "cart_id", "offering_id", "name", "location", "slot_date", "slot_time", "seat_label", "price_cents", "created_at"}
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci JOIN offerings o ON o.id = ci.offering_id WHERE ci.cart_id = ? ORDER BY ci.seq")).
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a", 12, 2, "Go Basics", "Berlin", "2026-11-03", "9:30 AM", "Seat 1", 2500, now).
			AddRow("b", 12, 3, "Rust Intro", "Paris", "2026-11-04", "1:00 PM", "Seat 7", 1500, now))

	lines, err := NewCartRepo(db).Lines(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].ID)
	assert.Equal(t, "Rust Intro", lines[1].OfferingName)
	assert.Equal(t, uint32(1500), lines[1].PriceCents)
}

func TestCartRepo_DeleteLine(t *testing.T) {
	t.Run("removed", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE cart_id = ? AND id = ?")).
			WithArgs(uint64(12), "a").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewCartRepo(db).DeleteLine(context.Background(), 12, "a"))
	})

	t.Run("unknown item", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE cart_id = ? AND id = ?")).
			WithArgs(uint64(12), "zzz").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewCartRepo(db).DeleteLine(context.Background(), 12, "zzz")
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})
}

func TestCartRepo_DeleteCart(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM carts WHERE id = ?")).
		WithArgs(uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewCartRepo(db).DeleteCart(context.Background(), 12))
}
