// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Not-found sentinels, one per aggregate.
var (
	ErrOfferingNotFound    = errors.New("offering not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCartNotFound        = errors.New("cart not found")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTokenNotFound       = errors.New("refresh token not found")
)

// ErrNoSeatsAvailable is returned by the conditional seat decrement when
// the offering has no seat left.
var ErrNoSeatsAvailable = errors.New("no seats available")

// ErrDuplicateSeat is returned when the (offering, date, time, seat)
// unique index rejects a reservation.
var ErrDuplicateSeat = errors.New("seat already reserved")

// ErrEmailExists is returned when registering an address that is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as deleting an
// offering that still has reservations, or when MySQL aborted the
// transaction on a deadlock or lock wait timeout. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlCheckViolated   = 3819
)

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlCode(err) == mysqlDuplicateEntry }

// translate maps lock contention and check violations to ErrConflict and
// leaves every other error untouched.
func translate(err error) error {
	switch mysqlCode(err) {
	case mysqlDeadlock, mysqlLockWaitTimeout, mysqlCheckViolated:
		return ErrConflict
	}
	return err
}
