package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation wraps every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrAuthFailure is returned for a missing, malformed or forged token.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password; the two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSeatsExhausted means the offering had no seat left.
	ErrSeatsExhausted = errors.New("no available seats")
	// ErrSeatAlreadyTaken means the exact (offering, date, time, seat) is
	// already reserved.
	ErrSeatAlreadyTaken = errors.New("seat already taken")
)

// SeatError reports which offering made a booking fail. It unwraps to
// ErrSeatsExhausted or ErrSeatAlreadyTaken.
type SeatError struct {
	Err          error
	OfferingID   uint64
	OfferingName string
	Date         string
	Time         string
	Seat         string
}

func (e *SeatError) Error() string {
	if errors.Is(e.Err, ErrSeatAlreadyTaken) {
		return fmt.Sprintf("%s is already taken for %s at %s %s", e.Seat, e.OfferingName, e.Date, e.Time)
	}
	return fmt.Sprintf("no available seats for %s at the requested time", e.OfferingName)
}

func (e *SeatError) Unwrap() error { return e.Err }

// validationError wraps ErrValidation with a human readable reason.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
