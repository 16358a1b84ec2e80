package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// timeSlotPattern accepts 12-hour slots such as "9:30 AM" or "09:30 PM".
var timeSlotPattern = regexp.MustCompile(`^(0?[1-9]|1[0-2]):([0-5]\d) (AM|PM)$`)

// newValidator returns a validator with the booking-specific tags:
//
//	timeslot – a 12-hour "H:MM AM/PM" slot
//	isodate  – a calendar date in YYYY-MM-DD form
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return timeSlotPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	return v
}

// check validates s and turns failures into an ErrValidation naming each
// offending field.
func check(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationError("%v", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return validationError("%s", strings.Join(parts, ", "))
}
