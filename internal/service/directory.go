package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"github.com/iliyamo/training-centre-booking/internal/model"
	"github.com/iliyamo/training-centre-booking/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Directory is the read and admin surface over offerings.
type Directory struct {
	tx        Transactor
	offerings OfferingStore
	cache     OfferingCache
	validate  *validator.Validate
}

func NewDirectory(tx Transactor, offerings OfferingStore, cache OfferingCache) *Directory {
	return &Directory{tx: tx, offerings: offerings, cache: orNoCache(cache), validate: newValidator()}
}

// OfferingInput is the payload for creating an offering.
type OfferingInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Location    string `json:"location" validate:"required,max=255"`
	Capacity    int    `json:"capacity" validate:"gte=0,lte=100000"`
	Date        string `json:"date" validate:"required,isodate"`
	Time        string `json:"time" validate:"required,timeslot"`
	ContactInfo string `json:"contact_info" validate:"max=255"`
	PriceCents  uint32 `json:"price_cents"`
}

// OfferingUpdate holds optional changes; nil fields are left alone.
type OfferingUpdate struct {
	Name           *string `json:"name" validate:"omitnil,min=1,max=255"`
	Location       *string `json:"location" validate:"omitnil,min=1,max=255"`
	Capacity       *int    `json:"capacity" validate:"omitnil,gte=0,lte=100000"`
	AvailableSeats *int    `json:"available_seats" validate:"omitnil,gte=0"`
	Date           *string `json:"date" validate:"omitnil,isodate"`
	Time           *string `json:"time" validate:"omitnil,timeslot"`
	ContactInfo    *string `json:"contact_info" validate:"omitnil,max=255"`
	PriceCents     *uint32 `json:"price_cents"`
}

// trimmed returns u with the set fields in stored form, so that a blank
// name fails min=1 instead of being saved empty. u itself is not touched.
func (u OfferingUpdate) trimmed() OfferingUpdate {
	trim := func(f *string, fn func(string) string) *string {
		if f == nil {
			return nil
		}
		v := fn(*f)
		return &v
	}
	u.Name = trim(u.Name, strings.TrimSpace)
	u.Location = trim(u.Location, strings.TrimSpace)
	u.Date = trim(u.Date, strings.TrimSpace)
	u.ContactInfo = trim(u.ContactInfo, strings.TrimSpace)
	u.Time = trim(u.Time, canonicalSlot)
	return u
}

// OfferingQuery filters Search. Page is 1-based.
type OfferingQuery struct {
	Name     string
	Location string
	From     string
	OnlyOpen bool
	Page     int
	PageSize int
}

// OfferingPage is one page of search results.
type OfferingPage struct {
	Items    []model.Offering `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// Find returns one offering, from the cache when possible.
func (d *Directory) Find(ctx context.Context, id uint64) (model.Offering, error) {
	if o, ok := d.cache.Get(ctx, id); ok {
		return o, nil
	}
	o, err := d.offerings.GetByID(ctx, id)
	if err != nil {
		return model.Offering{}, err
	}
	d.cache.Set(ctx, o)
	return o, nil
}

// FindAll lists every offering.
func (d *Directory) FindAll(ctx context.Context) ([]model.Offering, error) {
	return d.offerings.ListAll(ctx)
}

// FindByName looks an offering up by its exact name, ignoring case. When
// no name matches it falls back to the slug, so "go basics" finds
// "Go: Basics"; a slug shared by several offerings is ErrConflict.
func (d *Directory) FindByName(ctx context.Context, name string) (model.Offering, error) {
	name = strings.TrimSpace(name)
	s := slug.Make(name)
	if name == "" || s == "" {
		return model.Offering{}, validationError("name is required")
	}
	o, err := d.offerings.GetByName(ctx, name)
	if !errors.Is(err, repository.ErrOfferingNotFound) {
		return o, err
	}
	return d.offerings.GetBySlug(ctx, s)
}

// Search pages through offerings matching the filters.
func (d *Directory) Search(ctx context.Context, q OfferingQuery) (OfferingPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if q.From != "" {
		if err := d.validate.Var(q.From, "isodate"); err != nil {
			return OfferingPage{}, validationError("from must be YYYY-MM-DD")
		}
	}
	items, total, err := d.offerings.Search(ctx, repository.OfferingSearchQuery{
		Name:     strings.TrimSpace(q.Name),
		Location: strings.TrimSpace(q.Location),
		From:     q.From,
		OnlyOpen: q.OnlyOpen,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		return OfferingPage{}, err
	}
	return OfferingPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Create adds an offering with every seat available.
func (d *Directory) Create(ctx context.Context, p model.Principal, in OfferingInput) (model.Offering, error) {
	if !p.IsAdmin() {
		return model.Offering{}, repository.ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = canonicalSlot(in.Time)
	if err := check(d.validate, in); err != nil {
		return model.Offering{}, err
	}
	o := model.Offering{
		Name:           in.Name,
		Slug:           slug.Make(in.Name),
		Location:       in.Location,
		Capacity:       in.Capacity,
		AvailableSeats: in.Capacity,
		Date:           in.Date,
		Time:           in.Time,
		ContactInfo:    strings.TrimSpace(in.ContactInfo),
		PriceCents:     in.PriceCents,
		CreatedBy:      p.UserID,
	}
	if err := d.offerings.Create(ctx, &o); err != nil {
		return model.Offering{}, err
	}
	return o, nil
}

// Update applies an admin correction. A capacity change alone shifts the
// available seats by the same delta, clamped at zero; an explicit
// available_seats wins. The result must keep 0 <= available <= capacity.
func (d *Directory) Update(ctx context.Context, p model.Principal, id uint64, in OfferingUpdate) (model.Offering, error) {
	if !p.IsAdmin() {
		return model.Offering{}, repository.ErrForbidden
	}
	in = in.trimmed()
	if err := check(d.validate, in); err != nil {
		return model.Offering{}, err
	}

	var out model.Offering
	err := d.tx.WithTx(ctx, func(ctx context.Context) error {
		o, err := d.offerings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			o.Name = *in.Name
			o.Slug = slug.Make(o.Name)
		}
		if in.Location != nil {
			o.Location = *in.Location
		}
		if in.Date != nil {
			o.Date = *in.Date
		}
		if in.Time != nil {
			o.Time = *in.Time
		}
		if in.ContactInfo != nil {
			o.ContactInfo = *in.ContactInfo
		}
		if in.PriceCents != nil {
			o.PriceCents = *in.PriceCents
		}
		if in.Capacity != nil {
			o.AvailableSeats += *in.Capacity - o.Capacity
			if o.AvailableSeats < 0 {
				o.AvailableSeats = 0
			}
			o.Capacity = *in.Capacity
		}
		if in.AvailableSeats != nil {
			o.AvailableSeats = *in.AvailableSeats
		}
		if o.AvailableSeats > o.Capacity {
			return validationError("available_seats %d exceeds capacity %d", o.AvailableSeats, o.Capacity)
		}
		if err := d.offerings.Update(ctx, &o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return model.Offering{}, err
	}
	d.cache.Invalidate(ctx, id)
	return out, nil
}

// Delete removes an offering that nobody has booked. Offerings with
// reservations are kept so that booking history stays intact.
func (d *Directory) Delete(ctx context.Context, p model.Principal, id uint64) error {
	if !p.IsAdmin() {
		return repository.ErrForbidden
	}
	err := d.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := d.offerings.GetForUpdate(ctx, id); err != nil {
			return err
		}
		n, err := d.offerings.CountReservations(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: offering has %d reservations", repository.ErrConflict, n)
		}
		return d.offerings.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	d.cache.Invalidate(ctx, id)
	return nil
}
