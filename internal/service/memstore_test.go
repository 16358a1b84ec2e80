package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/training-centre-booking/internal/model"
	"github.com/iliyamo/training-centre-booking/internal/queue"
	"github.com/iliyamo/training-centre-booking/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL schema. Transactions are
// serialised on one mutex and rolled back by restoring a snapshot, which
// gives the same all-or-nothing outcome the real database gives.
type memDB struct {
	mu           sync.Mutex
	nextID       uint64
	offerings    map[uint64]model.Offering
	reservations map[uint64]model.Reservation
	carts        map[uint64]uint64 // user ID -> cart ID
	lines        map[uint64][]model.CartLine
	users        map[uint64]model.User
	tokens       map[string]memToken
}

type memToken struct {
	userID  uint64
	exp     time.Time
	revoked *time.Time
}

type inTxKey struct{}

func newMemDB() *memDB {
	return &memDB{
		offerings:    map[uint64]model.Offering{},
		reservations: map[uint64]model.Reservation{},
		carts:        map[uint64]uint64{},
		lines:        map[uint64][]model.CartLine{},
		users:        map[uint64]model.User{},
		tokens:       map[string]memToken{},
	}
}

func (m *memDB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// lock guards a single statement issued outside a transaction.
func (m *memDB) lock(ctx context.Context) func() {
	if ctx.Value(inTxKey{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memDB) snapshot() *memDB {
	s := &memDB{
		nextID:       m.nextID,
		offerings:    make(map[uint64]model.Offering, len(m.offerings)),
		reservations: make(map[uint64]model.Reservation, len(m.reservations)),
		carts:        make(map[uint64]uint64, len(m.carts)),
		lines:        make(map[uint64][]model.CartLine, len(m.lines)),
		users:        make(map[uint64]model.User, len(m.users)),
		tokens:       make(map[string]memToken, len(m.tokens)),
	}
	for k, v := range m.offerings {
		s.offerings[k] = v
	}
	for k, v := range m.reservations {
		s.reservations[k] = v
	}
	for k, v := range m.carts {
		s.carts[k] = v
	}
	for k, v := range m.lines {
		s.lines[k] = append([]model.CartLine(nil), v...)
	}
	for k, v := range m.users {
		s.users[k] = v
	}
	for k, v := range m.tokens {
		s.tokens[k] = v
	}
	return s
}

func (m *memDB) restore(s *memDB) {
	m.nextID = s.nextID
	m.offerings = s.offerings
	m.reservations = s.reservations
	m.carts = s.carts
	m.lines = s.lines
	m.users = s.users
	m.tokens = s.tokens
}

func (m *memDB) id() uint64 {
	m.nextID++
	return m.nextID
}

// seatsLeft reads an offering's counter outside any transaction.
func (m *memDB) seatsLeft(id uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offerings[id].AvailableSeats
}

func (m *memDB) reservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations)
}

// ---- offerings ----

type memOfferings struct{ *memDB }

func (s memOfferings) Create(ctx context.Context, o *model.Offering) error {
	defer s.lock(ctx)()
	o.ID = s.id()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	s.offerings[o.ID] = *o
	return nil
}

func (s memOfferings) GetByID(ctx context.Context, id uint64) (model.Offering, error) {
	defer s.lock(ctx)()
	o, ok := s.offerings[id]
	if !ok {
		return model.Offering{}, repository.ErrOfferingNotFound
	}
	return o, nil
}

func (s memOfferings) GetForUpdate(ctx context.Context, id uint64) (model.Offering, error) {
	return s.GetByID(ctx, id)
}

func (s memOfferings) GetByName(ctx context.Context, name string) (model.Offering, error) {
	defer s.lock(ctx)()
	for _, o := range s.sorted() {
		if strings.EqualFold(o.Name, name) {
			return o, nil
		}
	}
	return model.Offering{}, repository.ErrOfferingNotFound
}

func (s memOfferings) GetBySlug(ctx context.Context, slug string) (model.Offering, error) {
	defer s.lock(ctx)()
	var found []model.Offering
	for _, o := range s.sorted() {
		if o.Slug == slug {
			found = append(found, o)
		}
	}
	switch len(found) {
	case 0:
		return model.Offering{}, repository.ErrOfferingNotFound
	case 1:
		return found[0], nil
	}
	return model.Offering{}, repository.ErrConflict
}

func (s memOfferings) ListAll(ctx context.Context) ([]model.Offering, error) {
	defer s.lock(ctx)()
	return s.sorted(), nil
}

func (s memOfferings) Search(ctx context.Context, q repository.OfferingSearchQuery) ([]model.Offering, int64, error) {
	defer s.lock(ctx)()
	var hits []model.Offering
	for _, o := range s.sorted() {
		if q.Name != "" && !strings.Contains(strings.ToLower(o.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.Location != "" && !strings.Contains(strings.ToLower(o.Location), strings.ToLower(q.Location)) {
			continue
		}
		if q.From != "" && o.Date < q.From {
			continue
		}
		if q.OnlyOpen && o.AvailableSeats == 0 {
			continue
		}
		hits = append(hits, o)
	}
	total := int64(len(hits))
	start := (q.Page - 1) * q.PageSize
	if start >= len(hits) {
		return []model.Offering{}, total, nil
	}
	end := min(start+q.PageSize, len(hits))
	return hits[start:end], total, nil
}

func (s memOfferings) Update(ctx context.Context, o *model.Offering) error {
	defer s.lock(ctx)()
	if _, ok := s.offerings[o.ID]; !ok {
		return repository.ErrOfferingNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	s.offerings[o.ID] = *o
	return nil
}

func (s memOfferings) Delete(ctx context.Context, id uint64) error {
	defer s.lock(ctx)()
	if _, ok := s.offerings[id]; !ok {
		return repository.ErrOfferingNotFound
	}
	for _, r := range s.reservations {
		if r.OfferingID == id {
			return repository.ErrConflict
		}
	}
	delete(s.offerings, id)
	return nil
}

func (s memOfferings) CountReservations(ctx context.Context, id uint64) (int, error) {
	defer s.lock(ctx)()
	n := 0
	for _, r := range s.reservations {
		if r.OfferingID == id {
			n++
		}
	}
	return n, nil
}

func (s memOfferings) DecrementSeat(ctx context.Context, id uint64) error {
	defer s.lock(ctx)()
	o, ok := s.offerings[id]
	if !ok {
		return repository.ErrOfferingNotFound
	}
	if o.AvailableSeats <= 0 {
		return repository.ErrNoSeatsAvailable
	}
	o.AvailableSeats--
	s.offerings[id] = o
	return nil
}

func (s memOfferings) IncrementSeat(ctx context.Context, id uint64) error {
	defer s.lock(ctx)()
	o, ok := s.offerings[id]
	if !ok {
		return repository.ErrOfferingNotFound
	}
	if o.AvailableSeats < o.Capacity {
		o.AvailableSeats++
		s.offerings[id] = o
	}
	return nil
}

func (m *memDB) sorted() []model.Offering {
	out := make([]model.Offering, 0, len(m.offerings))
	for _, o := range m.offerings {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- reservations ----

type memReservations struct{ *memDB }

func (s memReservations) Create(ctx context.Context, res *model.Reservation) error {
	defer s.lock(ctx)()
	for _, r := range s.reservations {
		// The seat column uses a case-insensitive collation.
		if r.OfferingID == res.OfferingID && r.Date == res.Date && r.Time == res.Time &&
			strings.EqualFold(r.Seat, res.Seat) {
			return repository.ErrDuplicateSeat
		}
	}
	res.ID = s.id()
	res.CreatedAt = time.Now().UTC()
	s.reservations[res.ID] = *res
	return nil
}

func (s memReservations) GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	defer s.lock(ctx)()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return r, nil
}

func (s memReservations) Delete(ctx context.Context, id uint64) error {
	defer s.lock(ctx)()
	if _, ok := s.reservations[id]; !ok {
		return repository.ErrReservationNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s memReservations) ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	defer s.lock(ctx)()
	out := []model.ReservationDetail{}
	for _, r := range s.reservations {
		if r.UserID != userID {
			continue
		}
		o := s.offerings[r.OfferingID]
		out = append(out, model.ReservationDetail{Reservation: r, OfferingName: o.Name, Location: o.Location, ContactInfo: o.ContactInfo})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ---- carts ----

type memCarts struct{ *memDB }

func (s memCarts) EnsureCart(ctx context.Context, userID uint64) (uint64, error) {
	defer s.lock(ctx)()
	if id, ok := s.carts[userID]; ok {
		return id, nil
	}
	id := s.id()
	s.carts[userID] = id
	return id, nil
}

func (s memCarts) CartID(ctx context.Context, userID uint64) (uint64, error) {
	defer s.lock(ctx)()
	id, ok := s.carts[userID]
	if !ok {
		return 0, repository.ErrCartNotFound
	}
	return id, nil
}

func (s memCarts) LockCart(ctx context.Context, userID uint64) (uint64, error) {
	return s.CartID(ctx, userID)
}

func (s memCarts) AddLine(ctx context.Context, line *model.CartLine) error {
	defer s.lock(ctx)()
	if _, ok := s.offerings[line.OfferingID]; !ok {
		return repository.ErrOfferingNotFound
	}
	line.CreatedAt = time.Now().UTC()
	s.lines[line.CartID] = append(s.lines[line.CartID], *line)
	return nil
}

func (s memCarts) Lines(ctx context.Context, cartID uint64) ([]model.CartLine, error) {
	defer s.lock(ctx)()
	out := []model.CartLine{}
	for _, l := range s.lines[cartID] {
		o := s.offerings[l.OfferingID]
		l.OfferingName, l.Location = o.Name, o.Location
		out = append(out, l)
	}
	return out, nil
}

func (s memCarts) DeleteLine(ctx context.Context, cartID uint64, itemID string) error {
	defer s.lock(ctx)()
	lines := s.lines[cartID]
	for i, l := range lines {
		if l.ID == itemID {
			s.lines[cartID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (s memCarts) DeleteCart(ctx context.Context, cartID uint64) error {
	defer s.lock(ctx)()
	for uid, id := range s.carts {
		if id == cartID {
			delete(s.carts, uid)
			delete(s.lines, cartID)
			return nil
		}
	}
	return repository.ErrCartNotFound
}

// ---- users and tokens ----

type memUsers struct{ *memDB }

func (s memUsers) Create(ctx context.Context, u *model.User) error {
	defer s.lock(ctx)()
	for _, other := range s.users {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = s.id()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s memUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	defer s.lock(ctx)()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s memUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	defer s.lock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type memTokens struct{ *memDB }

func (s memTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	defer s.lock(ctx)()
	s.tokens[tokenHash] = memToken{userID: userID, exp: exp}
	return nil
}

func (s memTokens) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	defer s.lock(ctx)()
	t, ok := s.tokens[tokenHash]
	if !ok || t.revoked != nil || !t.exp.After(now) {
		return 0, repository.ErrTokenNotFound
	}
	return t.userID, nil
}

func (s memTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	defer s.lock(ctx)()
	if t, ok := s.tokens[tokenHash]; ok && t.revoked == nil {
		now := time.Now().UTC()
		t.revoked = &now
		s.tokens[tokenHash] = t
	}
	return nil
}

func (s memTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	defer s.lock(ctx)()
	now := time.Now().UTC()
	for h, t := range s.tokens {
		if t.userID == userID && t.revoked == nil {
			t.revoked = &now
			s.tokens[h] = t
		}
	}
	return nil
}

func (s memTokens) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	defer s.lock(ctx)()
	var n int64
	for h, t := range s.tokens {
		if t.exp.Before(cutoff) || (t.revoked != nil && t.revoked.Before(cutoff)) {
			delete(s.tokens, h)
			n++
		}
	}
	return n, nil
}

// ---- collaborators ----

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []queue.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.BookingEvent(nil), p.events...)
}

type mapCache struct {
	mu          sync.Mutex
	items       map[uint64]model.Offering
	invalidated []uint64
}

func newMapCache() *mapCache { return &mapCache{items: map[uint64]model.Offering{}} }

func (c *mapCache) Get(_ context.Context, id uint64) (model.Offering, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.items[id]
	return o, ok
}

func (c *mapCache) Set(_ context.Context, o model.Offering) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[o.ID] = o
}

func (c *mapCache) Invalidate(_ context.Context, ids ...uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.items, id)
		c.invalidated = append(c.invalidated, id)
	}
}

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

// harness wires every service over one memDB.
type harness struct {
	db        *memDB
	events    *recordingPublisher
	cache     *mapCache
	directory *Directory
	inventory *Inventory
	ledger    *Ledger
	carts     *CartService
	checkout  *Checkout
	auth      *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	events := &recordingPublisher{}
	cache := newMapCache()
	clock := Clock(func() time.Time { return fixedNow })

	offerings := memOfferings{db}
	inventory := NewInventory(offerings)
	ledger := NewLedger(db, memReservations{db}, inventory, cache, events, clock)
	return &harness{
		db:        db,
		events:    events,
		cache:     cache,
		directory: NewDirectory(db, offerings, cache),
		inventory: inventory,
		ledger:    ledger,
		carts:     NewCartService(db, memCarts{db}, offerings),
		checkout:  NewCheckout(db, memCarts{db}, offerings, inventory, ledger, cache, events, clock),
		auth: NewAuthService(db, memUsers{db}, memTokens{db}, AuthConfig{
			JWTSecret:  "test-secret",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
			BcryptCost: 4,
		}, clock),
	}
}

var (
	admin = model.Principal{UserID: 900, Role: model.RoleAdmin}
	alice = model.Principal{UserID: 1, Role: model.RoleCustomer}
	bob   = model.Principal{UserID: 2, Role: model.RoleCustomer}
)

// seed creates an offering through the directory.
func (h *harness) seed(t *testing.T, name string, capacity int, priceCents uint32) model.Offering {
	t.Helper()
	o, err := h.directory.Create(context.Background(), admin, OfferingInput{
		Name: name, Location: "Berlin", Capacity: capacity,
		Date: "2026-11-03", Time: "9:30 AM", PriceCents: priceCents,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return o
}

func seat(o model.Offering, label string) SeatRequest {
	return SeatRequest{OfferingID: o.ID, Date: o.Date, Time: o.Time, Seat: label}
}
