package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // by ID
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ---------------------------------------------------------------------------
// Clients
// ---------------------------------------------------------------------------

type stubClientRepo struct {
	mu      sync.Mutex
	clients map[string]*domain.Client // by ID
}

func newStubClientRepo(clients ...*domain.Client) *stubClientRepo {
	r := &stubClientRepo{clients: make(map[string]*domain.Client)}
	for _, c := range clients {
		r.clients[c.ID] = cloneClient(c)
	}
	return r
}

func cloneClient(c *domain.Client) *domain.Client {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

func (r *stubClientRepo) Create(_ context.Context, client *domain.Client) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.TaxID == client.TaxID {
			return nil, domain.ErrTaxIDExists
		}
		if c.UserID == client.UserID {
			return nil, domain.ErrClientExists
		}
	}
	r.clients[client.ID] = cloneClient(client)
	return cloneClient(client), nil
}

func (r *stubClientRepo) find(match func(*domain.Client) bool) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if match(c) {
			return cloneClient(c), nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (r *stubClientRepo) FindByID(_ context.Context, id string) (*domain.Client, error) {
	return r.find(func(c *domain.Client) bool { return c.ID == id })
}

func (r *stubClientRepo) FindByTaxID(_ context.Context, taxID string) (*domain.Client, error) {
	return r.find(func(c *domain.Client) bool { return c.TaxID == taxID })
}

func (r *stubClientRepo) FindByUserID(_ context.Context, userID string) (*domain.Client, error) {
	return r.find(func(c *domain.Client) bool { return c.UserID == userID })
}

func (r *stubClientRepo) List(_ context.Context, page domain.PageRequest) ([]*domain.Client, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		all = append(all, cloneClient(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, page), int64(len(all)), nil
}

// ---------------------------------------------------------------------------
// Spots
// ---------------------------------------------------------------------------

type stubSpotRepo struct {
	mu    sync.Mutex
	spots map[string]*domain.ParkingSpot // by ID
	saves int
}

func newStubSpotRepo(codes ...string) *stubSpotRepo {
	r := &stubSpotRepo{spots: make(map[string]*domain.ParkingSpot)}
	for _, code := range codes {
		r.spots["spot-"+code] = &domain.ParkingSpot{ID: "spot-" + code, Code: code, Status: domain.SpotFree}
	}
	return r
}

func cloneSpot(s *domain.ParkingSpot) *domain.ParkingSpot {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (r *stubSpotRepo) Create(_ context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.spots {
		if s.Code == spot.Code {
			return nil, domain.ErrSpotCodeExists
		}
	}
	r.spots[spot.ID] = cloneSpot(spot)
	return cloneSpot(spot), nil
}

func (r *stubSpotRepo) FindByCode(_ context.Context, code string) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.spots {
		if s.Code == code {
			return cloneSpot(s), nil
		}
	}
	return nil, domain.ErrSpotNotFound
}

func (r *stubSpotRepo) FindOneFree(_ context.Context) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sorted() {
		if s.Status == domain.SpotFree {
			return cloneSpot(s), nil
		}
	}
	return nil, domain.ErrNoFreeSpot
}

func (r *stubSpotRepo) Save(_ context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if _, ok := r.spots[spot.ID]; !ok {
		return nil, domain.ErrSpotNotFound
	}
	r.spots[spot.ID] = cloneSpot(spot)
	return cloneSpot(spot), nil
}

func (r *stubSpotRepo) List(_ context.Context, status domain.SpotStatus) ([]*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ParkingSpot
	for _, s := range r.sorted() {
		if status == "" || s.Status == status {
			out = append(out, cloneSpot(s))
		}
	}
	return out, nil
}

func (r *stubSpotRepo) status(code string) domain.SpotStatus {
	s, err := r.FindByCode(context.Background(), code)
	if err != nil {
		return ""
	}
	return s.Status
}

// sorted must be called with mu held.
func (r *stubSpotRepo) sorted() []*domain.ParkingSpot {
	out := make([]*domain.ParkingSpot, 0, len(r.spots))
	for _, s := range r.spots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *stubSpotRepo) snapshot() map[string]*domain.ParkingSpot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*domain.ParkingSpot, len(r.spots))
	for k, v := range r.spots {
		snap[k] = cloneSpot(v)
	}
	return snap
}

func (r *stubSpotRepo) restore(snap map[string]*domain.ParkingSpot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spots = snap
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.ParkingSession // by receipt
	creates  int
	updates  int
	countErr error
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]*domain.ParkingSession)}
}

func cloneSession(s *domain.ParkingSession) *domain.ParkingSession {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Client = cloneClient(s.Client)
	clone.Spot = cloneSpot(s.Spot)
	return &clone
}

func (r *stubSessionRepo) Create(_ context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if _, exists := r.sessions[s.Receipt]; exists {
		return nil, domain.ErrReceiptConflict
	}
	r.sessions[s.Receipt] = cloneSession(s)
	return cloneSession(s), nil
}

func (r *stubSessionRepo) Update(_ context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	stored, ok := r.sessions[s.Receipt]
	if !ok || stored.ExitTime.Valid {
		return nil, domain.ErrSessionNotFound
	}
	r.sessions[s.Receipt] = cloneSession(s)
	return cloneSession(s), nil
}

func (r *stubSessionRepo) FindOpenByReceipt(_ context.Context, receipt string) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[receipt]
	if !ok || s.ExitTime.Valid {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (r *stubSessionRepo) FindByReceipt(_ context.Context, receipt string) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[receipt]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (r *stubSessionRepo) CountClosedByClient(_ context.Context, taxID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	var n int64
	for _, s := range r.sessions {
		if s.Client.TaxID == taxID && s.ExitTime.Valid {
			n++
		}
	}
	return n, nil
}

func (r *stubSessionRepo) ListByClient(_ context.Context, clientID string, page domain.PageRequest) ([]*domain.ParkingSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.ParkingSession
	for _, s := range r.sessions {
		if s.Client.ID == clientID {
			all = append(all, cloneSession(s))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EntryTime.After(all[j].EntryTime) })
	return paginate(all, page), int64(len(all)), nil
}

func (r *stubSessionRepo) snapshot() map[string]*domain.ParkingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*domain.ParkingSession, len(r.sessions))
	for k, v := range r.sessions {
		snap[k] = cloneSession(v)
	}
	return snap
}

func (r *stubSessionRepo) restore(snap map[string]*domain.ParkingSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = snap
}

// ---------------------------------------------------------------------------
// Transactions: one at a time, rolled back on error
// ---------------------------------------------------------------------------

type stubTx struct {
	mu       sync.Mutex
	spots    *stubSpotRepo
	sessions *stubSessionRepo
}

func (t *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	spots := t.spots.snapshot()
	sessions := t.sessions.snapshot()
	if err := fn(ctx); err != nil {
		t.spots.restore(spots)
		t.sessions.restore(sessions)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Idempotency, events, rendering
// ---------------------------------------------------------------------------

type stubIdempotency struct {
	mu        sync.Mutex
	keys      map[string]ports.IdempotencyRecord
	lookupErr error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]ports.IdempotencyRecord)}
}

func (s *stubIdempotency) Lookup(_ context.Context, key string) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return ports.IdempotencyRecord{}, false, s.lookupErr
	}
	rec, ok := s.keys[key]
	return rec, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, key string, rec ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = rec
	return nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.SpotEvent
}

func (p *stubPublisher) Publish(ev domain.SpotEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

type stubBroadcaster struct {
	events []domain.SpotEvent
	err    error
}

func (b *stubBroadcaster) Broadcast(ev domain.SpotEvent) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}

type stubRenderer struct {
	historyClient   *domain.Client
	historySessions []*domain.ParkingSession
	generatedAt     time.Time
	ticketReceipt   string
}

func (r *stubRenderer) History(client *domain.Client, sessions []*domain.ParkingSession, generatedAt time.Time) ([]byte, error) {
	r.historyClient = client
	r.historySessions = sessions
	r.generatedAt = generatedAt
	return []byte("%PDF-history"), nil
}

func (r *stubRenderer) Ticket(session *domain.ParkingSession) ([]byte, error) {
	r.ticketReceipt = session.Receipt
	return []byte("%PDF-ticket"), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var errStoreDown = errors.New("store unavailable")

func paginate[T any](all []T, page domain.PageRequest) []T {
	page = page.Normalize()
	start := page.Offset()
	if start > len(all) {
		return []T{}
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
