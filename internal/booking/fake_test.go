package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/desk-reservation/internal/model"
	"github.com/iliyamo/desk-reservation/internal/repository"
)

var errDown = errors.New("connection refused")

// memStore is an in-memory ledger with the same uniqueness rules as the
// SQL schema.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	recs   []model.Reservation
	desks  []model.Desk
	users  map[string]model.UserRef

	failDesks    error
	failDate     error
	failHistory  error
	failUsers    error
	failProfiles error
	failInsert   error
}

func newMemStore(desks ...model.Desk) *memStore {
	return &memStore{desks: desks, users: map[string]model.UserRef{}}
}

func (m *memStore) ListActive(ctx context.Context) ([]model.Desk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDesks != nil {
		return nil, m.failDesks
	}
	out := make([]model.Desk, 0, len(m.desks))
	for _, d := range m.desks {
		if d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDate != nil {
		return nil, m.failDate
	}
	var out []model.Reservation
	for _, r := range m.recs {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Reservation{}, repository.ErrReservationNotFound
}

func (m *memStore) ListActiveByUserSince(ctx context.Context, userName string, since model.Date) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failHistory != nil {
		return nil, m.failHistory
	}
	var out []model.Reservation
	for _, r := range m.recs {
		if r.CreatedBy == userName && r.Kind == model.KindUserBooking && r.Active() && !r.Date.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveByUsersOnDate(ctx context.Context, userNames []string, date model.Date) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := map[string]bool{}
	for _, u := range userNames {
		set[u] = true
	}
	var out []model.Reservation
	for _, r := range m.recs {
		if set[r.CreatedBy] && r.Date.Equal(date) && r.Kind == model.KindUserBooking && r.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Insert(ctx context.Context, date model.Date, deskName, createdBy string, createdAt time.Time) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return model.Reservation{}, m.failInsert
	}
	for _, r := range m.recs {
		if !r.Active() || !r.Date.Equal(date) {
			continue
		}
		if r.DeskName == deskName {
			return model.Reservation{}, repository.ErrDeskTaken
		}
		if r.CreatedBy == createdBy && r.Kind == model.KindUserBooking {
			return model.Reservation{}, repository.ErrAlreadyBooked
		}
	}
	m.nextID++
	r := model.Reservation{ID: m.nextID, Date: date, DeskName: deskName, Kind: model.KindUserBooking,
		CreatedBy: createdBy, CreatedAt: createdAt}
	m.recs = append(m.recs, r)
	return r, nil
}

func (m *memStore) InsertFixedDeskRelease(ctx context.Context, date model.Date, deskName, displayName, canceledBy string, canceledAt time.Time) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	by, at := canceledBy, canceledAt
	r := model.Reservation{ID: m.nextID, Date: date, DeskName: deskName, Kind: model.KindFixedDeskRelease,
		CreatedBy: displayName, CreatedAt: canceledAt, CanceledBy: &by, CanceledAt: &at}
	m.recs = append(m.recs, r)
	return r, nil
}

func (m *memStore) UpdateCancellation(ctx context.Context, id int64, canceledBy string, canceledAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.recs {
		if m.recs[i].ID == id && m.recs[i].Active() {
			by, at := canceledBy, canceledAt
			m.recs[i].CanceledBy = &by
			m.recs[i].CanceledAt = &at
			return nil
		}
	}
	return repository.ErrReservationNotFound
}

func (m *memStore) UpdateCheckin(ctx context.Context, id int64, checkedInAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.recs {
		if m.recs[i].ID == id && m.recs[i].Active() {
			at := checkedInAt
			m.recs[i].CheckedInAt = &at
			return nil
		}
	}
	return repository.ErrReservationNotFound
}

func (m *memStore) GetByUserName(ctx context.Context, userName string) (model.UserRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failProfiles != nil {
		return model.UserRef{}, m.failProfiles
	}
	u, ok := m.users[userName]
	if !ok {
		return model.UserRef{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) ListInOrgUnit(ctx context.Context, field model.OrgUnitField, value, excluding string) ([]model.UserRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return nil, m.failUsers
	}
	var out []model.UserRef
	for _, u := range m.users {
		if u.UserName == excluding || !u.Active {
			continue
		}
		unit := u.NucleoID
		if field == model.OrgUnitCoordenacao {
			unit = u.CoordenacaoID
		}
		if unit != nil && *unit == value {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

// seedBooking appends an active booking without going through the
// controller.
func (m *memStore) seedBooking(date, desk, user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.recs = append(m.recs, model.Reservation{ID: m.nextID, Date: model.MustDate(date), DeskName: desk,
		Kind: model.KindUserBooking, CreatedBy: user, CreatedAt: time.Now()})
}

func (m *memStore) addUser(name string, nucleo, coord string) {
	u := model.UserRef{UserName: name, Active: true}
	if nucleo != "" {
		u.NucleoID = &nucleo
	}
	if coord != "" {
		u.CoordenacaoID = &coord
	}
	m.users[name] = u
}

// activeCount returns the number of active records for (date, desk).
func (m *memStore) activeCount(date, desk string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.recs {
		if r.Date.Equal(model.MustDate(date)) && r.DeskName == desk && r.Active() {
			n++
		}
	}
	return n
}

type memCache struct {
	desks []model.Desk
	ok    bool
	loads int
}

func (c *memCache) LoadDesks(ctx context.Context) ([]model.Desk, bool) {
	c.loads++
	return c.desks, c.ok
}
func (c *memCache) StoreDesks(ctx context.Context, desks []model.Desk) { c.desks, c.ok = desks, true }
func (c *memCache) Invalidate(ctx context.Context)                   { c.desks, c.ok = nil, false }

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func desk(number int, name string, row, col int) model.Desk {
	return model.Desk{ID: uint64(number), Number: number, Name: name, GridRow: row, GridCol: col,
		RowSpan: 1, ColSpan: 1, Active: true}
}

func fixedDesk(number int, name string, row, col int, assignee string) model.Desk {
	d := desk(number, name, row, col)
	d.FixedAssignee = &assignee
	return d
}

func fixedClock(s string) Clock {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestController(st *memStore, opts ...Option) *Controller {
	return NewController(NewCatalog(st, nil), NewLedger(st, st, nil), st, opts...)
}
