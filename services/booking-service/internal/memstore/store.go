// Package memstore keeps windows and bookings in process memory. It backs local runs
// (STORE=memory) and the engine tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

type Store struct {
	mu       sync.RWMutex
	windows  map[string]model.AvailabilityWindow
	bookings []model.Booking
	byKey    map[string]int

	slotMu sync.Mutex
	slots  map[model.SlotKey]*slotLock
}

// slotLock lives in Store.slots only while some caller holds or waits for it.
type slotLock struct {
	mu   sync.Mutex
	refs int
}

func New() *Store {
	return &Store{
		windows: make(map[string]model.AvailabilityWindow),
		byKey:   make(map[string]int),
		slots:   make(map[model.SlotKey]*slotLock),
	}
}

var (
	_ scheduling.WindowStore  = (*Store)(nil)
	_ scheduling.BookingStore = (*Store)(nil)
)

func (s *Store) ListWindows(_ context.Context, doctorID int64) ([]model.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.AvailabilityWindow{}
	for _, w := range s.windows {
		if w.DoctorID == doctorID {
			out = append(out, w)
		}
	}
	sortWindows(out)
	return out, nil
}

func (s *Store) WindowsOn(_ context.Context, doctorID int64, date calendar.Date) ([]model.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windowsOnLocked(doctorID, date), nil
}

func (s *Store) windowsOnLocked(doctorID int64, date calendar.Date) []model.AvailabilityWindow {
	out := []model.AvailabilityWindow{}
	for _, w := range s.windows {
		if w.DoctorID == doctorID && w.Date == date {
			out = append(out, w)
		}
	}
	sortWindows(out)
	return out
}

func (s *Store) GetWindow(_ context.Context, id string) (model.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[id]
	if !ok {
		return model.AvailabilityWindow{}, scheduling.ErrNoRecord
	}
	return w, nil
}

func (s *Store) InsertWindow(_ context.Context, w model.AvailabilityWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlapsLocked(w) {
		return scheduling.ErrOverlappingRows
	}
	s.windows[w.ID] = w
	return nil
}

func (s *Store) UpdateWindow(_ context.Context, w model.AvailabilityWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.windows[w.ID]
	if !ok {
		return scheduling.ErrNoRecord
	}
	if s.overlapsLocked(w) {
		return scheduling.ErrOverlappingRows
	}
	w.CreatedAt = prev.CreatedAt
	s.windows[w.ID] = w
	return nil
}

func (s *Store) DeleteWindow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.windows[id]; !ok {
		return scheduling.ErrNoRecord
	}
	delete(s.windows, id)
	return nil
}

// overlapsLocked mirrors the database exclusion constraint.
func (s *Store) overlapsLocked(cand model.AvailabilityWindow) bool {
	c := availability.Interval{Start: cand.Start, End: cand.End}
	for _, w := range s.windowsOnLocked(cand.DoctorID, cand.Date) {
		if w.ID == cand.ID {
			continue
		}
		if (availability.Interval{Start: w.Start, End: w.End}).Overlaps(c) {
			return true
		}
	}
	return false
}

func (s *Store) Occupancy(_ context.Context, doctorID int64, date calendar.Date) (map[calendar.Clock]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	occ := make(map[calendar.Clock]int)
	for _, b := range s.bookings {
		if b.DoctorID == doctorID && b.Date == date {
			occ[b.Time]++
		}
	}
	return occ, nil
}

func (s *Store) CountBetween(_ context.Context, doctorID int64, date calendar.Date, from, to calendar.Clock) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bookings {
		if b.DoctorID == doctorID && b.Date == date && b.Time >= from && b.Time <= to {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListBookings(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doctor := strings.ToLower(f.DoctorName)
	patient := strings.ToLower(f.PatientName)
	out := []model.Booking{}
	for _, b := range s.bookings {
		if !f.Date.IsZero() && b.Date != f.Date {
			continue
		}
		if doctor != "" && !strings.Contains(strings.ToLower(b.DoctorName), doctor) {
			continue
		}
		if patient != "" && !strings.Contains(strings.ToLower(b.PatientName), patient) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (s *Store) FindByIdempotencyKey(_ context.Context, key string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byKey[key]
	if !ok {
		return model.Booking{}, scheduling.ErrNoRecord
	}
	return s.bookings[i], nil
}

// Bookings returns a copy of everything stored, in insertion order.
func (s *Store) Bookings() []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Booking(nil), s.bookings...)
}

func (s *Store) WithSlot(ctx context.Context, key model.SlotKey, fn func(context.Context, scheduling.SlotTx) error) error {
	lock := s.acquireSlot(key)
	defer s.releaseSlot(key, lock)

	tx := &slotTx{store: s, key: key}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx.pending)
}

func (s *Store) acquireSlot(key model.SlotKey) *slotLock {
	s.slotMu.Lock()
	l, ok := s.slots[key]
	if !ok {
		l = &slotLock{}
		s.slots[key] = l
	}
	l.refs++
	s.slotMu.Unlock()

	l.mu.Lock()
	return l
}

func (s *Store) releaseSlot(key model.SlotKey, l *slotLock) {
	l.mu.Unlock()

	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	if l.refs--; l.refs == 0 {
		delete(s.slots, key)
	}
}

func (s *Store) commit(pending []model.Booking) error {
	if len(pending) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range pending {
		if b.IdempotencyKey == "" {
			continue
		}
		if _, ok := s.byKey[b.IdempotencyKey]; ok {
			return scheduling.ErrDuplicateKey
		}
	}
	for _, b := range pending {
		s.bookings = append(s.bookings, b)
		if b.IdempotencyKey != "" {
			s.byKey[b.IdempotencyKey] = len(s.bookings) - 1
		}
	}
	return nil
}

type slotTx struct {
	store   *Store
	key     model.SlotKey
	pending []model.Booking
}

func (t *slotTx) Count(context.Context) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	n := len(t.pending)
	for _, b := range t.store.bookings {
		if b.Key() == t.key {
			n++
		}
	}
	return n, nil
}

func (t *slotTx) Insert(_ context.Context, b model.Booking) error {
	t.pending = append(t.pending, b)
	return nil
}

func sortWindows(ws []model.AvailabilityWindow) {
	sort.SliceStable(ws, func(i, j int) bool {
		if c := ws[i].Date.Compare(ws[j].Date); c != 0 {
			return c < 0
		}
		return ws[i].Start < ws[j].Start
	})
}
