package app

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reservation is a booking of one resource.
type Reservation struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Resource string    `json:"resource"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// ReservationService is served remotely: clients receive a proxy through the
// container's RemoteServiceCaller.
type ReservationService interface {
	Reservations(from, to time.Time) ([]Reservation, error)
}

// ReservationStore is the in-memory server implementation.
type ReservationStore struct {
	log *zap.Logger

	mu           sync.RWMutex
	reservations []Reservation
}

// NewReservationStore returns a store seeded with a demo week.
func NewReservationStore(log *zap.Logger) *ReservationStore {
	monday := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	return &ReservationStore{
		log: log,
		reservations: []Reservation{
			{ID: "r1", Name: "Team meeting", Resource: "Room 101", Start: monday, End: monday.Add(time.Hour)},
			{ID: "r2", Name: "Lecture", Resource: "Hall A", Start: monday.Add(26 * time.Hour), End: monday.Add(28 * time.Hour)},
			{ID: "r3", Name: "Workshop", Resource: "Room 101", Start: monday.Add(50 * time.Hour), End: monday.Add(54 * time.Hour)},
		},
	}
}

// Add stores a reservation.
func (s *ReservationStore) Add(r Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = append(s.reservations, r)
}

// Reservations returns the reservations overlapping [from, to), by start.
// A zero bound is open.
func (s *ReservationStore) Reservations(from, to time.Time) ([]Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Reservation
	for _, r := range s.reservations {
		if !to.IsZero() && !r.Start.Before(to) {
			continue
		}
		if !from.IsZero() && !r.End.After(from) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Dispose implements container.Disposable.
func (s *ReservationStore) Dispose() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.log.Info("reservation store closed", zap.Int("reservations", len(s.reservations)))
	return nil
}
