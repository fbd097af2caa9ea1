package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

// InMemorySeatStore is a SeatStore honouring the compare-and-set contract,
// safe for concurrent use by tests that race workers against each other.
type InMemorySeatStore struct {
	mu    sync.Mutex
	seats map[int]domain.Seat
	next  int
}

func NewInMemorySeatStore() *InMemorySeatStore {
	return &InMemorySeatStore{
		seats: make(map[int]domain.Seat),
		next:  1,
	}
}

// AddSeat inserts a free seat and returns its id.
func (s *InMemorySeatStore) AddSeat(movieID int, seatNumber string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++

	s.seats[id] = domain.Seat{
		ID:         id,
		MovieID:    movieID,
		SeatNumber: seatNumber,
		Status:     domain.SeatFree,
		Version:    1,
	}

	return id
}

// Put overwrites a seat as-is, bypassing transition checks.
func (s *InMemorySeatStore) Put(seat domain.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seats[seat.ID] = seat
}

func (s *InMemorySeatStore) Seat(id int) domain.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.seats[id]
}

func (s *InMemorySeatStore) GetSeats(ctx context.Context, movieID int) ([]domain.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seats := make([]domain.Seat, 0)
	for _, seat := range s.seats {
		if seat.MovieID == movieID {
			seats = append(seats, seat)
		}
	}

	slices.SortFunc(seats, func(a, b domain.Seat) int { return a.ID - b.ID })

	return seats, nil
}

func (s *InMemorySeatStore) GetSeat(ctx context.Context, seatID int) (*domain.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[seatID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return &seat, nil
}

func (s *InMemorySeatStore) CompareAndSet(ctx context.Context, observed domain.Seat, next domain.SeatState) (bool, error) {
	err := domain.CheckTransition(observed, next)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.seats[observed.ID]
	if !ok {
		return false, domain.ErrRecordNotFound
	}

	if current.Status != observed.Status || current.Version != observed.Version {
		return false, nil
	}

	s.seats[observed.ID] = current.Apply(next)

	return true, nil
}
