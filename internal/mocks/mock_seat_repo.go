package mocks

import (
	"context"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

// MockSeatRepo lets a test script each SeatStore call.
type MockSeatRepo struct {
	GetSeatsFunc      func(ctx context.Context, movieID int) ([]domain.Seat, error)
	GetSeatFunc       func(ctx context.Context, seatID int) (*domain.Seat, error)
	CompareAndSetFunc func(ctx context.Context, observed domain.Seat, next domain.SeatState) (bool, error)
}

func (m *MockSeatRepo) GetSeats(ctx context.Context, movieID int) ([]domain.Seat, error) {
	return m.GetSeatsFunc(ctx, movieID)
}

func (m *MockSeatRepo) GetSeat(ctx context.Context, seatID int) (*domain.Seat, error) {
	return m.GetSeatFunc(ctx, seatID)
}

func (m *MockSeatRepo) CompareAndSet(ctx context.Context, observed domain.Seat, next domain.SeatState) (bool, error) {
	return m.CompareAndSetFunc(ctx, observed, next)
}
