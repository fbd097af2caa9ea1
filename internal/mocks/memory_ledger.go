package mocks

import (
	"context"
	"sync"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

type InMemoryLedger struct {
	mu       sync.Mutex
	bookings []domain.Booking
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{}
}

func (l *InMemoryLedger) Append(ctx context.Context, booking *domain.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.bookings {
		if b.PaymentToken == booking.PaymentToken {
			return domain.ErrDuplicateBooking
		}
	}

	booking.ID = len(l.bookings) + 1
	l.bookings = append(l.bookings, *booking)

	return nil
}

func (l *InMemoryLedger) GetByPaymentToken(ctx context.Context, token string) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.bookings {
		if b.PaymentToken == token {
			return &b, nil
		}
	}

	return nil, domain.ErrRecordNotFound
}

func (l *InMemoryLedger) Bookings() []domain.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()

	bookings := make([]domain.Booking, len(l.bookings))
	copy(bookings, l.bookings)

	return bookings
}
