package mocks

import (
	"context"
	"sync"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

// MockNotifier records every confirmation it is asked to deliver.
type MockNotifier struct {
	mu     sync.Mutex
	events []domain.BookingConfirmed
	Err    error
}

func (m *MockNotifier) BookingConfirmed(ctx context.Context, event domain.BookingConfirmed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)

	return m.Err
}

func (m *MockNotifier) Events() []domain.BookingConfirmed {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]domain.BookingConfirmed, len(m.events))
	copy(events, m.events)

	return events
}
