package mocks

import (
	"context"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentProvider struct {
	mock.Mock
	domain.PaymentGateway
}

func (m *MockPaymentProvider) CreatePaymentSession(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentSession), args.Error(1)
}

func (m *MockPaymentProvider) ParseEvent(payload []byte, signature string) (domain.PaymentEvent, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(domain.PaymentEvent), args.Error(1)
}
