package domain

import "context"

type PaymentGateway interface {
	CreatePaymentSession(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
	ParseEvent(payload []byte, signature string) (PaymentEvent, error)
}
