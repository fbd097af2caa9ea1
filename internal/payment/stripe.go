package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

var minorUnits = decimal.NewFromInt(100)

type StripePaymentProvider struct {
	failureUrl    string
	successUrl    string
	webhookSecret string
	newSession    func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewStripePaymentProvider(failureUrl, successUrl, webhookSecret string) *StripePaymentProvider {
	return &StripePaymentProvider{
		failureUrl:    failureUrl,
		successUrl:    successUrl,
		webhookSecret: webhookSecret,
		newSession:    session.New,
	}
}

// ToMinorUnits converts a whole-currency amount into the smallest unit Stripe
// charges in.
func ToMinorUnits(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(minorUnits).IntPart()
}

func (s *StripePaymentProvider) CreatePaymentSession(
	ctx context.Context,
	req domain.PaymentRequest) (*domain.PaymentSession, error) {

	lineItem := &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(strings.ToLower(req.Currency)),
			UnitAmount: stripe.Int64(ToMinorUnits(req.UnitAmount)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripe.String(fmt.Sprintf("🎬 %s", req.Description)),
				Description: stripe.String(fmt.Sprintf("%d seat(s)", req.Quantity)),
			},
		},
		Quantity: stripe.Int64(int64(req.Quantity)),
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  []*stripe.CheckoutSessionLineItemParams{lineItem},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl),
		CancelURL:  stripe.String(s.failureUrl),
		Metadata:   req.Metadata,
	}
	params.Context = ctx

	if token, ok := req.Metadata["checkout_token"]; ok {
		params.ClientReferenceID = stripe.String(token)
	}

	checkoutSession, err := s.newSession(params)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentSession{
		Handle:      checkoutSession.ID,
		RedirectURL: checkoutSession.URL,
	}, nil
}

// ParseEvent verifies the webhook signature and maps the Stripe event onto a
// gateway-neutral payment event.
func (s *StripePaymentProvider) ParseEvent(payload []byte, signature string) (domain.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("verify webhook: %w", err)
	}

	var checkoutSession stripe.CheckoutSession

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
	default:
		return domain.PaymentEvent{Kind: domain.PaymentIgnored}, nil
	}

	err = json.Unmarshal(event.Data.Raw, &checkoutSession)
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("decode checkout session: %w", err)
	}

	paymentEvent := domain.PaymentEvent{
		Kind:   eventKind(event.Type, checkoutSession.PaymentStatus),
		Handle: checkoutSession.ID,
		Token:  checkoutSession.ClientReferenceID,
	}

	if paymentEvent.Token == "" {
		paymentEvent.Token = checkoutSession.Metadata["checkout_token"]
	}

	if checkoutSession.CustomerDetails != nil {
		paymentEvent.CustomerEmail = checkoutSession.CustomerDetails.Email
	}
	if paymentEvent.CustomerEmail == "" {
		paymentEvent.CustomerEmail = checkoutSession.CustomerEmail
	}

	return paymentEvent, nil
}

// eventKind maps a checkout session event onto a payment outcome. A completed
// session paid by a delayed method stays unpaid until its async event arrives.
func eventKind(eventType stripe.EventType, status stripe.CheckoutSessionPaymentStatus) domain.PaymentEventKind {
	switch eventType {
	case stripe.EventTypeCheckoutSessionCompleted:
		if status == stripe.CheckoutSessionPaymentStatusUnpaid {
			return domain.PaymentIgnored
		}
		return domain.PaymentConfirmed
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return domain.PaymentConfirmed
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed, stripe.EventTypeCheckoutSessionExpired:
		return domain.PaymentCancelled
	default:
		return domain.PaymentIgnored
	}
}
