package domain

import (
	"context"
	"time"
)

type CheckoutStatus string

const (
	CheckoutPending    CheckoutStatus = "pending"
	CheckoutProcessing CheckoutStatus = "processing"
	CheckoutCompleted  CheckoutStatus = "completed"
	CheckoutPartial    CheckoutStatus = "partial"
	CheckoutCancelled  CheckoutStatus = "cancelled"
	CheckoutFailed     CheckoutStatus = "failed"
)

// Checkout is the server-side record of a payment attempt. Token is the
// dedup key threaded through the gateway handshake.
type Checkout struct {
	Token     string
	SessionID string
	MovieID   int
	SeatIDs   []int
	UnitPrice int64
	Amount    int64
	Currency  string
	Handle    string
	Status    CheckoutStatus
	ClaimedAt *time.Time
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Settled reports whether finalize already ran to completion for the checkout.
func (c Checkout) Settled() bool {
	return c.Status == CheckoutCompleted || c.Status == CheckoutPartial
}

// Open reports whether the checkout can still end in a booking.
func (c Checkout) Open() bool {
	return c.Status == CheckoutPending || c.Status == CheckoutProcessing
}

type CheckoutRepository interface {
	Create(ctx context.Context, checkout *Checkout) error
	AttachHandle(ctx context.Context, token, handle string) error
	GetByHandle(ctx context.Context, handle string) (*Checkout, error)
	GetByToken(ctx context.Context, token string) (*Checkout, error)
	// ListOpenForSession returns the session's pending and processing checkouts.
	ListOpenForSession(ctx context.Context, sessionID string) ([]Checkout, error)
	// Claim moves a pending checkout, or a processing one whose claim is older
	// than staleBefore, into processing. It reports whether this caller won.
	Claim(ctx context.Context, token string, now, staleBefore time.Time) (bool, error)
	// UpdateStatus sets status only when the current status is one of from.
	UpdateStatus(ctx context.Context, token string, status CheckoutStatus, from ...CheckoutStatus) (bool, error)
	CancelPendingForSession(ctx context.Context, sessionID string) error
}

type PaymentRequest struct {
	Amount      int64
	UnitAmount  int64
	Quantity    int
	Currency    string
	Description string
	Metadata    map[string]string
}

type PaymentSession struct {
	Handle      string
	RedirectURL string
	Token       string
}

type PaymentEventKind string

const (
	PaymentConfirmed PaymentEventKind = "confirmed"
	PaymentCancelled PaymentEventKind = "cancelled"
	PaymentIgnored   PaymentEventKind = "ignored"
)

// PaymentEvent is a verified gateway callback. Token is the checkout token the
// session was opened with, echoed back by the gateway.
type PaymentEvent struct {
	Kind          PaymentEventKind
	Handle        string
	Token         string
	CustomerEmail string
}

type PaymentConfirmation struct {
	Handle        string
	Token         string
	CustomerEmail string
}
