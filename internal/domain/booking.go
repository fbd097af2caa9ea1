package domain

import (
	"context"
	"time"
)

// Booking is immutable once appended to the ledger.
type Booking struct {
	ID           int
	MovieID      int
	SeatsCount   int
	TotalPrice   int64
	Currency     string
	BookedAt     time.Time
	PaymentToken string
}

type BookingLedger interface {
	Append(ctx context.Context, booking *Booking) error
	GetByPaymentToken(ctx context.Context, token string) (*Booking, error)
}

type BookingConfirmed struct {
	MovieTitle  string    `json:"movie_title"`
	SeatNumbers []string  `json:"seat_numbers"`
	TotalPrice  int64     `json:"total_price"`
	Currency    string    `json:"currency"`
	BookedAt    time.Time `json:"booked_at"`
	Recipient   string    `json:"-"`
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, event BookingConfirmed) error
}
