package notify

import (
	"context"
	"log/slog"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/metinatakli/seat-booking-engine/internal/mailer"
)

const bookingConfirmedTemplate = "booking_confirmed.tmpl"

type Mail struct {
	mailer mailer.Mailer
	logger *slog.Logger
}

func NewMail(m mailer.Mailer, logger *slog.Logger) *Mail {
	return &Mail{
		mailer: m,
		logger: logger,
	}
}

func (m *Mail) BookingConfirmed(ctx context.Context, event domain.BookingConfirmed) error {
	if event.Recipient == "" {
		m.logger.Warn("booking confirmation has no recipient, skipping e-mail", "movie", event.MovieTitle)
		return nil
	}

	return m.mailer.Send(event.Recipient, bookingConfirmedTemplate, event)
}

func (m *Mail) String() string {
	return "mail"
}
