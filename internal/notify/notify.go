package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

// Multi fans a confirmation out to every notifier. One failing notifier does
// not stop the others; the joined error is returned.
type Multi struct {
	notifiers []domain.Notifier
	logger    *slog.Logger
}

func NewMulti(logger *slog.Logger, notifiers ...domain.Notifier) *Multi {
	return &Multi{
		notifiers: notifiers,
		logger:    logger,
	}
}

func (m *Multi) BookingConfirmed(ctx context.Context, event domain.BookingConfirmed) error {
	var errs []error

	for _, n := range m.notifiers {
		err := n.BookingConfirmed(ctx, event)
		if err != nil {
			m.logger.Error("booking notification failed", "notifier", fmt.Sprint(n), "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
