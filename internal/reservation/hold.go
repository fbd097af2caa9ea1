package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/metinatakli/seat-booking-engine/internal/clock"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/metinatakli/seat-booking-engine/internal/metrics"
)

const (
	DefaultHoldTTL     = 5 * time.Minute
	DefaultMaxAttempts = 2
)

// HoldManager owns the free -> held -> free transitions of a seat. Every
// write goes through the store's compare-and-set so concurrent workers,
// possibly in different processes, never overwrite each other.
type HoldManager struct {
	seats       domain.SeatStore
	clock       clock.Clock
	logger      *slog.Logger
	holdTTL     time.Duration
	maxAttempts int
}

type HoldOption func(*HoldManager)

func WithHoldTTL(d time.Duration) HoldOption {
	return func(h *HoldManager) {
		if d > 0 {
			h.holdTTL = d
		}
	}
}

// WithMaxAttempts bounds read-decide-write rounds per operation.
func WithMaxAttempts(n int) HoldOption {
	return func(h *HoldManager) {
		if n > 0 {
			h.maxAttempts = n
		}
	}
}

func NewHoldManager(seats domain.SeatStore, clk clock.Clock, logger *slog.Logger, opts ...HoldOption) *HoldManager {
	h := &HoldManager{
		seats:       seats,
		clock:       clk,
		logger:      logger,
		holdTTL:     DefaultHoldTTL,
		maxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *HoldManager) HoldTTL() time.Duration {
	return h.holdTTL
}

// Reserve places or refreshes a hold on seatID for session. A hold of another
// session that already lapsed is taken over in the same write.
func (h *HoldManager) Reserve(ctx context.Context, seatID int, session string) (*domain.Seat, error) {
	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		seat, err := h.seats.GetSeat(ctx, seatID)
		if err != nil {
			return nil, err
		}

		now := h.clock.Now()

		switch {
		case seat.Status == domain.SeatBooked:
			metrics.TrackHold("reserve", "booked")
			return nil, domain.ErrSeatUnavailable
		case seat.Status == domain.SeatHeld && seat.HoldSession != session && !seat.HoldExpired(now):
			metrics.TrackHold("reserve", "already_held")
			return nil, domain.ErrAlreadyHeld
		}

		next := domain.HeldState(session, now.Add(h.holdTTL))

		ok, err := h.seats.CompareAndSet(ctx, *seat, next)
		if err != nil {
			return nil, fmt.Errorf("reserve seat %d: %w", seatID, err)
		}

		if ok {
			metrics.TrackHold("reserve", "ok")
			held := seat.Apply(next)
			return &held, nil
		}

		metrics.TrackConflict("reserve")
		h.logger.Debug("seat changed while reserving, re-reading", "seat_id", seatID, "attempt", attempt+1)
	}

	metrics.TrackHold("reserve", "unavailable")
	return nil, domain.ErrSeatUnavailable
}

// Release frees a seat held by session. Holds owned by anybody else, booked
// seats and free seats are reported as ErrNotHolder.
func (h *HoldManager) Release(ctx context.Context, seatID int, session string) error {
	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		seat, err := h.seats.GetSeat(ctx, seatID)
		if err != nil {
			return err
		}

		if seat.Status != domain.SeatHeld || seat.HoldSession != session {
			metrics.TrackHold("release", "not_holder")
			return domain.ErrNotHolder
		}

		ok, err := h.seats.CompareAndSet(ctx, *seat, domain.FreeState())
		if err != nil {
			return fmt.Errorf("release seat %d: %w", seatID, err)
		}

		if ok {
			metrics.TrackHold("release", "ok")
			return nil
		}

		metrics.TrackConflict("release")
		h.logger.Debug("seat changed while releasing, re-reading", "seat_id", seatID, "attempt", attempt+1)
	}

	metrics.TrackHold("release", "unavailable")
	return domain.ErrSeatUnavailable
}

// Sweep returns every lapsed hold of the movie to the pool and reports the
// resulting seat map. It must run before seat availability is shown.
func (h *HoldManager) Sweep(ctx context.Context, movieID int) ([]domain.Seat, error) {
	seats, err := h.seats.GetSeats(ctx, movieID)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	released := 0

	for i, seat := range seats {
		if !seat.HoldExpired(now) {
			continue
		}

		ok, err := h.seats.CompareAndSet(ctx, seat, domain.FreeState())
		if err != nil {
			return nil, fmt.Errorf("sweep seat %d: %w", seat.ID, err)
		}

		if ok {
			seats[i] = seat.Apply(domain.FreeState())
			released++
			continue
		}

		// Lost to a refresh, a booking or another sweep; report what won.
		metrics.TrackConflict("sweep")

		current, err := h.seats.GetSeat(ctx, seat.ID)
		if err != nil {
			return nil, err
		}

		seats[i] = *current
	}

	if released > 0 {
		metrics.TrackSwept(released)
		h.logger.Info("expired holds released", "movie_id", movieID, "count", released)
	}

	return seats, nil
}

// HeldBy loads the seat and reports whether session holds it right now.
func (h *HoldManager) HeldBy(ctx context.Context, seatID int, session string) (*domain.Seat, bool, error) {
	seat, err := h.seats.GetSeat(ctx, seatID)
	if err != nil {
		return nil, false, err
	}

	return seat, seat.HeldBy(session, h.clock.Now()), nil
}
