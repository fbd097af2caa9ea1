package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

// Cart scopes "my holds" for a session. Entries whose seat is no longer held
// by the session are pruned on List instead of being reported as errors.
type Cart struct {
	store  domain.CartStore
	holds  *HoldManager
	logger *slog.Logger
}

func NewCart(store domain.CartStore, holds *HoldManager, logger *slog.Logger) *Cart {
	return &Cart{
		store:  store,
		holds:  holds,
		logger: logger,
	}
}

func (c *Cart) Add(ctx context.Context, sessionID string, seatID int) error {
	return c.store.Add(ctx, sessionID, seatID)
}

func (c *Cart) Remove(ctx context.Context, sessionID string, seatIDs ...int) error {
	if len(seatIDs) == 0 {
		return nil
	}

	return c.store.Remove(ctx, sessionID, seatIDs...)
}

func (c *Cart) Clear(ctx context.Context, sessionID string) error {
	return c.store.Clear(ctx, sessionID)
}

// Members returns the raw cart entries, sorted, without validating the holds.
func (c *Cart) Members(ctx context.Context, sessionID string) ([]int, error) {
	members, err := c.store.Members(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	slices.Sort(members)

	return members, nil
}

func (c *Cart) Contains(ctx context.Context, sessionID string, seatID int) (bool, error) {
	members, err := c.store.Members(ctx, sessionID)
	if err != nil {
		return false, err
	}

	return slices.Contains(members, seatID), nil
}

// List returns the seats the session currently holds, in ascending id order.
func (c *Cart) List(ctx context.Context, sessionID string) ([]domain.Seat, error) {
	members, err := c.Members(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	seats := make([]domain.Seat, 0, len(members))
	var stale []int

	for _, seatID := range members {
		seat, held, err := c.holds.HeldBy(ctx, seatID, sessionID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				stale = append(stale, seatID)
				continue
			}
			return nil, err
		}

		if !held {
			stale = append(stale, seatID)
			continue
		}

		seats = append(seats, *seat)
	}

	if len(stale) > 0 {
		err = c.store.Remove(ctx, sessionID, stale...)
		if err != nil {
			return nil, fmt.Errorf("prune stale cart entries: %w", err)
		}

		c.logger.Debug("pruned stale cart entries", "seat_ids", stale)
	}

	return seats, nil
}

// SeatIDs is List reduced to identifiers.
func (c *Cart) SeatIDs(ctx context.Context, sessionID string) ([]int, error) {
	seats, err := c.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(seats))
	for i, seat := range seats {
		ids[i] = seat.ID
	}

	return ids, nil
}
