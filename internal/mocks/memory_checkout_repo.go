package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

type InMemoryCheckoutRepo struct {
	mu        sync.Mutex
	checkouts map[string]domain.Checkout
	// AttachHandleErr makes AttachHandle fail without storing the handle.
	AttachHandleErr error
}

func NewInMemoryCheckoutRepo() *InMemoryCheckoutRepo {
	return &InMemoryCheckoutRepo{checkouts: make(map[string]domain.Checkout)}
}

func (r *InMemoryCheckoutRepo) Create(ctx context.Context, checkout *domain.Checkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *checkout
	c.SeatIDs = slices.Clone(checkout.SeatIDs)
	r.checkouts[c.Token] = c

	return nil
}

func (r *InMemoryCheckoutRepo) AttachHandle(ctx context.Context, token, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.AttachHandleErr != nil {
		return r.AttachHandleErr
	}

	c, ok := r.checkouts[token]
	if !ok {
		return domain.ErrRecordNotFound
	}

	c.Handle = handle
	r.checkouts[token] = c

	return nil
}

func (r *InMemoryCheckoutRepo) GetByHandle(ctx context.Context, handle string) (*domain.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle == "" {
		return nil, domain.ErrRecordNotFound
	}

	for _, c := range r.checkouts {
		if c.Handle == handle {
			c.SeatIDs = slices.Clone(c.SeatIDs)
			return &c, nil
		}
	}

	return nil, domain.ErrRecordNotFound
}

func (r *InMemoryCheckoutRepo) GetByToken(ctx context.Context, token string) (*domain.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.checkouts[token]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	c.SeatIDs = slices.Clone(c.SeatIDs)
	return &c, nil
}

func (r *InMemoryCheckoutRepo) ListOpenForSession(ctx context.Context, sessionID string) ([]domain.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var open []domain.Checkout
	for _, c := range r.checkouts {
		if c.SessionID == sessionID && c.Open() {
			c.SeatIDs = slices.Clone(c.SeatIDs)
			open = append(open, c)
		}
	}

	return open, nil
}

// Get looks a checkout up by token.
func (r *InMemoryCheckoutRepo) Get(token string) (domain.Checkout, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.checkouts[token]
	return c, ok
}

func (r *InMemoryCheckoutRepo) Claim(ctx context.Context, token string, now, staleBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.checkouts[token]
	if !ok {
		return false, domain.ErrRecordNotFound
	}

	stale := c.Status == domain.CheckoutProcessing && c.ClaimedAt != nil && c.ClaimedAt.Before(staleBefore)
	if c.Status != domain.CheckoutPending && !stale {
		return false, nil
	}

	c.Status = domain.CheckoutProcessing
	c.ClaimedAt = &now
	r.checkouts[token] = c

	return true, nil
}

func (r *InMemoryCheckoutRepo) UpdateStatus(
	ctx context.Context,
	token string,
	status domain.CheckoutStatus,
	from ...domain.CheckoutStatus) (bool, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.checkouts[token]
	if !ok {
		return false, domain.ErrRecordNotFound
	}

	if len(from) > 0 && !slices.Contains(from, c.Status) {
		return false, nil
	}

	c.Status = status
	r.checkouts[token] = c

	return true, nil
}

func (r *InMemoryCheckoutRepo) CancelPendingForSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, c := range r.checkouts {
		if c.SessionID == sessionID && c.Status == domain.CheckoutPending {
			c.Status = domain.CheckoutCancelled
			r.checkouts[token] = c
		}
	}

	return nil
}
