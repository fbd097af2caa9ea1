package mocks

import (
	"context"
	"sync"
)

type InMemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]map[int]struct{}
}

func NewInMemoryCartStore() *InMemoryCartStore {
	return &InMemoryCartStore{carts: make(map[string]map[int]struct{})}
}

func (c *InMemoryCartStore) Add(ctx context.Context, sessionID string, seatID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cart, ok := c.carts[sessionID]
	if !ok {
		cart = make(map[int]struct{})
		c.carts[sessionID] = cart
	}

	cart[seatID] = struct{}{}

	return nil
}

func (c *InMemoryCartStore) Remove(ctx context.Context, sessionID string, seatIDs ...int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, seatID := range seatIDs {
		delete(c.carts[sessionID], seatID)
	}

	return nil
}

func (c *InMemoryCartStore) Members(ctx context.Context, sessionID string) ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	members := make([]int, 0, len(c.carts[sessionID]))
	for seatID := range c.carts[sessionID] {
		members = append(members, seatID)
	}

	return members, nil
}

func (c *InMemoryCartStore) Clear(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.carts, sessionID)

	return nil
}
