package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultCartTTL = 24 * time.Hour

// RedisCartStore keeps each cart as a set under cart:<session>. The key
// expires with the browser session so abandoned carts do not pile up.
type RedisCartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCartStore(client redis.UniversalClient, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}

	return &RedisCartStore{
		client: client,
		ttl:    ttl,
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func (r *RedisCartStore) Add(ctx context.Context, sessionID string, seatID int) error {
	key := cartKey(sessionID)

	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, key, seatID)
	pipe.Expire(ctx, key, r.ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisCartStore) Remove(ctx context.Context, sessionID string, seatIDs ...int) error {
	members := make([]any, len(seatIDs))
	for i, id := range seatIDs {
		members[i] = id
	}

	return r.client.SRem(ctx, cartKey(sessionID), members...).Err()
}

func (r *RedisCartStore) Members(ctx context.Context, sessionID string) ([]int, error) {
	values, err := r.client.SMembers(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	seatIDs := make([]int, 0, len(values))
	for _, v := range values {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("corrupt cart entry %q: %w", v, err)
		}

		seatIDs = append(seatIDs, id)
	}

	return seatIDs, nil
}

func (r *RedisCartStore) Clear(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKey(sessionID)).Err()
}
