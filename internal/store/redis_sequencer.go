// internal/store/redis_sequencer.go
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSequencer allocates numbers with INCR. Numbers burned by a rolled
// back transaction are not returned, so sequences may have gaps.
type RedisSequencer struct {
	client    redis.Cmdable
	keyPrefix string
}

func NewRedisSequencer(client redis.Cmdable, keyPrefix string) *RedisSequencer {
	return &RedisSequencer{client: client, keyPrefix: keyPrefix}
}

var _ Sequencer = (*RedisSequencer)(nil)

func (s *RedisSequencer) Next(ctx context.Context, name string) (int64, error) {
	value, err := s.client.Incr(ctx, s.keyPrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s sequence: %w", name, err)
	}
	return value, nil
}
