package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Store adapts a redis client to the narrow set of operations the
// consumer services need, so they can be tested against a fake.
type Store struct{ C *redis.Client }

func (s Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.C.Exists(ctx, key).Result()
	return n > 0, err
}

func (s Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.C.Set(ctx, key, value, ttl).Err()
}
