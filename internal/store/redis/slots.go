// Package redis keeps slots as plain string keys in Redis, namespaced by a
// prefix so several installations can share one instance.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookinghub/backend/internal/store"
)

const opTimeout = 2 * time.Second

var _ store.SlotStore = (*Slots)(nil)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Slots struct {
	client *redis.Client
	prefix string
}

// Open connects and pings the server.
func Open(ctx context.Context, opts Options) (*Slots, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewSlots(client, opts.Prefix), nil
}

func NewSlots(client *redis.Client, prefix string) *Slots {
	return &Slots{client: client, prefix: prefix}
}

func (s *Slots) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Slots) Get(ctx context.Context, key string) (string, bool, error) {
	if s.client == nil {
		return "", false, store.ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapErr(err)
	}
	return val, true, nil
}

func (s *Slots) Set(ctx context.Context, key, value string) error {
	if s.client == nil {
		return store.ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return mapErr(s.client.Set(ctx, s.prefix+key, value, 0).Err())
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return fmt.Errorf("redis: %w", err)
}
