package redisclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FloorFunc reports the highest numeric id already stored for a collection.
type FloorFunc func(ctx context.Context) (int64, error)

// Sequencer hands out collection-wide sequential ids ("1", "2", ...).
type Sequencer interface {
	Next(ctx context.Context, name string, floor FloorFunc) (string, error)
	Resync(ctx context.Context, name string, floor FloorFunc) error
}

// Sequence allocates ids with INCR on "seq:<name>". A counter that does not exist
// yet is seeded from the floor under a lock, so restarts and pre-existing rows
// never produce a repeated id.
type Sequence struct {
	client *redis.Client
	locker Locker
	ready  sync.Map // name -> struct{}

	initRetries int
	initBackoff time.Duration
}

func NewSequence(client *redis.Client, locker Locker) *Sequence {
	return &Sequence{
		client:      client,
		locker:      locker,
		initRetries: 20,
		initBackoff: 50 * time.Millisecond,
	}
}

func counterKey(name string) string { return "seq:" + name }

func (s *Sequence) Next(ctx context.Context, name string, floor FloorFunc) (string, error) {
	if err := s.ensure(ctx, name, floor); err != nil {
		return "", err
	}

	n, err := s.client.Incr(ctx, counterKey(name)).Result()
	if err != nil {
		return "", fmt.Errorf("incr sequence %s: %w", name, err)
	}
	return strconv.FormatInt(n, 10), nil
}

// Resync raises the counter to the floor. Callers use it after a duplicate-key
// insert, which means the counter was lost or reset behind our back.
func (s *Sequence) Resync(ctx context.Context, name string, floor FloorFunc) error {
	return s.withInitLock(ctx, name, func(ctx context.Context) error {
		f, err := floor(ctx)
		if err != nil {
			return fmt.Errorf("sequence floor %s: %w", name, err)
		}

		cur, err := s.client.Get(ctx, counterKey(name)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("read sequence %s: %w", name, err)
		}
		if f > cur {
			if err := s.client.Set(ctx, counterKey(name), f, 0).Err(); err != nil {
				return fmt.Errorf("raise sequence %s: %w", name, err)
			}
		}
		s.ready.Store(name, struct{}{})
		return nil
	})
}

func (s *Sequence) ensure(ctx context.Context, name string, floor FloorFunc) error {
	if _, ok := s.ready.Load(name); ok {
		return nil
	}

	n, err := s.client.Exists(ctx, counterKey(name)).Result()
	if err != nil {
		return fmt.Errorf("check sequence %s: %w", name, err)
	}
	if n > 0 {
		s.ready.Store(name, struct{}{})
		return nil
	}

	return s.withInitLock(ctx, name, func(ctx context.Context) error {
		f, err := floor(ctx)
		if err != nil {
			return fmt.Errorf("sequence floor %s: %w", name, err)
		}
		// SetNX so a counter seeded by another process in the meantime wins.
		if err := s.client.SetNX(ctx, counterKey(name), f, 0).Err(); err != nil {
			return fmt.Errorf("seed sequence %s: %w", name, err)
		}
		s.ready.Store(name, struct{}{})
		return nil
	})
}

func (s *Sequence) withInitLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := s.locker.WithLock(ctx, "seq:init:"+name, fn)
		if !errors.Is(err, ErrLockNotAcquired) {
			return err
		}

		// Someone else is seeding; their result is as good as ours.
		if n, exErr := s.client.Exists(ctx, counterKey(name)).Result(); exErr == nil && n > 0 {
			s.ready.Store(name, struct{}{})
			return nil
		}
		if attempt >= s.initRetries {
			return fmt.Errorf("seed sequence %s: %w", name, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.initBackoff):
		}
	}
}
