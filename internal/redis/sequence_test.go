package redisclient

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2, DisableIdentity: true})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func staticFloor(n int64, calls *int32) FloorFunc {
	return func(ctx context.Context) (int64, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return n, nil
	}
}

func TestSequenceSeedsFromFloor(t *testing.T) {
	_, rdb := newTestClient(t)
	seq := NewSequence(rdb, NewRedisLocker(rdb, time.Second))

	var calls int32
	ctx := context.Background()

	id, err := seq.Next(ctx, "appointments", staticFloor(41, &calls))
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	id, err = seq.Next(ctx, "appointments", staticFloor(41, &calls))
	require.NoError(t, err)
	assert.Equal(t, "43", id)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSequenceExistingCounterWins(t *testing.T) {
	mr, rdb := newTestClient(t)
	require.NoError(t, mr.Set("seq:patients", "100"))

	seq := NewSequence(rdb, NewRedisLocker(rdb, time.Second))

	var calls int32
	id, err := seq.Next(context.Background(), "patients", staticFloor(5, &calls))
	require.NoError(t, err)
	assert.Equal(t, "101", id)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSequenceFloorError(t *testing.T) {
	_, rdb := newTestClient(t)
	seq := NewSequence(rdb, NewRedisLocker(rdb, time.Second))

	boom := errors.New("db down")
	_, err := seq.Next(context.Background(), "appointments", func(ctx context.Context) (int64, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestSequenceConcurrentReplicasNeverRepeat(t *testing.T) {
	_, rdb := newTestClient(t)
	locker := NewRedisLocker(rdb, time.Second)
	replicas := []*Sequence{NewSequence(rdb, locker), NewSequence(rdb, locker)}

	const perReplica = 40
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)

	for _, seq := range replicas {
		for i := 0; i < perReplica; i++ {
			wg.Add(1)
			go func(seq *Sequence) {
				defer wg.Done()
				id, err := seq.Next(context.Background(), "appointments", staticFloor(10, nil))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				assert.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true
				mu.Unlock()
			}(seq)
		}
	}
	wg.Wait()

	require.Len(t, seen, 2*perReplica)
	for n := 11; n <= 10+2*perReplica; n++ {
		assert.True(t, seen[strconv.Itoa(n)], "missing id %d", n)
	}
}

func TestSequenceResyncRaisesCounter(t *testing.T) {
	mr, rdb := newTestClient(t)
	require.NoError(t, mr.Set("seq:appointments", "3"))

	seq := NewSequence(rdb, NewRedisLocker(rdb, time.Second))
	ctx := context.Background()

	require.NoError(t, seq.Resync(ctx, "appointments", staticFloor(10, nil)))
	id, err := seq.Next(ctx, "appointments", staticFloor(10, nil))
	require.NoError(t, err)
	assert.Equal(t, "11", id)

	// A lower floor never moves the counter backwards.
	require.NoError(t, seq.Resync(ctx, "appointments", staticFloor(2, nil)))
	id, err = seq.Next(ctx, "appointments", staticFloor(2, nil))
	require.NoError(t, err)
	assert.Equal(t, "12", id)
}

func TestLockerIsExclusive(t *testing.T) {
	mr, rdb := newTestClient(t)
	locker := NewRedisLocker(rdb, time.Second)
	ctx := context.Background()

	err := locker.WithLock(ctx, "booking:u1", func(ctx context.Context) error {
		assert.True(t, mr.Exists("lock:booking:u1"))

		inner := locker.WithLock(ctx, "booking:u1", func(ctx context.Context) error { return nil })
		assert.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:booking:u1"))

	ran := false
	require.NoError(t, locker.WithLock(ctx, "booking:u1", func(ctx context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestLockerPropagatesCallbackError(t *testing.T) {
	mr, rdb := newTestClient(t)
	locker := NewRedisLocker(rdb, time.Second)

	boom := errors.New("boom")
	err := locker.WithLock(context.Background(), "k", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:k"))
}

func TestLockerNonPositiveTTLFallsBack(t *testing.T) {
	mr, rdb := newTestClient(t)
	locker := NewRedisLocker(rdb, 0)

	err := locker.WithLock(context.Background(), "booking:u2", func(ctx context.Context) error {
		assert.Equal(t, defaultLockTTL, mr.TTL("lock:booking:u2"))
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.True(t, time.Until(deadline) > 0)
		return nil
	})
	require.NoError(t, err)
}
