package executor

import (
	"context"
	"testing"
	"time"

	"contest_arena/internal/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSlots(t *testing.T, size int, wait time.Duration) (*RedisSlots, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	s := NewRedisSlots(rdb, "test_slot", size, time.Minute, wait)
	s.retry = 5 * time.Millisecond
	return s, mr
}

func TestRedisSlotsBoundsInFlight(t *testing.T) {
	slots, _ := newSlots(t, 2, 20*time.Millisecond)
	ctx := context.Background()

	r1, err := slots.Acquire(ctx)
	require.NoError(t, err)
	r2, err := slots.Acquire(ctx)
	require.NoError(t, err)

	n, err := slots.InFlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = slots.Acquire(ctx)
	assert.ErrorIs(t, err, common.ErrJudgeBusy)

	r1()
	r3, err := slots.Acquire(ctx)
	require.NoError(t, err)

	r2()
	r3()
	n, err = slots.InFlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisSlotsWaitsForRelease(t *testing.T) {
	slots, _ := newSlots(t, 1, time.Second)
	ctx := context.Background()

	release, err := slots.Acquire(ctx)
	require.NoError(t, err)
	go func() {
		time.Sleep(30 * time.Millisecond)
		release()
	}()

	again, err := slots.Acquire(ctx)
	require.NoError(t, err)
	again()
}

func TestRedisSlotsReleaseKeepsForeignLease(t *testing.T) {
	slots, mr := newSlots(t, 1, 10*time.Millisecond)
	ctx := context.Background()

	release, err := slots.Acquire(ctx)
	require.NoError(t, err)

	// The lease expired and another holder took the slot.
	mr.Set("test_slot:0", "someone-else")
	release()

	val, err := mr.Get("test_slot:0")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}
