package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a slot only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisSlots is a counting semaphore shared by every server instance. Each
// slot is a key leased with SETNX and a TTL, so a crashed holder frees its
// slot when the lease expires.
type RedisSlots struct {
	rdb    *redis.Client
	prefix string
	size   int
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

func NewRedisSlots(rdb *redis.Client, prefix string, size int, ttl, wait time.Duration) *RedisSlots {
	return &RedisSlots{rdb: rdb, prefix: prefix, size: size, ttl: ttl, wait: wait, retry: 100 * time.Millisecond}
}

// SlotsFromConfig sizes the semaphore from AppConfig.
func SlotsFromConfig(rdb *redis.Client) *RedisSlots {
	return NewRedisSlots(rdb, "judge_slot",
		config.AppConfig.JudgeMaxInFlight, config.AppConfig.JudgeSlotTTL, config.AppConfig.JudgeSlotWait)
}

// Acquire leases a free slot, waiting up to the configured wait. It fails
// with common.ErrJudgeBusy when every slot stays taken.
func (s *RedisSlots) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(s.wait)

	for {
		for i := 0; i < s.size; i++ {
			key := s.prefix + ":" + strconv.Itoa(i)
			ok, err := s.rdb.SetNX(ctx, key, token, s.ttl).Result()
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, fmt.Errorf("%w: judge slot lease: %v", common.ErrServiceUnavailable, err)
			}
			if ok {
				return func() { s.release(key, token) }, nil
			}
		}

		if !time.Now().Before(deadline) {
			logger.Warn().Int("slots", s.size).Dur("waited", s.wait).Msg("all judge slots busy")
			return nil, common.ErrJudgeBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retry):
		}
	}
}

// release runs on its own context so a cancelled request still frees its slot.
func (s *RedisSlots) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	deleted, err := releaseScript.Run(ctx, s.rdb, []string{key}, token).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Error().Err(err).Str("slot", key).Msg("failed to release judge slot")
		return
	}
	if deleted != 1 {
		logger.Warn().Str("slot", key).Msg("judge slot lease expired before release")
	}
}

func (s *RedisSlots) Capacity() int { return s.size }

// InFlight counts the slots currently leased.
func (s *RedisSlots) InFlight(ctx context.Context) (int, error) {
	n := 0
	for i := 0; i < s.size; i++ {
		exists, err := s.rdb.Exists(ctx, s.prefix+":"+strconv.Itoa(i)).Result()
		if err != nil {
			return 0, err
		}
		n += int(exists)
	}
	return n, nil
}
