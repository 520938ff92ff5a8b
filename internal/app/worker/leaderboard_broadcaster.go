package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"contest_arena/internal/app/service"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// LeaderboardSource recomputes a contest leaderboard.
type LeaderboardSource interface {
	GetLeaderboard(ctx context.Context, contestID string, inWindow bool) (*model.Leaderboard, error)
}

// LeaderboardBroadcaster listens for contest refresh signals and pushes a
// fresh leaderboard to the contest's live viewers.
type LeaderboardBroadcaster struct {
	rdb    *redis.Client
	boards LeaderboardSource
	hub    *Hub
}

func NewLeaderboardBroadcaster(rdb *redis.Client, boards LeaderboardSource, hub *Hub) *LeaderboardBroadcaster {
	return &LeaderboardBroadcaster{rdb: rdb, boards: boards, hub: hub}
}

// Start blocks until ctx is cancelled.
func (b *LeaderboardBroadcaster) Start(ctx context.Context) {
	pattern := service.ContestRefreshPrefix + "*"
	logger.Info().Str("pattern", pattern).Msg("leaderboard broadcaster started")

	for {
		if err := b.listen(ctx, pattern); err != nil {
			logger.Error().Err(err).Msg("leaderboard broadcaster lost its subscription")
		}
		select {
		case <-ctx.Done():
			logger.Info().Msg("leaderboard broadcaster stopping")
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (b *LeaderboardBroadcaster) listen(ctx context.Context, pattern string) error {
	pubsub := b.rdb.PSubscribe(ctx, pattern)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", pattern, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", pattern)
			}
			contestID := strings.TrimPrefix(msg.Channel, service.ContestRefreshPrefix)
			if contestID == "" || b.hub.Viewers(contestID) == 0 {
				continue
			}
			if err := b.Push(ctx, contestID); err != nil {
				logger.Error().Err(err).Str("contest_id", contestID).Msg("failed to push leaderboard")
			}
		}
	}
}

// Push recomputes the leaderboard for contestID and sends it to its viewers.
func (b *LeaderboardBroadcaster) Push(ctx context.Context, contestID string) error {
	payload, err := b.Snapshot(ctx, contestID)
	if err != nil {
		return err
	}
	sent := b.hub.Broadcast(contestID, payload)
	logger.Debug().Str("contest_id", contestID).Int("viewers", sent).Msg("leaderboard pushed")
	return nil
}

// Snapshot returns the encoded leaderboard frame for contestID.
func (b *LeaderboardBroadcaster) Snapshot(ctx context.Context, contestID string) ([]byte, error) {
	board, err := b.boards.GetLeaderboard(ctx, contestID, false)
	if err != nil {
		return nil, err
	}
	return json.Marshal(board)
}
