package service

import (
	"context"
	"encoding/json"
	"time"

	"contest_arena/internal/domain/model"
	"contest_arena/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Notifier tells downstream views that a submission changed what they show.
type Notifier interface {
	SubmissionRecorded(ctx context.Context, sub *model.Submission)
}

const (
	ContestRefreshPrefix = "contest_refresh:"
	ProfileRefreshPrefix = "profile_refresh:"
	ProblemsRefresh      = "problems_refresh"
)

func ContestRefreshChannel(contestID string) string {
	return ContestRefreshPrefix + contestID
}

// RefreshEvent is the pub/sub payload.
type RefreshEvent struct {
	SubmissionID string        `json:"submission_id"`
	UserID       string        `json:"user_id"`
	ProblemID    string        `json:"problem_id"`
	ContestID    string        `json:"contest_id,omitempty"`
	Verdict      model.Verdict `json:"verdict"`
	At           time.Time     `json:"at"`
}

// RedisNotifier publishes refresh events. Publishing is best effort.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) SubmissionRecorded(ctx context.Context, sub *model.Submission) {
	event := RefreshEvent{
		SubmissionID: sub.ID,
		UserID:       sub.UserID,
		ProblemID:    sub.ProblemID,
		Verdict:      sub.Verdict,
		At:           sub.SubmittedAt,
	}
	channels := []string{ProfileRefreshPrefix + sub.UserID, ProblemsRefresh}
	if sub.ContestID != nil {
		event.ContestID = *sub.ContestID
		channels = append(channels, ContestRefreshChannel(*sub.ContestID))
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("submission_id", sub.ID).Msg("failed to encode refresh event")
		return
	}
	pipe := n.rdb.Pipeline()
	for _, ch := range channels {
		pipe.Publish(ctx, ch, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn().Err(err).Str("submission_id", sub.ID).Msg("failed to publish refresh events")
	}
}
