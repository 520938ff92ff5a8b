package service

import (
	"context"
	"sync"
	"time"

	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/platform/logger"
)

// ProctorService records tab switches, runs and first opens per
// (user, contest). Failures are logged and never returned.
type ProctorService struct {
	repo    repository.MonitoringRepository
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewProctorService(repo repository.MonitoringRepository, timeout time.Duration) *ProctorService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProctorService{repo: repo, timeout: timeout, now: time.Now}
}

func (s *ProctorService) LogTabSwitch(ctx context.Context, p model.Principal, contestID string) {
	s.record(ctx, "tab_switch", p, contestID, s.repo.IncrementTabSwitches)
}

func (s *ProctorService) IncrementRunCount(ctx context.Context, p model.Principal, contestID string) {
	s.record(ctx, "run", p, contestID, s.repo.IncrementRunCount)
}

func (s *ProctorService) MarkContestOpened(ctx context.Context, p model.Principal, contestID string) {
	s.record(ctx, "opened", p, contestID, s.repo.MarkOpened)
}

// Monitoring returns the caller's own record, or a zero record when none exists.
func (s *ProctorService) Monitoring(ctx context.Context, p model.Principal, contestID string) (*model.MonitoringRecord, error) {
	record, err := s.repo.FindMonitoring(ctx, p.UserID, contestID)
	if err != nil {
		if isNotFound(err) {
			return &model.MonitoringRecord{UserID: p.UserID, ContestID: contestID}, nil
		}
		return nil, err
	}
	return record, nil
}

// Dispatch runs fn in the background on a context detached from ctx's
// cancellation, bounded by the recorder timeout.
func (s *ProctorService) Dispatch(ctx context.Context, fn func(ctx context.Context)) {
	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(detached, s.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every dispatched recording has finished.
func (s *ProctorService) Wait() {
	s.wg.Wait()
}

func (s *ProctorService) record(ctx context.Context, event string, p model.Principal, contestID string,
	write func(ctx context.Context, userID, contestID string, at time.Time) error) {
	if p.UserID == "" || contestID == "" {
		logger.Warn().Str("event", event).Str("user_id", p.UserID).Str("contest_id", contestID).Msg("proctoring event without user or contest")
		return
	}
	if err := write(ctx, p.UserID, contestID, s.now()); err != nil {
		logger.Error().Err(err).Str("event", event).Str("user_id", p.UserID).Str("contest_id", contestID).Msg("failed to record proctoring event")
	}
}
