package service

import (
	"context"
	"errors"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
)

// EligibilityGuard decides whether a principal may submit to a problem.
// Monitoring reads are snapshots: a tab switch recorded while a submission is
// in flight may or may not be seen by that submission's check.
type EligibilityGuard struct {
	contests   repository.ContestRepository
	monitoring repository.MonitoringRepository
	profiles   repository.ProfileRepository
	now        func() time.Time
}

func NewEligibilityGuard(
	contests repository.ContestRepository,
	monitoring repository.MonitoringRepository,
	profiles repository.ProfileRepository,
) *EligibilityGuard {
	return &EligibilityGuard{contests: contests, monitoring: monitoring, profiles: profiles, now: time.Now}
}

// Check runs the contest checks when contestID is set and the practice lock
// otherwise. For contest submissions it returns the contest.
func (g *EligibilityGuard) Check(ctx context.Context, p model.Principal, problem *model.Problem, contestID *string) (*model.Contest, error) {
	if contestID != nil && *contestID != "" {
		return g.checkContest(ctx, p, problem, *contestID)
	}
	return nil, g.checkPractice(ctx, problem)
}

func (g *EligibilityGuard) checkContest(ctx context.Context, p model.Principal, problem *model.Problem, contestID string) (*model.Contest, error) {
	// 1. Disqualification
	record, err := g.monitoring.FindMonitoring(ctx, p.UserID, contestID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, common.Errorf("eligibility: reading monitoring: %w", err)
	}
	if record.Disqualified() {
		return nil, common.ErrDisqualified
	}

	// 2. Window
	contest, err := g.contests.FindContestByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrContestEnded
		}
		return nil, common.Errorf("eligibility: reading contest: %w", err)
	}
	now := g.now()
	if contest.HasEnded(now) {
		return nil, common.ErrContestEnded
	}
	if now.Before(contest.StartTime) {
		return nil, common.ErrContestNotStarted
	}
	if problem.ContestID == nil || *problem.ContestID != contest.ID {
		return nil, common.Errorf("problem %s is not part of contest %s: %w", problem.ID, contest.ID, common.ErrBadRequest)
	}

	// 3. Stream
	if contest.Stream != model.StreamAll {
		department := ""
		profile, err := g.profiles.FindProfileByID(ctx, p.UserID)
		switch {
		case err == nil:
			department = profile.Department
		case !errors.Is(err, common.ErrNotFound):
			return nil, common.Errorf("eligibility: reading profile: %w", err)
		}
		if model.StreamFromDepartment(department) != contest.Stream {
			return nil, common.ErrStreamMismatch
		}
	}
	return contest, nil
}

// checkPractice blocks practice on a problem while its origin contest runs.
func (g *EligibilityGuard) checkPractice(ctx context.Context, problem *model.Problem) error {
	if problem.ContestID == nil {
		return nil
	}
	contest, err := g.contests.FindContestByID(ctx, *problem.ContestID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return common.Errorf("eligibility: reading origin contest: %w", err)
	}
	if !contest.HasEnded(g.now()) {
		return common.ErrContestLive
	}
	return nil
}
