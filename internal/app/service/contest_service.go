package service

import (
	"context"
	"strings"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ContestService struct {
	contestRepo repository.ContestRepository
	now         func() time.Time
}

func NewContestService(contestRepo repository.ContestRepository) *ContestService {
	return &ContestService{contestRepo: contestRepo, now: time.Now}
}

type CreateContestRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Stream      string    `json:"stream"`
}

func (s *ContestService) CreateContest(ctx context.Context, p model.Principal, req CreateContestRequest) (*model.ContestView, error) {
	if !p.IsAdmin() {
		return nil, common.ErrForbidden
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, common.Errorf("name is required: %w", common.ErrValidation)
	}
	if req.StartTime.IsZero() || !req.EndTime.After(req.StartTime) {
		return nil, common.Errorf("end time must be after start time: %w", common.ErrValidation)
	}
	stream := strings.ToLower(strings.TrimSpace(req.Stream))
	if stream == "" {
		stream = model.StreamAll
	}
	if !model.ValidStream(stream) {
		return nil, common.Errorf("stream must be 1, 2, 3 or all: %w", common.ErrValidation)
	}

	userID := p.UserID
	contest := &model.Contest{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug.Make(name) + "-" + uuid.NewString()[:8],
		Description: req.Description,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		Stream:      stream,
		CreatedByID: &userID,
	}
	if err := s.contestRepo.CreateContest(ctx, contest); err != nil {
		return nil, err
	}
	view := model.NewContestView(*contest, s.now())
	return &view, nil
}

func (s *ContestService) GetContest(ctx context.Context, id string) (*model.ContestView, error) {
	contest, err := s.contestRepo.FindContestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := model.NewContestView(*contest, s.now())
	return &view, nil
}

func (s *ContestService) ListContests(ctx context.Context) ([]model.ContestView, error) {
	contests, err := s.contestRepo.ListContests(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]model.ContestView, len(contests))
	for i, c := range contests {
		views[i] = model.NewContestView(c, now)
	}
	return views, nil
}
