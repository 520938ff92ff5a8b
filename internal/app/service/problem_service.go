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

type ProblemService struct {
	problemRepo repository.ProblemRepository
	contestRepo repository.ContestRepository
	now         func() time.Time
}

func NewProblemService(problemRepo repository.ProblemRepository, contestRepo repository.ContestRepository) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, contestRepo: contestRepo, now: time.Now}
}

type TestCaseInput struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

type ProblemRequest struct {
	ContestID    *string                 `json:"contest_id,omitempty"`
	Title        string                  `json:"title"`
	Difficulty   model.ProblemDifficulty `json:"difficulty"`
	Description  string                  `json:"description"`
	SampleInput  string                  `json:"sample_input"`
	SampleOutput string                  `json:"sample_output"`
	Constraints  string                  `json:"constraints"`
	TestCases    []TestCaseInput         `json:"test_cases"`
}

func (r *ProblemRequest) validate() error {
	var problems []string
	if strings.TrimSpace(r.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !r.Difficulty.Valid() {
		problems = append(problems, "difficulty must be Easy, Medium or Hard")
	}
	if len(r.TestCases) == 0 {
		problems = append(problems, "at least one test case is required")
	}
	if len(problems) > 0 {
		return common.Errorf("%s: %w", strings.Join(problems, "; "), common.ErrValidation)
	}
	return nil
}

func (r *ProblemRequest) testCases() []model.TestCase {
	cases := make([]model.TestCase, len(r.TestCases))
	for i, tc := range r.TestCases {
		cases[i] = model.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, IsHidden: true}
	}
	return cases
}

// CreateProblem stores a problem and its test cases in one transaction.
func (s *ProblemService) CreateProblem(ctx context.Context, p model.Principal, req ProblemRequest) (*model.Problem, error) {
	if !p.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.ContestID != nil && *req.ContestID == "" {
		req.ContestID = nil
	}
	if req.ContestID != nil {
		if _, err := s.contestRepo.FindContestByID(ctx, *req.ContestID); err != nil {
			return nil, common.Errorf("contest %s: %w", *req.ContestID, err)
		}
	}

	problem := &model.Problem{
		ID:           uuid.NewString(),
		ContestID:    req.ContestID,
		Title:        strings.TrimSpace(req.Title),
		Slug:         slug.Make(req.Title),
		Difficulty:   req.Difficulty,
		Description:  req.Description,
		SampleInput:  req.SampleInput,
		SampleOutput: req.SampleOutput,
		Constraints:  req.Constraints,
	}
	if err := s.problemRepo.CreateProblemWithTestCases(ctx, problem, req.testCases()); err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}
	return problem, nil
}

// UpdateProblem edits the statement and replaces every test case. The
// replacement is transactional: the old cases survive any failure.
func (s *ProblemService) UpdateProblem(ctx context.Context, p model.Principal, id string, req ProblemRequest) (*model.Problem, error) {
	if !p.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	problem, err := s.problemRepo.FindProblemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	problem.Title = strings.TrimSpace(req.Title)
	problem.Slug = slug.Make(req.Title)
	problem.Difficulty = req.Difficulty
	problem.Description = req.Description
	problem.SampleInput = req.SampleInput
	problem.SampleOutput = req.SampleOutput
	problem.Constraints = req.Constraints

	if err := s.problemRepo.UpdateProblemWithTestCases(ctx, problem, req.testCases()); err != nil {
		return nil, common.Errorf("failed to update problem: %w", err)
	}
	return problem, nil
}

func (s *ProblemService) SetPracticeAvailability(ctx context.Context, p model.Principal, id string, available bool) error {
	if !p.IsAdmin() {
		return common.ErrForbidden
	}
	return s.problemRepo.SetPracticeAvailability(ctx, id, available)
}

// GetProblem returns a problem statement. Problems of a contest that has not
// started are hidden from non-admins. The owning contest is returned when the
// problem belongs to one.
func (s *ProblemService) GetProblem(ctx context.Context, p model.Principal, id string) (*model.Problem, *model.Contest, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if problem.ContestID == nil {
		return problem, nil, nil
	}
	contest, err := s.contestRepo.FindContestByID(ctx, *problem.ContestID)
	if err != nil {
		if isNotFound(err) {
			return problem, nil, nil
		}
		return nil, nil, err
	}
	if contest.Status(s.now()) == model.ContestUpcoming && !p.IsAdmin() {
		return nil, nil, common.ErrContestNotStarted
	}
	return problem, contest, nil
}

func (s *ProblemService) ListContestProblems(ctx context.Context, p model.Principal, contestID string) ([]model.Problem, error) {
	contest, err := s.contestRepo.FindContestByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if contest.Status(s.now()) == model.ContestUpcoming && !p.IsAdmin() {
		return nil, common.ErrContestNotStarted
	}
	return s.problemRepo.ListProblemsByContest(ctx, contestID)
}

// ListPracticeProblems lists problems open for practice right now.
func (s *ProblemService) ListPracticeProblems(ctx context.Context) ([]model.Problem, error) {
	return s.problemRepo.ListPracticeProblems(ctx, s.now())
}
