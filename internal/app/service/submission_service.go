package service

import (
	"context"
	"errors"
	"strings"

	"contest_arena/internal/app/executor"
	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/platform/logger"

	"github.com/google/uuid"
)

// Judge runs code on the external execution service.
type Judge interface {
	RunBatch(ctx context.Context, languageID int, source string, jobs []executor.Job) ([]executor.Result, error)
	RunOnce(ctx context.Context, languageID int, source, stdin string) (*executor.Result, error)
}

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	guard          *EligibilityGuard
	judge          Judge
	notifier       Notifier
	proctor        *ProctorService
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	guard *EligibilityGuard,
	judge Judge,
	notifier Notifier,
	proctor *ProctorService,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		guard:          guard,
		judge:          judge,
		notifier:       notifier,
		proctor:        proctor,
	}
}

type CreateSubmissionRequest struct {
	ProblemID string  `json:"problem_id"`
	ContestID *string `json:"contest_id,omitempty"`
	Code      string  `json:"code"`
	Language  string  `json:"language"`
}

// SubmissionResult is what a submit call reports. Failure is set when the
// submission could not be judged or stored; Error then holds the message
// for the user.
type SubmissionResult struct {
	Verdict    model.Verdict     `json:"verdict,omitempty"`
	Error      string            `json:"error,omitempty"`
	Submission *model.Submission `json:"submission,omitempty"`
	Failure    error             `json:"-"`
}

func failed(err error) SubmissionResult {
	return SubmissionResult{Error: common.PublicMessage(err), Failure: err}
}

// Submit checks eligibility and then judges and stores the submission.
// It never returns a raw error.
func (s *SubmissionService) Submit(ctx context.Context, p model.Principal, req CreateSubmissionRequest) SubmissionResult {
	if req.ContestID != nil && *req.ContestID == "" {
		req.ContestID = nil
	}
	languageID, err := validateCode(req.Code, req.Language)
	if err != nil {
		return failed(err)
	}

	problem, err := s.problemRepo.FindProblemByID(ctx, req.ProblemID)
	if err != nil {
		return failed(common.Errorf("loading problem %s: %w", req.ProblemID, err))
	}
	if _, err := s.guard.Check(ctx, p, problem, req.ContestID); err != nil {
		logger.Info().Str("user_id", p.UserID).Str("problem_id", problem.ID).Err(err).Msg("submission rejected by eligibility guard")
		return failed(err)
	}

	language := strings.ToLower(strings.TrimSpace(req.Language))
	return s.ProcessSubmission(ctx, p, problem.ID, req.ContestID, req.Code, language, languageID)
}

// ProcessSubmission fetches test cases, judges, reduces, stores the
// submission and signals downstream views. Nothing is stored unless every
// step before the insert succeeded.
func (s *SubmissionService) ProcessSubmission(ctx context.Context, p model.Principal, problemID string, contestID *string,
	code, language string, languageID int) SubmissionResult {
	log := logger.Log.With().Str("user_id", p.UserID).Str("problem_id", problemID).Str("language", language).Logger()

	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problemID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load test cases")
		return failed(common.Errorf("loading test cases: %w", err))
	}
	if len(testCases) == 0 {
		log.Error().Msg("problem has no test cases configured")
		return failed(common.ErrNoTestCases)
	}

	jobs := make([]executor.Job, len(testCases))
	for i, tc := range testCases {
		jobs[i] = executor.Job{Stdin: tc.Input, ExpectedOutput: tc.ExpectedOutput}
	}

	results, err := s.judge.RunBatch(ctx, languageID, code, jobs)
	switch {
	case err == nil:
	case errors.Is(err, executor.ErrJudgingTimedOut):
		log.Warn().Int("runs", len(jobs)).Msg("judging timed out, storing partial verdict")
	case errors.Is(err, common.ErrJudgeBusy):
		return failed(err)
	default:
		log.Error().Err(err).Msg("judge batch failed")
		return failed(common.Errorf("%w: %v", common.ErrJudgeFailed, err))
	}

	summary := ReduceVerdict(results)

	sub := &model.Submission{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		ProblemID:     problemID,
		ContestID:     contestID,
		Code:          code,
		Language:      language,
		LanguageID:    languageID,
		Verdict:       summary.Verdict,
		ExecutionTime: summary.TotalTime,
		Memory:        summary.MaxMemory,
	}
	if err := s.submissionRepo.CreateSubmission(ctx, nil, sub); err != nil {
		log.Error().Err(err).
			Str("submission_id", sub.ID).
			Str("verdict", string(sub.Verdict)).
			Int("code_bytes", len(code)).
			Interface("contest_id", contestID).
			Msg("failed to store submission")
		return failed(common.Errorf("%w: %v", common.ErrSubmissionNotSaved, err))
	}

	if s.notifier != nil {
		s.notifier.SubmissionRecorded(ctx, sub)
	}
	log.Info().Str("submission_id", sub.ID).Str("verdict", string(sub.Verdict)).Msg("submission judged")

	return SubmissionResult{Verdict: summary.Verdict, Error: summary.Error, Submission: sub}
}

type RunCodeRequest struct {
	ContestID *string `json:"contest_id,omitempty"`
	Code      string  `json:"code"`
	Language  string  `json:"language"`
	Stdin     string  `json:"stdin"`
}

type RunCodeResult struct {
	Verdict model.Verdict `json:"verdict"`
	Output  string        `json:"output,omitempty"`
	Error   string        `json:"error,omitempty"`
	Time    *float64      `json:"time,omitempty"`
	Memory  *int          `json:"memory,omitempty"`
}

// RunCode executes code once against custom input. Runs inside a contest
// count toward the run monitor.
func (s *SubmissionService) RunCode(ctx context.Context, p model.Principal, req RunCodeRequest) (*RunCodeResult, error) {
	languageID, err := validateCode(req.Code, req.Language)
	if err != nil {
		return nil, err
	}
	if req.ContestID != nil && *req.ContestID != "" && s.proctor != nil {
		contestID := *req.ContestID
		s.proctor.Dispatch(ctx, func(ctx context.Context) {
			s.proctor.IncrementRunCount(ctx, p, contestID)
		})
	}

	res, err := s.judge.RunOnce(ctx, languageID, req.Code, req.Stdin)
	if err != nil && (res == nil || !errors.Is(err, executor.ErrJudgingTimedOut)) {
		if errors.Is(err, common.ErrJudgeBusy) {
			return &RunCodeResult{Verdict: model.VerdictSystemError, Error: common.ErrJudgeBusy.Error()}, nil
		}
		logger.Error().Err(err).Str("user_id", p.UserID).Msg("run code failed")
		return &RunCodeResult{Verdict: model.VerdictSystemError, Error: "Failed to execute code."}, nil
	}

	summary := ReduceVerdict([]executor.Result{*res})
	out := &RunCodeResult{Verdict: summary.Verdict, Time: summary.TotalTime, Memory: summary.MaxMemory}
	if res.Outcome == model.OutcomeAccepted {
		out.Output = res.Stdout
	} else {
		out.Error = summary.Error
	}
	return out, nil
}

// LastSubmission returns the caller's latest submission for a problem.
func (s *SubmissionService) LastSubmission(ctx context.Context, p model.Principal, problemID string) (*model.Submission, error) {
	return s.submissionRepo.GetLastSubmission(ctx, p.UserID, problemID)
}

// GetSubmission returns a submission owned by the caller. Admins may read any.
func (s *SubmissionService) GetSubmission(ctx context.Context, p model.Principal, id string) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != p.UserID && !p.IsAdmin() {
		return nil, common.ErrNotFound
	}
	return sub, nil
}

func validateCode(code, language string) (int, error) {
	if strings.TrimSpace(code) == "" {
		return 0, common.Errorf("code must not be empty: %w", common.ErrValidation)
	}
	languageID, ok := model.JudgeLanguageID(language)
	if !ok {
		return 0, common.Errorf("unsupported language %q, expected one of %s: %w",
			language, strings.Join(model.SupportedLanguages(), ", "), common.ErrValidation)
	}
	return languageID, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
