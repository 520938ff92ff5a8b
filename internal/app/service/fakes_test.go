package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"contest_arena/internal/app/executor"
	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
)

type fakeContests struct {
	byID map[string]*model.Contest
}

func newFakeContests(cs ...*model.Contest) *fakeContests {
	f := &fakeContests{byID: map[string]*model.Contest{}}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeContests) CreateContest(_ context.Context, c *model.Contest) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeContests) FindContestByID(_ context.Context, id string) (*model.Contest, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContests) ListContests(context.Context) ([]model.Contest, error) {
	var out []model.Contest
	for _, c := range f.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

type fakeProblems struct {
	problems  map[string]*model.Problem
	testCases map[string][]model.TestCase
	err       error
}

func newFakeProblems() *fakeProblems {
	return &fakeProblems{problems: map[string]*model.Problem{}, testCases: map[string][]model.TestCase{}}
}

func (f *fakeProblems) add(p *model.Problem, cases ...model.TestCase) {
	f.problems[p.ID] = p
	f.testCases[p.ID] = cases
}

func (f *fakeProblems) CreateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	f.problems[p.ID] = p
	return nil
}

func (f *fakeProblems) UpdateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	if _, ok := f.problems[p.ID]; !ok {
		return common.ErrNotFound
	}
	f.problems[p.ID] = p
	return nil
}

func (f *fakeProblems) FindProblemByID(_ context.Context, id string) (*model.Problem, error) {
	p, ok := f.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProblems) ListProblemsByContest(_ context.Context, contestID string) ([]model.Problem, error) {
	var out []model.Problem
	for _, p := range f.problems {
		if p.ContestID != nil && *p.ContestID == contestID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProblems) ListPracticeProblems(context.Context, time.Time) ([]model.Problem, error) {
	return nil, nil
}

func (f *fakeProblems) SetPracticeAvailability(_ context.Context, id string, available bool) error {
	p, ok := f.problems[id]
	if !ok {
		return common.ErrNotFound
	}
	p.IsPracticeAvailable = available
	return nil
}

func (f *fakeProblems) AddTestCasesToProblem(_ context.Context, _ *sql.Tx, id string, cases []model.TestCase) error {
	f.testCases[id] = append(f.testCases[id], cases...)
	return nil
}

func (f *fakeProblems) GetTestCasesByProblemID(_ context.Context, id string) ([]model.TestCase, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.testCases[id], nil
}

func (f *fakeProblems) DeleteTestCasesByProblemID(_ context.Context, _ *sql.Tx, id string) error {
	delete(f.testCases, id)
	return nil
}

func (f *fakeProblems) CreateProblemWithTestCases(ctx context.Context, p *model.Problem, cases []model.TestCase) error {
	f.problems[p.ID] = p
	f.testCases[p.ID] = cases
	return nil
}

func (f *fakeProblems) UpdateProblemWithTestCases(ctx context.Context, p *model.Problem, cases []model.TestCase) error {
	if f.err != nil {
		return f.err
	}
	f.problems[p.ID] = p
	f.testCases[p.ID] = cases
	return nil
}

type fakeSubmissions struct {
	mu    sync.Mutex
	rows  []model.Submission
	err   error
	clock func() time.Time
}

func (f *fakeSubmissions) CreateSubmission(_ context.Context, _ *sql.Tx, s *model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.clock != nil {
		s.SubmittedAt = f.clock()
	} else {
		s.SubmittedAt = time.Now()
	}
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeSubmissions) GetSubmissionByID(_ context.Context, id string) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeSubmissions) GetLastSubmission(_ context.Context, userID, problemID string) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID && f.rows[i].ProblemID == problemID {
			cp := f.rows[i]
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeSubmissions) ListAcceptedByContest(_ context.Context, contestID string, window *repository.TimeWindow) ([]model.AcceptedSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AcceptedSubmission
	for _, r := range f.rows {
		if r.ContestID == nil || *r.ContestID != contestID || r.Verdict != model.VerdictAccepted {
			continue
		}
		if window != nil && (r.SubmittedAt.Before(window.From) || r.SubmittedAt.After(window.To)) {
			continue
		}
		out = append(out, model.AcceptedSubmission{
			UserID: r.UserID, ProblemID: r.ProblemID, ExecutionTime: r.ExecutionTime, Memory: r.Memory,
			SubmittedAt: r.SubmittedAt, Profile: model.Profile{ID: r.UserID, FullName: r.UserID + " name", Department: "CSE"},
		})
	}
	return out, nil
}

func (f *fakeSubmissions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type monitoringKey struct{ user, contest string }

// fakeMonitoring mirrors the (user, contest) unique constraint.
type fakeMonitoring struct {
	mu   sync.Mutex
	rows map[monitoringKey]*model.MonitoringRecord
	err  error
}

func newFakeMonitoring() *fakeMonitoring {
	return &fakeMonitoring{rows: map[monitoringKey]*model.MonitoringRecord{}}
}

func (f *fakeMonitoring) upsert(userID, contestID string, at time.Time, mutate func(*model.MonitoringRecord)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	k := monitoringKey{userID, contestID}
	row, ok := f.rows[k]
	if !ok {
		row = &model.MonitoringRecord{UserID: userID, ContestID: contestID}
		f.rows[k] = row
	}
	mutate(row)
	t := at
	row.LastWarningAt = &t
	return nil
}

func (f *fakeMonitoring) IncrementTabSwitches(_ context.Context, userID, contestID string, at time.Time) error {
	return f.upsert(userID, contestID, at, func(r *model.MonitoringRecord) { r.TabSwitches++ })
}

func (f *fakeMonitoring) IncrementRunCount(_ context.Context, userID, contestID string, at time.Time) error {
	return f.upsert(userID, contestID, at, func(r *model.MonitoringRecord) { r.RunCount++ })
}

func (f *fakeMonitoring) MarkOpened(_ context.Context, userID, contestID string, at time.Time) error {
	return f.upsert(userID, contestID, at, func(r *model.MonitoringRecord) {
		if r.FirstOpenedAt == nil {
			t := at
			r.FirstOpenedAt = &t
		}
	})
}

func (f *fakeMonitoring) FindMonitoring(_ context.Context, userID, contestID string) (*model.MonitoringRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	row, ok := f.rows[monitoringKey{userID, contestID}]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeMonitoring) ListMonitoringByContest(_ context.Context, contestID string) ([]model.MonitoringRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MonitoringRecord
	for k, r := range f.rows {
		if k.contest == contestID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeProfiles map[string]model.Profile

func (f fakeProfiles) FindProfileByID(_ context.Context, id string) (*model.Profile, error) {
	p, ok := f[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

type fakeJudge struct {
	mu      sync.Mutex
	calls   int
	results []executor.Result
	once    *executor.Result
	err     error
}

func (f *fakeJudge) RunBatch(_ context.Context, _ int, _ string, jobs []executor.Job) ([]executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.results, f.err
}

func (f *fakeJudge) RunOnce(context.Context, int, string, string) (*executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.once, f.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	subs []model.Submission
}

func (f *fakeNotifier) SubmissionRecorded(_ context.Context, sub *model.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, *sub)
}

func ptr[T any](v T) *T {
	return &v
}
