package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"contest_arena/internal/app/executor"
	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitFixture struct {
	svc         *SubmissionService
	problems    *fakeProblems
	submissions *fakeSubmissions
	monitoring  *fakeMonitoring
	judge       *fakeJudge
	notifier    *fakeNotifier
	proctor     *ProctorService
}

func newSubmitFixture() *submitFixture {
	now := contestStart.Add(30 * time.Minute)
	f := &submitFixture{
		problems:    newFakeProblems(),
		submissions: &fakeSubmissions{clock: func() time.Time { return now }},
		monitoring:  newFakeMonitoring(),
		judge:       &fakeJudge{},
		notifier:    &fakeNotifier{},
	}
	f.problems.add(&model.Problem{ID: "p1", ContestID: ptr("c1"), Title: "Sum"},
		model.TestCase{Input: "1 2", ExpectedOutput: "3"},
		model.TestCase{Input: "2 2", ExpectedOutput: "4"},
	)
	f.problems.add(&model.Problem{ID: "free", Title: "Warmup"},
		model.TestCase{Input: "", ExpectedOutput: "hi"},
	)

	guard := NewEligibilityGuard(newFakeContests(testContest("c1", model.StreamAll)), f.monitoring, fakeProfiles{})
	guard.now = func() time.Time { return now }
	f.proctor = NewProctorService(f.monitoring, time.Second)
	f.svc = NewSubmissionService(f.submissions, f.problems, guard, f.judge, f.notifier, f.proctor)
	return f
}

func accepted(seconds float64, kb int) executor.Result {
	return executor.Result{StatusID: 3, Description: "Accepted", Outcome: model.OutcomeAccepted, Time: &seconds, Memory: &kb}
}

var alice = model.Principal{UserID: "alice", Role: model.RoleUser}

func contestSubmission() CreateSubmissionRequest {
	return CreateSubmissionRequest{ProblemID: "p1", ContestID: ptr("c1"), Code: "print(sum(map(int, input().split())))", Language: "Python"}
}

func TestSubmitAcceptedIsStoredAndAnnounced(t *testing.T) {
	f := newSubmitFixture()
	f.judge.results = []executor.Result{accepted(0.12, 3000), accepted(0.2, 2800)}

	res := f.svc.Submit(context.Background(), alice, contestSubmission())

	require.NoError(t, res.Failure)
	assert.Equal(t, model.VerdictAccepted, res.Verdict)
	require.NotNil(t, res.Submission)
	assert.Equal(t, "python", res.Submission.Language)
	assert.Equal(t, 71, res.Submission.LanguageID)
	assert.InDelta(t, 0.2, *res.Submission.ExecutionTime, 1e-9)
	assert.Equal(t, 3000, *res.Submission.Memory)
	assert.Equal(t, 1, f.submissions.count())
	require.Len(t, f.notifier.subs, 1)
	assert.Equal(t, res.Submission.ID, f.notifier.subs[0].ID)
}

func TestSubmitWrongAnswerIsStored(t *testing.T) {
	f := newSubmitFixture()
	wrong := accepted(0.1, 100)
	wrong.StatusID, wrong.Description, wrong.Outcome = 4, "Wrong Answer", model.OutcomeWrongAnswer
	f.judge.results = []executor.Result{accepted(0.1, 100), wrong}

	res := f.svc.Submit(context.Background(), alice, contestSubmission())

	require.NoError(t, res.Failure)
	assert.Equal(t, model.VerdictWrongAnswer, res.Verdict)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, 1, f.submissions.count())
}

func TestSubmitDisqualifiedStoresNothing(t *testing.T) {
	f := newSubmitFixture()
	for i := 0; i < 3; i++ {
		f.proctor.LogTabSwitch(context.Background(), alice, "c1")
	}

	res := f.svc.Submit(context.Background(), alice, contestSubmission())

	assert.ErrorIs(t, res.Failure, common.ErrDisqualified)
	assert.Contains(t, res.Error, "disqualified")
	assert.Zero(t, f.judge.calls)
	assert.Zero(t, f.submissions.count())
	assert.Empty(t, f.notifier.subs)
}

func TestSubmitValidation(t *testing.T) {
	f := newSubmitFixture()

	req := contestSubmission()
	req.Language = "brainfuck"
	res := f.svc.Submit(context.Background(), alice, req)
	assert.ErrorIs(t, res.Failure, common.ErrValidation)

	req = contestSubmission()
	req.Code = "   "
	res = f.svc.Submit(context.Background(), alice, req)
	assert.ErrorIs(t, res.Failure, common.ErrValidation)

	req = contestSubmission()
	req.ProblemID = "missing"
	res = f.svc.Submit(context.Background(), alice, req)
	assert.ErrorIs(t, res.Failure, common.ErrNotFound)

	assert.Zero(t, f.judge.calls)
	assert.Zero(t, f.submissions.count())
}

func TestSubmitWithoutTestCasesFails(t *testing.T) {
	f := newSubmitFixture()
	f.problems.testCases["p1"] = nil

	res := f.svc.Submit(context.Background(), alice, contestSubmission())

	assert.ErrorIs(t, res.Failure, common.ErrNoTestCases)
	assert.Zero(t, f.judge.calls)
	assert.Zero(t, f.submissions.count())
}

func TestSubmitJudgeFailureStoresNothing(t *testing.T) {
	f := newSubmitFixture()
	f.judge.err = errors.New("judge returned 500")

	res := f.svc.Submit(context.Background(), alice, contestSubmission())

	assert.ErrorIs(t, res.Failure, common.ErrJudgeFailed)
	assert.Equal(t, common.ErrJudgeFailed.Error(), res.Error)
	assert.Zero(t, f.submissions.count())
	assert.Empty(t, f.notifier.subs)
}

func TestSubmitJudgeBusyStoresNothing(t *testing.T) {
	f := newSubmitFixture()
	f.judge.err = common.ErrJudgeBusy

	res := f.svc.Submit(context.Background(), alice, contestSubmission())

	assert.ErrorIs(t, res.Failure, common.ErrJudgeBusy)
	assert.Zero(t, f.submissions.count())
}

func TestSubmitJudgingTimeoutIsStored(t *testing.T) {
	f := newSubmitFixture()
	f.judge.results = []executor.Result{accepted(0.1, 100), {StatusID: 2, Description: "Processing", Outcome: model.OutcomePending}}
	f.judge.err = executor.ErrJudgingTimedOut

	res := f.svc.Submit(context.Background(), alice, contestSubmission())

	require.NoError(t, res.Failure)
	assert.Equal(t, model.VerdictJudgingTimedOut, res.Verdict)
	assert.Equal(t, 1, f.submissions.count())
}

func TestSubmitPersistenceFailure(t *testing.T) {
	f := newSubmitFixture()
	f.judge.results = []executor.Result{accepted(0.1, 100), accepted(0.1, 100)}
	f.submissions.err = errors.New("insert failed")

	res := f.svc.Submit(context.Background(), alice, contestSubmission())

	assert.ErrorIs(t, res.Failure, common.ErrSubmissionNotSaved)
	assert.Contains(t, res.Error, "resubmit")
	assert.Empty(t, f.notifier.subs)
}

func TestSubmitPracticeLockedWhileContestLive(t *testing.T) {
	f := newSubmitFixture()
	req := contestSubmission()
	req.ContestID = ptr("")

	res := f.svc.Submit(context.Background(), alice, req)

	assert.ErrorIs(t, res.Failure, common.ErrContestLive)
	assert.Zero(t, f.submissions.count())
}

func TestSubmitStandalonePractice(t *testing.T) {
	f := newSubmitFixture()
	f.judge.results = []executor.Result{accepted(0.01, 64)}

	res := f.svc.Submit(context.Background(), alice, CreateSubmissionRequest{ProblemID: "free", Code: "print('hi')", Language: "python"})

	require.NoError(t, res.Failure)
	assert.Nil(t, res.Submission.ContestID)
	assert.Equal(t, 1, f.submissions.count())
}

func TestRunCodeCountsContestRuns(t *testing.T) {
	f := newSubmitFixture()
	out := accepted(0.02, 512)
	out.Stdout = "3\n"
	f.judge.once = &out

	res, err := f.svc.RunCode(context.Background(), alice, RunCodeRequest{ContestID: ptr("c1"), Code: "x", Language: "cpp", Stdin: "1 2"})
	require.NoError(t, err)
	f.proctor.Wait()

	assert.Equal(t, model.VerdictAccepted, res.Verdict)
	assert.Equal(t, "3\n", res.Output)
	record, err := f.monitoring.FindMonitoring(context.Background(), "alice", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, record.RunCount)
	assert.Nil(t, record.FirstOpenedAt)
	assert.Zero(t, f.submissions.count())
}

func TestRunCodeReportsCompileError(t *testing.T) {
	f := newSubmitFixture()
	out := executor.Result{StatusID: 6, Description: "Compilation Error", Outcome: model.OutcomeCompileError, CompileOutput: "error: expected ';'"}
	f.judge.once = &out

	res, err := f.svc.RunCode(context.Background(), alice, RunCodeRequest{Code: "int main(){}", Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictCompilationError, res.Verdict)
	assert.Equal(t, "error: expected ';'", res.Error)
	assert.Empty(t, res.Output)
}

func TestRunCodeJudgeFailure(t *testing.T) {
	f := newSubmitFixture()
	f.judge.err = errors.New("dial tcp: refused")

	res, err := f.svc.RunCode(context.Background(), alice, RunCodeRequest{Code: "x", Language: "java"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictSystemError, res.Verdict)
	assert.Equal(t, "Failed to execute code.", res.Error)
}

func TestGetSubmissionOwnership(t *testing.T) {
	f := newSubmitFixture()
	f.judge.results = []executor.Result{accepted(0.1, 100), accepted(0.1, 100)}
	res := f.svc.Submit(context.Background(), alice, contestSubmission())
	require.NoError(t, res.Failure)

	got, err := f.svc.GetSubmission(context.Background(), alice, res.Submission.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Submission.ID, got.ID)

	_, err = f.svc.GetSubmission(context.Background(), model.Principal{UserID: "bob"}, res.Submission.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.GetSubmission(context.Background(), model.Principal{UserID: "root", Role: model.RoleAdmin}, res.Submission.ID)
	assert.NoError(t, err)

	last, err := f.svc.LastSubmission(context.Background(), alice, "p1")
	require.NoError(t, err)
	assert.Equal(t, res.Submission.ID, last.ID)
}
