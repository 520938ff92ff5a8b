package repository

import (
	"context"
	"regexp"
	"testing"

	"contest_arena/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProblemWithTestCasesCommits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	p := &model.Problem{ID: "p-1", Title: "Sum", Slug: "sum", Difficulty: model.DifficultyEasy}
	cases := []model.TestCase{
		{Input: "1 2", ExpectedOutput: "3", IsHidden: true},
		{Input: "2 2", ExpectedOutput: "4", IsHidden: true},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE problems SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM problem_test_cases")).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 3))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO problem_test_cases"))
	prep.ExpectExec().WithArgs(sqlmock.AnyArg(), "p-1", "1 2", "3", true, 0).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(sqlmock.AnyArg(), "p-1", "2 2", "4", true, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateProblemWithTestCases(context.Background(), p, cases))
	assert.NotEmpty(t, cases[0].ID)
	assert.Equal(t, "p-1", cases[1].ProblemID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProblemWithTestCasesRollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	p := &model.Problem{ID: "p-1", Title: "Sum", Slug: "sum", Difficulty: model.DifficultyEasy}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE problems SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM problem_test_cases")).WillReturnResult(sqlmock.NewResult(0, 3))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO problem_test_cases"))
	prep.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.UpdateProblemWithTestCases(context.Background(), p, []model.TestCase{{Input: "1", ExpectedOutput: "1"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPracticeAvailabilityMissingProblem(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE problems SET is_practice_available")).
		WithArgs(true, "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPracticeAvailability(context.Background(), "nope", true)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
