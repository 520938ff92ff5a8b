package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestSubmissionRoundTrip(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)
	ctx := context.Background()

	execTime := 0.5
	memory := 3412
	contestID := "c-1"
	submittedAt := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	sub := &model.Submission{
		ID:            "s-1",
		UserID:        "u-1",
		ProblemID:     "p-1",
		ContestID:     &contestID,
		Code:          "print(1)",
		Language:      "python",
		LanguageID:    71,
		Verdict:       model.VerdictTimeLimitExceeded,
		ExecutionTime: &execTime,
		Memory:        &memory,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs(sub.ID, sub.UserID, sub.ProblemID, contestID, sub.Code, sub.Language, sub.LanguageID,
			"Time Limit Exceeded", execTime, memory).
		WillReturnRows(sqlmock.NewRows([]string{"submitted_at"}).AddRow(submittedAt))

	require.NoError(t, repo.CreateSubmission(ctx, nil, sub))
	assert.Equal(t, submittedAt, sub.SubmittedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions WHERE id = $1")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "problem_id", "contest_id", "code", "language", "language_id", "verdict", "execution_time", "memory", "submitted_at",
		}).AddRow("s-1", "u-1", "p-1", contestID, "print(1)", "python", 71, "Time Limit Exceeded", execTime, memory, submittedAt))

	got, err := repo.GetSubmissionByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, sub, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubmissionByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSubmissionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListAcceptedByContestWindow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	window := &TimeWindow{From: start, To: end}

	mock.ExpectQuery(regexp.QuoteMeta("s.submitted_at BETWEEN $3 AND $4")).
		WithArgs("c-1", "Accepted", start, end).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "problem_id", "execution_time", "memory", "submitted_at", "full_name", "roll_no", "department", "year",
		}).
			AddRow("u-1", "p-1", 0.12, 1024, start.Add(10*time.Minute), "Ada", "21CS001", "CSE", "3").
			AddRow("u-2", "p-1", nil, nil, start.Add(20*time.Minute), "", "", "", ""))

	subs, err := repo.ListAcceptedByContest(context.Background(), "c-1", window)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Ada", subs[0].Profile.FullName)
	assert.Equal(t, "u-1", subs[0].Profile.ID)
	require.NotNil(t, subs[0].ExecutionTime)
	assert.InDelta(t, 0.12, *subs[0].ExecutionTime, 1e-9)
	assert.Nil(t, subs[1].ExecutionTime)
	assert.Nil(t, subs[1].Memory)
	require.NoError(t, mock.ExpectationsWereMet())
}
