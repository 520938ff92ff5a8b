package service

import (
	"context"
	"testing"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = model.Principal{UserID: "root", Role: model.RoleAdmin}

func TestCreateContest(t *testing.T) {
	repo := newFakeContests()
	svc := NewContestService(repo)
	svc.now = func() time.Time { return contestStart.Add(-time.Hour) }

	view, err := svc.CreateContest(context.Background(), admin, CreateContestRequest{
		Name:      "  Spring Cup ",
		StartTime: contestStart,
		EndTime:   contestStart.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Spring Cup", view.Name)
	assert.Equal(t, model.StreamAll, view.Stream)
	assert.Equal(t, model.ContestUpcoming, view.Status)
	assert.Regexp(t, `^spring-cup-[0-9a-f]{8}$`, view.Slug)
	assert.Equal(t, "root", *view.CreatedByID)
	assert.Contains(t, repo.byID, view.ID)
}

func TestCreateContestRejects(t *testing.T) {
	svc := NewContestService(newFakeContests())
	valid := CreateContestRequest{Name: "Cup", StartTime: contestStart, EndTime: contestStart.Add(time.Hour), Stream: "2"}

	_, err := svc.CreateContest(context.Background(), alice, valid)
	assert.ErrorIs(t, err, common.ErrForbidden)

	bad := valid
	bad.EndTime = contestStart
	_, err = svc.CreateContest(context.Background(), admin, bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	bad = valid
	bad.Stream = "7"
	_, err = svc.CreateContest(context.Background(), admin, bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	bad = valid
	bad.Name = ""
	_, err = svc.CreateContest(context.Background(), admin, bad)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestListContestsResolvesStatus(t *testing.T) {
	past := testContest("old", model.StreamAll)
	past.StartTime, past.EndTime = contestStart.Add(-48*time.Hour), contestStart.Add(-47*time.Hour)
	svc := NewContestService(newFakeContests(testContest("c1", model.StreamAll), past))
	svc.now = func() time.Time { return contestStart.Add(time.Minute) }

	views, err := svc.ListContests(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, model.ContestActive, views[0].Status)
	assert.Equal(t, model.ContestFinished, views[1].Status)

	_, err = svc.GetContest(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
