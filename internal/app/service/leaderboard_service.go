package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"

	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

type LeaderboardService struct {
	contestRepo    repository.ContestRepository
	submissionRepo repository.SubmissionRepository
	monitoringRepo repository.MonitoringRepository
	timeModel      string
	now            func() time.Time
}

func NewLeaderboardService(
	contestRepo repository.ContestRepository,
	submissionRepo repository.SubmissionRepository,
	monitoringRepo repository.MonitoringRepository,
	timeModel string,
) *LeaderboardService {
	return &LeaderboardService{
		contestRepo:    contestRepo,
		submissionRepo: submissionRepo,
		monitoringRepo: monitoringRepo,
		timeModel:      timeModel,
		now:            time.Now,
	}
}

// GetLeaderboard recomputes the contest ranking from stored submissions.
// With inWindow set, submissions outside [start, end] are ignored.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, contestID string, inWindow bool) (*model.Leaderboard, error) {
	contest, err := s.contestRepo.FindContestByID(ctx, contestID)
	if err != nil {
		return nil, err
	}

	var window *repository.TimeWindow
	if inWindow {
		window = &repository.TimeWindow{From: contest.StartTime, To: contest.EndTime}
	}

	var (
		subs       []model.AcceptedSubmission
		monitoring []model.MonitoringRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = s.submissionRepo.ListAcceptedByContest(gctx, contest.ID, window)
		return err
	})
	g.Go(func() error {
		var err error
		monitoring, err = s.monitoringRepo.ListMonitoringByContest(gctx, contest.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("LeaderboardService.GetLeaderboard: %w", err)
	}

	return &model.Leaderboard{
		ContestID:   contest.ID,
		ContestName: contest.Name,
		TimeModel:   s.timeModel,
		GeneratedAt: s.now(),
		Entries:     Aggregate(contest, subs, monitoring, s.timeModel),
	}, nil
}

// ExportCSV writes the leaderboard as CSV and returns the download file name.
func (s *LeaderboardService) ExportCSV(ctx context.Context, contestID string, inWindow bool, w io.Writer) (string, error) {
	board, err := s.GetLeaderboard(ctx, contestID, inWindow)
	if err != nil {
		return "", err
	}
	if err := WriteLeaderboardCSV(w, board.Entries); err != nil {
		return "", err
	}
	return ExportFilename(board.ContestName), nil
}

var csvHeader = []string{
	"Rank", "Name", "Roll No", "Department", "Year", "Score", "Penalty Time", "Best Execution Time (s)", "Best Memory (KB)",
}

func WriteLeaderboardCSV(w io.Writer, entries []model.LeaderboardEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		execTime := "N/A"
		if e.BestExecutionTime != nil {
			execTime = strconv.FormatFloat(*e.BestExecutionTime, 'f', 3, 64)
		}
		memory := "N/A"
		if e.BestMemory != nil {
			memory = strconv.Itoa(*e.BestMemory)
		}
		row := []string{
			strconv.Itoa(e.Rank), e.FullName, e.RollNo, e.Department, e.Year,
			strconv.Itoa(e.ProblemsSolved), e.Penalty, execTime, memory,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename derives a safe download name from the contest name.
func ExportFilename(contestName string) string {
	base := slug.Make(contestName)
	if base == "" {
		base = "contest"
	}
	return base + "_leaderboard.csv"
}
