package model

import (
	"fmt"
	"time"
)

type LeaderboardEntry struct {
	Rank              int        `json:"rank"`
	UserID            string     `json:"user_id"`
	FullName          string     `json:"full_name"`
	RollNo            string     `json:"roll_no"`
	Department        string     `json:"department"`
	Year              string     `json:"year"`
	ProblemsSolved    int        `json:"problems_solved"`
	PenaltySeconds    int64      `json:"penalty_seconds"`
	Penalty           string     `json:"penalty"`
	BestExecutionTime *float64   `json:"best_execution_time,omitempty"`
	BestMemory        *int       `json:"best_memory,omitempty"`
	ExecutionTime     string     `json:"execution_time"` // display form of BestExecutionTime
	Memory            string     `json:"memory"`         // display form of BestMemory
	TabSwitches       int        `json:"tab_switches"`
	Disqualified      bool       `json:"disqualified"`
	LastAcceptedAt    time.Time  `json:"last_accepted_at"`
	FirstOpenedAt     *time.Time `json:"first_opened_at,omitempty"`
}

type Leaderboard struct {
	ContestID   string             `json:"contest_id"`
	ContestName string             `json:"contest_name"`
	TimeModel   string             `json:"time_model"`
	GeneratedAt time.Time          `json:"generated_at"`
	Entries     []LeaderboardEntry `json:"entries"`
}

// FormatPenalty renders a duration as HH:MM:SS. Negative values clamp to zero.
func FormatPenalty(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func (e LeaderboardEntry) ExecutionTimeLabel() string {
	if e.BestExecutionTime == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.3fs", *e.BestExecutionTime)
}

func (e LeaderboardEntry) MemoryLabel() string {
	if e.BestMemory == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d KB", *e.BestMemory)
}
