package model

import "time"

// Submission is immutable once stored.
type Submission struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ProblemID     string    `json:"problem_id"`
	ContestID     *string   `json:"contest_id,omitempty"`
	Code          string    `json:"code"`
	Language      string    `json:"language"`
	LanguageID    int       `json:"language_id"`
	Verdict       Verdict   `json:"verdict"`
	ExecutionTime *float64  `json:"execution_time,omitempty"` // seconds, max over test cases
	Memory        *int      `json:"memory,omitempty"`         // KB, max over test cases
	SubmittedAt   time.Time `json:"submitted_at"`
}

// AcceptedSubmission is an accepted submission joined with the submitter's
// profile, the row shape the leaderboard reduces over.
type AcceptedSubmission struct {
	UserID        string
	ProblemID     string
	ExecutionTime *float64
	Memory        *int
	SubmittedAt   time.Time
	Profile       Profile
}
