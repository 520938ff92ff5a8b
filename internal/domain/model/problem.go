package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

func (d ProblemDifficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

type Problem struct {
	ID                  string            `json:"id"`
	ContestID           *string           `json:"contest_id,omitempty"` // nil means the practice collection
	Title               string            `json:"title"`
	Slug                string            `json:"slug"`
	Difficulty          ProblemDifficulty `json:"difficulty"`
	Description         string            `json:"description"`
	SampleInput         string            `json:"sample_input"`
	SampleOutput        string            `json:"sample_output"`
	Constraints         string            `json:"constraints"`
	IsPracticeAvailable bool              `json:"is_practice_available"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// TestCase is authoritative for judging and never shown to participants.
type TestCase struct {
	ID             string `json:"id"`
	ProblemID      string `json:"problem_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
	SortOrder      int    `json:"sort_order"`
}
