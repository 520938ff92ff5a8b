package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/google/uuid"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	UpdateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	ListProblemsByContest(ctx context.Context, contestID string) ([]model.Problem, error)
	ListPracticeProblems(ctx context.Context, now time.Time) ([]model.Problem, error)
	SetPracticeAvailability(ctx context.Context, problemID string, available bool) error

	AddTestCasesToProblem(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error
	GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error)
	DeleteTestCasesByProblemID(ctx context.Context, tx *sql.Tx, problemID string) error

	// CreateProblemWithTestCases and UpdateProblemWithTestCases run in one
	// transaction, so a problem is never left without its test cases.
	CreateProblemWithTestCases(ctx context.Context, problem *model.Problem, testCases []model.TestCase) error
	UpdateProblemWithTestCases(ctx context.Context, problem *model.Problem, testCases []model.TestCase) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

const problemColumns = `id, contest_id, title, slug, difficulty, description, sample_input, sample_output,
	constraints, is_practice_available, created_at, updated_at`

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, contest_id, title, slug, difficulty, description, sample_input, sample_output, constraints, is_practice_available)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING created_at, updated_at`
	err := pick(r.db, tx).QueryRowContext(ctx, query,
		p.ID, p.ContestID, p.Title, p.Slug, p.Difficulty, p.Description, p.SampleInput, p.SampleOutput, p.Constraints, p.IsPracticeAvailable,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) UpdateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `UPDATE problems SET
                title = $1, slug = $2, difficulty = $3, description = $4, sample_input = $5,
                sample_output = $6, constraints = $7, updated_at = NOW()
              WHERE id = $8`
	res, err := pick(r.db, tx).ExecContext(ctx, query,
		p.Title, p.Slug, p.Difficulty, p.Description, p.SampleInput, p.SampleOutput, p.Constraints, p.ID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE id = $1`
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) ListProblemsByContest(ctx context.Context, contestID string) ([]model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE contest_id = $1 ORDER BY created_at, id`
	return r.listProblems(ctx, "ListProblemsByContest", query, contestID)
}

// ListPracticeProblems returns problems with no contest, plus flagged
// problems whose contest has ended.
func (r *pgProblemRepository) ListPracticeProblems(ctx context.Context, now time.Time) ([]model.Problem, error) {
	query := `SELECT p.id, p.contest_id, p.title, p.slug, p.difficulty, p.description, p.sample_input, p.sample_output,
	                 p.constraints, p.is_practice_available, p.created_at, p.updated_at
	          FROM problems p
	          LEFT JOIN contests c ON c.id = p.contest_id
	          WHERE p.contest_id IS NULL
	             OR (p.is_practice_available AND c.end_time <= $1)
	          ORDER BY p.created_at DESC, p.id`
	return r.listProblems(ctx, "ListPracticeProblems", query, now)
}

func (r *pgProblemRepository) SetPracticeAvailability(ctx context.Context, problemID string, available bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE problems SET is_practice_available = $1, updated_at = NOW() WHERE id = $2`, available, problemID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.SetPracticeAvailability: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) AddTestCasesToProblem(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error {
	if len(testCases) == 0 {
		return nil
	}
	stmt, err := pick(r.db, tx).PrepareContext(ctx,
		`INSERT INTO problem_test_cases (id, problem_id, input, expected_output, is_hidden, sort_order) VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.AddTestCasesToProblem prepare: %w", err)
	}
	defer stmt.Close()

	for i := range testCases {
		tc := &testCases[i]
		if tc.ID == "" {
			tc.ID = uuid.NewString()
		}
		tc.ProblemID = problemID
		tc.SortOrder = i
		if _, err := stmt.ExecContext(ctx, tc.ID, problemID, tc.Input, tc.ExpectedOutput, tc.IsHidden, tc.SortOrder); err != nil {
			return fmt.Errorf("pgProblemRepository.AddTestCasesToProblem exec: %w", err)
		}
	}
	return nil
}

func (r *pgProblemRepository) GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error) {
	query := `SELECT id, problem_id, input, expected_output, is_hidden, sort_order
	          FROM problem_test_cases WHERE problem_id = $1 ORDER BY sort_order, id`
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID: %w", err)
	}
	defer rows.Close()

	var cases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.IsHidden, &tc.SortOrder); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID scan: %w", err)
		}
		cases = append(cases, tc)
	}
	return cases, rows.Err()
}

func (r *pgProblemRepository) DeleteTestCasesByProblemID(ctx context.Context, tx *sql.Tx, problemID string) error {
	if _, err := pick(r.db, tx).ExecContext(ctx, `DELETE FROM problem_test_cases WHERE problem_id = $1`, problemID); err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteTestCasesByProblemID: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) CreateProblemWithTestCases(ctx context.Context, p *model.Problem, testCases []model.TestCase) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.CreateProblem(ctx, tx, p); err != nil {
			return err
		}
		return r.AddTestCasesToProblem(ctx, tx, p.ID, testCases)
	})
}

func (r *pgProblemRepository) UpdateProblemWithTestCases(ctx context.Context, p *model.Problem, testCases []model.TestCase) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.UpdateProblem(ctx, tx, p); err != nil {
			return err
		}
		if err := r.DeleteTestCasesByProblemID(ctx, tx, p.ID); err != nil {
			return err
		}
		return r.AddTestCasesToProblem(ctx, tx, p.ID, testCases)
	})
}

func (r *pgProblemRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgProblemRepository begin tx: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgProblemRepository commit: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) listProblems(ctx context.Context, op, query string, args ...interface{}) ([]model.Problem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.%s: %w", op, err)
	}
	defer rows.Close()

	var problems []model.Problem
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("pgProblemRepository.%s scan: %w", op, err)
		}
		problems = append(problems, *p)
	}
	return problems, rows.Err()
}

func scanProblem(row rowScanner) (*model.Problem, error) {
	p := &model.Problem{}
	err := row.Scan(&p.ID, &p.ContestID, &p.Title, &p.Slug, &p.Difficulty, &p.Description, &p.SampleInput,
		&p.SampleOutput, &p.Constraints, &p.IsPracticeAvailable, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
