package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	GetLastSubmission(ctx context.Context, userID, problemID string) (*model.Submission, error)
	// ListAcceptedByContest returns accepted submissions joined with profiles,
	// oldest first. A non-nil window keeps only submissions inside it.
	ListAcceptedByContest(ctx context.Context, contestID string, window *TimeWindow) ([]model.AcceptedSubmission, error)
}

// TimeWindow is an inclusive [From, To] range.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, user_id, problem_id, contest_id, code, language, language_id, verdict, execution_time, memory, submitted_at`

// CreateSubmission inserts sub and fills SubmittedAt from the database clock.
func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, contest_id, code, language, language_id, verdict, execution_time, memory)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING submitted_at`
	err := pick(r.db, tx).QueryRowContext(ctx, query,
		s.ID, s.UserID, s.ProblemID, s.ContestID, s.Code, s.Language, s.LanguageID, string(s.Verdict), s.ExecutionTime, s.Memory,
	).Scan(&s.SubmittedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) GetLastSubmission(ctx context.Context, userID, problemID string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE user_id = $1 AND problem_id = $2
	          ORDER BY submitted_at DESC LIMIT 1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, userID, problemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetLastSubmission: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) ListAcceptedByContest(ctx context.Context, contestID string, window *TimeWindow) ([]model.AcceptedSubmission, error) {
	query := `SELECT s.user_id, s.problem_id, s.execution_time, s.memory, s.submitted_at,
	                 COALESCE(p.full_name, ''), COALESCE(p.roll_no, ''), COALESCE(p.department, ''), COALESCE(p.year, '')
	          FROM submissions s
	          LEFT JOIN profiles p ON p.id = s.user_id
	          WHERE s.contest_id = $1 AND s.verdict = $2`
	args := []interface{}{contestID, string(model.VerdictAccepted)}
	if window != nil {
		query += ` AND s.submitted_at BETWEEN $3 AND $4`
		args = append(args, window.From, window.To)
	}
	query += ` ORDER BY s.submitted_at ASC, s.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListAcceptedByContest: %w", err)
	}
	defer rows.Close()

	var out []model.AcceptedSubmission
	for rows.Next() {
		var a model.AcceptedSubmission
		if err := rows.Scan(&a.UserID, &a.ProblemID, &a.ExecutionTime, &a.Memory, &a.SubmittedAt,
			&a.Profile.FullName, &a.Profile.RollNo, &a.Profile.Department, &a.Profile.Year); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListAcceptedByContest scan: %w", err)
		}
		a.Profile.ID = a.UserID
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	s := &model.Submission{}
	var verdict string
	err := row.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.ContestID, &s.Code, &s.Language, &s.LanguageID,
		&verdict, &s.ExecutionTime, &s.Memory, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	s.Verdict = model.Verdict(verdict)
	return s, nil
}
