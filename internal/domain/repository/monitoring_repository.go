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

// MonitoringRepository upserts contest_monitoring rows. Every write relies on
// the (user_id, contest_id) unique constraint, so concurrent first events
// still yield a single row.
type MonitoringRepository interface {
	IncrementTabSwitches(ctx context.Context, userID, contestID string, at time.Time) error
	IncrementRunCount(ctx context.Context, userID, contestID string, at time.Time) error
	MarkOpened(ctx context.Context, userID, contestID string, at time.Time) error
	FindMonitoring(ctx context.Context, userID, contestID string) (*model.MonitoringRecord, error)
	ListMonitoringByContest(ctx context.Context, contestID string) ([]model.MonitoringRecord, error)
}

type pgMonitoringRepository struct {
	db *sql.DB
}

func NewPgMonitoringRepository(db *sql.DB) MonitoringRepository {
	return &pgMonitoringRepository{db: db}
}

func (r *pgMonitoringRepository) IncrementTabSwitches(ctx context.Context, userID, contestID string, at time.Time) error {
	query := `INSERT INTO contest_monitoring (user_id, contest_id, tab_switches, run_count, last_warning_at)
	          VALUES ($1, $2, 1, 0, $3)
	          ON CONFLICT (user_id, contest_id) DO UPDATE
	          SET tab_switches = contest_monitoring.tab_switches + 1,
	              last_warning_at = EXCLUDED.last_warning_at`
	if _, err := r.db.ExecContext(ctx, query, userID, contestID, at); err != nil {
		return fmt.Errorf("pgMonitoringRepository.IncrementTabSwitches: %w", err)
	}
	return nil
}

func (r *pgMonitoringRepository) IncrementRunCount(ctx context.Context, userID, contestID string, at time.Time) error {
	query := `INSERT INTO contest_monitoring (user_id, contest_id, tab_switches, run_count, last_warning_at)
	          VALUES ($1, $2, 0, 1, $3)
	          ON CONFLICT (user_id, contest_id) DO UPDATE
	          SET run_count = contest_monitoring.run_count + 1,
	              last_warning_at = EXCLUDED.last_warning_at`
	if _, err := r.db.ExecContext(ctx, query, userID, contestID, at); err != nil {
		return fmt.Errorf("pgMonitoringRepository.IncrementRunCount: %w", err)
	}
	return nil
}

// MarkOpened sets first_opened_at only when it is still NULL.
func (r *pgMonitoringRepository) MarkOpened(ctx context.Context, userID, contestID string, at time.Time) error {
	query := `INSERT INTO contest_monitoring (user_id, contest_id, tab_switches, run_count, first_opened_at, last_warning_at)
	          VALUES ($1, $2, 0, 0, $3, $3)
	          ON CONFLICT (user_id, contest_id) DO UPDATE
	          SET first_opened_at = COALESCE(contest_monitoring.first_opened_at, EXCLUDED.first_opened_at),
	              last_warning_at = EXCLUDED.last_warning_at`
	if _, err := r.db.ExecContext(ctx, query, userID, contestID, at); err != nil {
		return fmt.Errorf("pgMonitoringRepository.MarkOpened: %w", err)
	}
	return nil
}

func (r *pgMonitoringRepository) FindMonitoring(ctx context.Context, userID, contestID string) (*model.MonitoringRecord, error) {
	query := `SELECT user_id, contest_id, tab_switches, run_count, first_opened_at, last_warning_at
	          FROM contest_monitoring WHERE user_id = $1 AND contest_id = $2`
	m, err := scanMonitoring(r.db.QueryRowContext(ctx, query, userID, contestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMonitoringRepository.FindMonitoring: %w", err)
	}
	return m, nil
}

func (r *pgMonitoringRepository) ListMonitoringByContest(ctx context.Context, contestID string) ([]model.MonitoringRecord, error) {
	query := `SELECT user_id, contest_id, tab_switches, run_count, first_opened_at, last_warning_at
	          FROM contest_monitoring WHERE contest_id = $1`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("pgMonitoringRepository.ListMonitoringByContest: %w", err)
	}
	defer rows.Close()

	var out []model.MonitoringRecord
	for rows.Next() {
		m, err := scanMonitoring(rows)
		if err != nil {
			return nil, fmt.Errorf("pgMonitoringRepository.ListMonitoringByContest scan: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMonitoring(row rowScanner) (*model.MonitoringRecord, error) {
	m := &model.MonitoringRecord{}
	if err := row.Scan(&m.UserID, &m.ContestID, &m.TabSwitches, &m.RunCount, &m.FirstOpenedAt, &m.LastWarningAt); err != nil {
		return nil, err
	}
	return m, nil
}
