package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
)

// ProfileRepository reads the identity provider's profile projection.
type ProfileRepository interface {
	FindProfileByID(ctx context.Context, id string) (*model.Profile, error)
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

func (r *pgProfileRepository) FindProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `SELECT id, full_name, roll_no, department, year, created_at FROM profiles WHERE id = $1`
	p := &model.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.FullName, &p.RollNo, &p.Department, &p.Year, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindProfileByID: %w", err)
	}
	return p, nil
}
