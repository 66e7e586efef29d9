package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// LevelRepository reads grade level rows.
type LevelRepository struct {
	db *sqlx.DB
}

// NewLevelRepository creates a new level repository.
func NewLevelRepository(db *sqlx.DB) *LevelRepository {
	return &LevelRepository{db: db}
}

// ListAll returns every level ordered by name.
func (r *LevelRepository) ListAll(ctx context.Context) ([]models.GradeLevel, error) {
	const query = `SELECT id, name FROM levels ORDER BY name`
	var levels []models.GradeLevel
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return levels, nil
}

// ListByIDs returns the levels matching the given ids, ordered by name.
func (r *LevelRepository) ListByIDs(ctx context.Context, ids []string) ([]models.GradeLevel, error) {
	if len(ids) == 0 {
		return []models.GradeLevel{}, nil
	}
	placeholders, args := inArgs(ids, 0)
	query := fmt.Sprintf(`SELECT id, name FROM levels WHERE id IN (%s) ORDER BY name`, placeholders)
	var levels []models.GradeLevel
	if err := r.db.SelectContext(ctx, &levels, query, args...); err != nil {
		return nil, fmt.Errorf("list levels by ids: %w", err)
	}
	return levels, nil
}
