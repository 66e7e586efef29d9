package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// QuarterRepository reads the globally defined grading quarters.
type QuarterRepository struct {
	db *sqlx.DB
}

// NewQuarterRepository creates a new quarter repository.
func NewQuarterRepository(db *sqlx.DB) *QuarterRepository {
	return &QuarterRepository{db: db}
}

// ListAll returns every quarter ordered ascending by start date.
func (r *QuarterRepository) ListAll(ctx context.Context) ([]models.Quarter, error) {
	const query = `SELECT id, name, start_date, end_date FROM quarters ORDER BY start_date ASC`
	var quarters []models.Quarter
	if err := r.db.SelectContext(ctx, &quarters, query); err != nil {
		return nil, fmt.Errorf("list quarters: %w", err)
	}
	return quarters, nil
}
