package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// LessonRepository reads lesson rows.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListBySubject returns a subject's lessons ordered ascending by date, the
// order a journal table renders them in.
func (r *LessonRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error) {
	const query = `SELECT id, subject_id, name, date FROM lessons WHERE subject_id = $1 ORDER BY date ASC, id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, subjectID); err != nil {
		return nil, fmt.Errorf("list lessons for subject %s: %w", subjectID, err)
	}
	return lessons, nil
}
