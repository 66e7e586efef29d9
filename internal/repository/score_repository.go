package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ScoreRepository persists score cells. The (student_id, lesson_id,
// quarter_id) triple is the natural key; writes upsert on it.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// List returns score records matching the filter intersection. Empty id
// slices short-circuit to an empty result; an empty IN filter is ambiguous
// across backends and never issued.
func (r *ScoreRepository) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreRecord, error) {
	if len(filter.StudentIDs) == 0 || len(filter.LessonIDs) == 0 {
		return []models.ScoreRecord{}, nil
	}
	studentIn, args := inArgs(filter.StudentIDs, 0)
	lessonIn, lessonArgs := inArgs(filter.LessonIDs, len(args))
	args = append(args, lessonArgs...)
	query := fmt.Sprintf(`SELECT id, student_id, lesson_id, quarter_id, score, updated_at
        FROM scores WHERE student_id IN (%s) AND lesson_id IN (%s)`, studentIn, lessonIn)
	if filter.QuarterID != "" {
		args = append(args, filter.QuarterID)
		query += fmt.Sprintf(` AND quarter_id = $%d`, len(args))
	}
	var scores []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// ListForStudent returns one student's scores across the given lessons,
// spanning all quarters. The summary builder partitions them by quarter.
func (r *ScoreRepository) ListForStudent(ctx context.Context, studentID string, lessonIDs []string) ([]models.ScoreRecord, error) {
	if len(lessonIDs) == 0 {
		return []models.ScoreRecord{}, nil
	}
	placeholders, args := inArgs(lessonIDs, 1)
	args = append([]interface{}{studentID}, args...)
	query := fmt.Sprintf(`SELECT id, student_id, lesson_id, quarter_id, score, updated_at
        FROM scores WHERE student_id = $1 AND lesson_id IN (%s)`, placeholders)
	var scores []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list scores for student %s: %w", studentID, err)
	}
	return scores, nil
}

// Upsert inserts or overwrites the score cell for the natural key and
// returns the stored record. Calling it twice with the same key never
// produces a duplicate row. On the overwrite path the database keeps the
// row's original id, so the record's ID is refreshed from RETURNING.
func (r *ScoreRepository) Upsert(ctx context.Context, record *models.ScoreRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO scores (id, student_id, lesson_id, quarter_id, score, updated_at)
        VALUES (:id, :student_id, :lesson_id, :quarter_id, :score, :updated_at)
        ON CONFLICT (student_id, lesson_id, quarter_id)
        DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
        RETURNING id`
	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	defer stmt.Close()
	if err := stmt.GetContext(ctx, &record.ID, record); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}
