package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// AttendanceRepository reads attendance events.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance records for a student across the given lessons.
// An empty lesson set short-circuits to an empty result.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	if len(filter.LessonIDs) == 0 {
		return []models.AttendanceRecord{}, nil
	}
	placeholders, args := inArgs(filter.LessonIDs, 1)
	args = append([]interface{}{filter.StudentID}, args...)
	query := fmt.Sprintf(`SELECT id, student_id, lesson_id, status
        FROM attendance WHERE student_id = $1 AND lesson_id IN (%s)`, placeholders)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance for student %s: %w", filter.StudentID, err)
	}
	return records, nil
}
