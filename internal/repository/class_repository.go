package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ClassRepository reads class section rows with derived student counts.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classSelect = `SELECT c.id, c.level_id, c.name,
        COUNT(DISTINCT e.student_id) AS student_count
        FROM classes c
        LEFT JOIN enrollments e ON e.class_id = c.id`

// List returns class sections matching the filter. A teacher id restricts
// the result to sections the teacher has a subject in; a level id restricts
// to that level. Both may combine.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSection, error) {
	query := classSelect
	var args []interface{}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		query += fmt.Sprintf(` JOIN subjects sub ON sub.class_id = c.id AND sub.teacher_id = $%d`, len(args))
	}
	query += ` WHERE 1=1`
	if filter.LevelID != "" {
		args = append(args, filter.LevelID)
		query += fmt.Sprintf(` AND c.level_id = $%d`, len(args))
	}
	query += ` GROUP BY c.id, c.level_id, c.name ORDER BY c.name`
	var classes []models.ClassSection
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID returns one class section or sql.ErrNoRows.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	query := classSelect + ` WHERE c.id = $1 GROUP BY c.id, c.level_id, c.name`
	var class models.ClassSection
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, fmt.Errorf("find class %s: %w", id, err)
	}
	return &class, nil
}

// ListForStudent returns the class sections the student is enrolled in.
func (r *ClassRepository) ListForStudent(ctx context.Context, studentID string) ([]models.ClassSection, error) {
	query := classSelect + ` JOIN enrollments own ON own.class_id = c.id AND own.student_id = $1
        GROUP BY c.id, c.level_id, c.name ORDER BY c.name`
	var classes []models.ClassSection
	if err := r.db.SelectContext(ctx, &classes, query, studentID); err != nil {
		return nil, fmt.Errorf("list classes for student %s: %w", studentID, err)
	}
	return classes, nil
}
