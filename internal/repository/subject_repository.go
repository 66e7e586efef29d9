package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// SubjectRepository reads subject rows with derived lesson counts.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectSelect = `SELECT s.id, s.class_id, s.name, s.teacher_id,
        COUNT(l.id) AS lesson_count
        FROM subjects s
        LEFT JOIN lessons l ON l.subject_id = s.id`

// ListByClass returns the subjects linked to a class, each with its lesson
// count.
func (r *SubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	query := subjectSelect + ` WHERE s.class_id = $1 GROUP BY s.id, s.class_id, s.name, s.teacher_id ORDER BY s.name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, classID); err != nil {
		return nil, fmt.Errorf("list subjects for class %s: %w", classID, err)
	}
	return subjects, nil
}

// ListByClasses returns subjects across multiple classes in one query.
func (r *SubjectRepository) ListByClasses(ctx context.Context, classIDs []string) ([]models.Subject, error) {
	if len(classIDs) == 0 {
		return []models.Subject{}, nil
	}
	placeholders, args := inArgs(classIDs, 0)
	query := subjectSelect + fmt.Sprintf(` WHERE s.class_id IN (%s) GROUP BY s.id, s.class_id, s.name, s.teacher_id ORDER BY s.name`, placeholders)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects for classes: %w", err)
	}
	return subjects, nil
}

// FindByID returns one subject or sql.ErrNoRows.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := subjectSelect + ` WHERE s.id = $1 GROUP BY s.id, s.class_id, s.name, s.teacher_id`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, fmt.Errorf("find subject %s: %w", id, err)
	}
	return &subject, nil
}

// TeacherName resolves the display name of the teacher owning a subject.
// Returns an empty string without error when no teacher row exists; the
// summary view renders context labels best-effort.
func (r *SubjectRepository) TeacherName(ctx context.Context, subjectID string) (string, error) {
	const query = `SELECT TRIM(t.first_name || ' ' || t.last_name)
        FROM teachers t JOIN subjects s ON s.teacher_id = t.id
        WHERE s.id = $1`
	var name string
	if err := r.db.GetContext(ctx, &name, query, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("teacher name for subject %s: %w", subjectID, err)
	}
	return name, nil
}
