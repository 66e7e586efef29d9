package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// StudentRepository reads enrolled student rows.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByClass returns the students enrolled in a class, ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.first_name, s.last_name
        FROM students s JOIN enrollments e ON e.student_id = s.id
        WHERE e.class_id = $1
        ORDER BY s.last_name, s.first_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students for class %s: %w", classID, err)
	}
	for i := range students {
		students[i].DeriveFullName()
	}
	return students, nil
}

// CountByLevel returns enrolled student counts keyed by level id for the
// given levels. Used by the admin count enrichment.
func (r *StudentRepository) CountByLevel(ctx context.Context, levelIDs []string) (map[string]int, error) {
	if len(levelIDs) == 0 {
		return map[string]int{}, nil
	}
	placeholders, args := inArgs(levelIDs, 0)
	query := fmt.Sprintf(`SELECT c.level_id, COUNT(DISTINCT e.student_id) AS n
        FROM classes c JOIN enrollments e ON e.class_id = c.id
        WHERE c.level_id IN (%s)
        GROUP BY c.level_id`, placeholders)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count students by level: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int, len(levelIDs))
	for rows.Next() {
		var levelID string
		var n int
		if err := rows.Scan(&levelID, &n); err != nil {
			return nil, fmt.Errorf("scan level count: %w", err)
		}
		counts[levelID] = n
	}
	return counts, nil
}

// HasGuardian reports whether the parent account is linked to the student.
// Parent tokens carry the parent's own id, so reads on behalf of a child go
// through this link.
func (r *StudentRepository) HasGuardian(ctx context.Context, studentID, parentID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM guardians WHERE student_id = $1 AND parent_id = $2)`
	var linked bool
	if err := r.db.GetContext(ctx, &linked, query, studentID, parentID); err != nil {
		return false, fmt.Errorf("guardian link for student %s: %w", studentID, err)
	}
	return linked, nil
}
