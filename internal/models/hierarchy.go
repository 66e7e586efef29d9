package models

// GradeLevel represents one grade tier (e.g. "10") containing class sections.
// The count fields are derived on each resolve and never persisted.
type GradeLevel struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	ClassCount   int    `json:"class_count"`
	StudentCount int    `json:"student_count"`
	SubjectCount int    `json:"subject_count"`
}

// ClassSection is one roster group of students within a level.
type ClassSection struct {
	ID           string `db:"id" json:"id"`
	LevelID      string `db:"level_id" json:"level_id"`
	Name         string `db:"name" json:"name"`
	StudentCount int    `db:"student_count" json:"student_count"`
	SubjectCount *int   `json:"subject_count,omitempty"`
}

// Subject is a course taught within a class section.
type Subject struct {
	ID          string `db:"id" json:"id"`
	ClassID     string `db:"class_id" json:"class_id"`
	Name        string `db:"name" json:"name"`
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	LessonCount int    `db:"lesson_count" json:"lesson_count"`
}

// ClassFilter scopes class section queries.
type ClassFilter struct {
	LevelID   string
	TeacherID string
}
