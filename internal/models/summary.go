package models

import "time"

// QuarterGrade is one quarter's rollup within a subject summary. Every known
// quarter appears exactly once; quarters with no scores carry 0 / "F".
type QuarterGrade struct {
	QuarterID    string  `json:"quarter_id"`
	QuarterName  string  `json:"quarter_name"`
	AverageScore float64 `json:"average_score"`
	LetterGrade  string  `json:"letter_grade"`
}

// ScoredLesson is one individually scored lesson in chronological order.
type ScoredLesson struct {
	LessonID   string    `json:"lesson_id"`
	LessonName string    `json:"lesson_name"`
	Date       time.Time `json:"date"`
	QuarterID  string    `json:"quarter_id"`
	Score      float64   `json:"score"`
}

// SubjectGradeSummary is a student's per-subject rollup of quarterly
// averages, letter grades, scored lessons and attendance. ColorTag is a
// deterministic UI hint derived from the subject name, nothing more.
type SubjectGradeSummary struct {
	SubjectID   string            `json:"subject_id"`
	SubjectName string            `json:"subject_name"`
	TeacherName string            `json:"teacher_name"`
	ClassName   string            `json:"class_name"`
	ColorTag    string            `json:"color_tag"`
	Quarters    []QuarterGrade    `json:"quarters"`
	Lessons     []ScoredLesson    `json:"lessons"`
	Attendance  AttendanceSummary `json:"attendance"`
}
