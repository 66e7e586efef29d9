package models

import (
	"strings"
	"time"
)

// Lesson is one gradable unit within a subject. Lessons in a journal are
// always ordered ascending by Date.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Name      string    `db:"name" json:"name"`
	Date      time.Time `db:"date" json:"date"`
}

// Student is an enrolled student row.
type Student struct {
	ID        string `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	FullName  string `db:"-" json:"full_name"`
}

// DeriveFullName fills the FullName projection from the name parts. Every
// repository scan runs rows through this so the concatenation lives in one
// place.
func (s *Student) DeriveFullName() {
	s.FullName = strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// ScoreRecord is a single score cell. The (StudentID, LessonID, QuarterID)
// triple is the natural key; the write path upserts on it and never
// duplicates. A nil Score means the cell exists but carries no value;
// absence of the record entirely means "ungraded".
type ScoreRecord struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	LessonID  string    `db:"lesson_id" json:"lesson_id"`
	QuarterID string    `db:"quarter_id" json:"quarter_id"`
	Score     *float64  `db:"score" json:"score"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Quarter is a globally defined grading period, ordered by StartDate.
type Quarter struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}

// ScoreFilter scopes score queries. Empty ID slices are treated by the
// repositories as "match nothing", never forwarded as an empty IN clause.
type ScoreFilter struct {
	StudentIDs []string
	LessonIDs  []string
	QuarterID  string
}

// JournalTable is the student x lesson score matrix for one
// class+subject+quarter selection.
type JournalTable struct {
	ClassID   string        `json:"class_id"`
	SubjectID string        `json:"subject_id"`
	QuarterID string        `json:"quarter_id"`
	Students  []Student     `json:"students"`
	Lessons   []Lesson      `json:"lessons"`
	Scores    []ScoreRecord `json:"scores"`
}

// Empty reports whether the table carries no roster at all. A table with
// students but no scores is not empty; it renders as fully ungraded.
func (t *JournalTable) Empty() bool {
	return t == nil || (len(t.Students) == 0 && len(t.Lessons) == 0)
}

// Patch replaces the score entry matching the record's (student, lesson)
// pair, or appends it when absent. Quarter is fixed per table so the pair is
// unique within it.
func (t *JournalTable) Patch(record ScoreRecord) {
	for i := range t.Scores {
		if t.Scores[i].StudentID == record.StudentID && t.Scores[i].LessonID == record.LessonID {
			t.Scores[i] = record
			return
		}
	}
	t.Scores = append(t.Scores, record)
}

// Covers reports whether both the student and the lesson belong to this
// table. Every score in a table must reference a rostered student and a
// listed lesson, so callers check Covers before patching a record in.
func (t *JournalTable) Covers(studentID, lessonID string) bool {
	if t == nil {
		return false
	}
	var hasStudent, hasLesson bool
	for i := range t.Students {
		if t.Students[i].ID == studentID {
			hasStudent = true
			break
		}
	}
	for i := range t.Lessons {
		if t.Lessons[i].ID == lessonID {
			hasLesson = true
			break
		}
	}
	return hasStudent && hasLesson
}

// Pagination carries paging metadata in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
