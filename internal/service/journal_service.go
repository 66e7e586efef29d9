package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type lessonReader interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error)
}

type rosterReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type scoreStore interface {
	List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreRecord, error)
	ListForStudent(ctx context.Context, studentID string, lessonIDs []string) ([]models.ScoreRecord, error)
	Upsert(ctx context.Context, record *models.ScoreRecord) error
}

type quarterReader interface {
	ListAll(ctx context.Context) ([]models.Quarter, error)
}

// WriteScoreRequest is a single score cell write. Score may be null to clear
// a cell's value; range checking belongs to the caller, not the engine.
type WriteScoreRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	LessonID  string   `json:"lesson_id" validate:"required"`
	QuarterID string   `json:"quarter_id" validate:"required"`
	Score     *float64 `json:"score"`
}

// JournalService loads lessons, rosters and scores for one (class, subject)
// scope and composes them into journal tables. It is also the score write
// path.
type JournalService struct {
	lessons   lessonReader
	students  rosterReader
	scores    scoreStore
	quarters  quarterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewJournalService constructs a JournalService.
func NewJournalService(lessons lessonReader, students rosterReader, scores scoreStore, quarters quarterReader, validate *validator.Validate, logger *zap.Logger) *JournalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalService{lessons: lessons, students: students, scores: scores, quarters: quarters, validator: validate, logger: logger}
}

// Lessons returns a subject's lessons in date order.
func (s *JournalService) Lessons(ctx context.Context, subjectID string) ([]models.Lesson, error) {
	lessons, err := s.lessons.ListBySubject(ctx, subjectID)
	if err != nil {
		return []models.Lesson{}, storeError(err, "failed to load lessons")
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return lessons, nil
}

// Students returns the class roster.
func (s *JournalService) Students(ctx context.Context, classID string) ([]models.Student, error) {
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return []models.Student{}, storeError(err, "failed to load roster")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Quarters returns the global quarter list ordered by start date.
func (s *JournalService) Quarters(ctx context.Context) ([]models.Quarter, error) {
	quarters, err := s.quarters.ListAll(ctx)
	if err != nil {
		return []models.Quarter{}, storeError(err, "failed to load quarters")
	}
	if quarters == nil {
		quarters = []models.Quarter{}
	}
	return quarters, nil
}

// BuildJournal resolves lessons, then roster, then the scores filtered to
// exactly those ids and the one quarter. The steps are sequential because
// each depends on ids from the previous one.
func (s *JournalService) BuildJournal(ctx context.Context, classID, subjectID, quarterID string) (*models.JournalTable, error) {
	if classID == "" || subjectID == "" || quarterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class, subject and quarter are required")
	}

	lessons, err := s.Lessons(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	students, err := s.Students(ctx, classID)
	if err != nil {
		return nil, err
	}

	table := &models.JournalTable{
		ClassID:   classID,
		SubjectID: subjectID,
		QuarterID: quarterID,
		Students:  students,
		Lessons:   lessons,
		Scores:    []models.ScoreRecord{},
	}

	studentIDs := make([]string, len(students))
	for i, student := range students {
		studentIDs[i] = student.ID
	}
	lessonIDs := make([]string, len(lessons))
	for i, lesson := range lessons {
		lessonIDs[i] = lesson.ID
	}

	scores, err := s.scores.List(ctx, models.ScoreFilter{StudentIDs: studentIDs, LessonIDs: lessonIDs, QuarterID: quarterID})
	if err != nil {
		return nil, storeError(err, "failed to load scores")
	}

	// Keep at most one record per (student, lesson) pair and drop records
	// referencing ids outside the table. Absence means ungraded, never zero.
	inStudents := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		inStudents[id] = true
	}
	inLessons := make(map[string]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		inLessons[id] = true
	}
	cell := make(map[[2]string]int, len(scores))
	for _, record := range scores {
		if !inStudents[record.StudentID] || !inLessons[record.LessonID] {
			s.logger.Warn("score outside journal scope dropped",
				zap.String("student_id", record.StudentID),
				zap.String("lesson_id", record.LessonID))
			continue
		}
		key := [2]string{record.StudentID, record.LessonID}
		if i, ok := cell[key]; ok {
			if record.UpdatedAt.After(table.Scores[i].UpdatedAt) {
				table.Scores[i] = record
			}
			continue
		}
		cell[key] = len(table.Scores)
		table.Scores = append(table.Scores, record)
	}

	return table, nil
}

// WriteScore upserts one score cell on its natural key and returns the
// stored record. Failures always surface to the caller; a lost write is a
// correctness issue, not a display issue.
func (s *JournalService) WriteScore(ctx context.Context, req WriteScoreRequest) (*models.ScoreRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	record := &models.ScoreRecord{
		StudentID: req.StudentID,
		LessonID:  req.LessonID,
		QuarterID: req.QuarterID,
		Score:     req.Score,
	}
	if err := s.scores.Upsert(ctx, record); err != nil {
		return nil, storeError(err, "failed to write score")
	}
	return record, nil
}
