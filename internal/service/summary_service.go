package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type enrollmentReader interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.ClassSection, error)
}

type summarySubjectReader interface {
	ListByClasses(ctx context.Context, classIDs []string) ([]models.Subject, error)
	TeacherName(ctx context.Context, subjectID string) (string, error)
}

type attendanceReader interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

type guardianReader interface {
	HasGuardian(ctx context.Context, studentID, parentID string) (bool, error)
}

// subjectColorPalette feeds the deterministic UI color tag. The tag has no
// semantic meaning; it only has to be stable for a given subject name.
var subjectColorPalette = []string{"indigo", "teal", "amber", "rose", "emerald", "sky", "violet", "orange"}

// SummaryServiceConfig tunes the summary builder.
type SummaryServiceConfig struct {
	Concurrency int
}

// SummaryService builds per-student subject grade summaries: quarterly
// averages with letter grades, the chronological scored-lesson list, and
// attendance. Subjects are independent of each other, so their pipelines
// run concurrently with per-subject failure isolation.
type SummaryService struct {
	enrollments enrollmentReader
	subjects    summarySubjectReader
	lessons     lessonReader
	scores      scoreStore
	attendance  attendanceReader
	quarters    quarterReader
	guardians   guardianReader
	scale       LetterScale
	weights     AttendanceWeights
	cache       *CacheService
	logger      *zap.Logger
	concurrency int
}

// SummaryServiceParams groups constructor dependencies.
type SummaryServiceParams struct {
	Enrollments enrollmentReader
	Subjects    summarySubjectReader
	Lessons     lessonReader
	Scores      scoreStore
	Attendance  attendanceReader
	Quarters    quarterReader
	Guardians   guardianReader
	Scale       LetterScale
	Weights     AttendanceWeights
	Cache       *CacheService
	Logger      *zap.Logger
	Config      SummaryServiceConfig
}

// NewSummaryService constructs a SummaryService with sane defaults.
func NewSummaryService(params SummaryServiceParams) *SummaryService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := params.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	scale := params.Scale
	if scale == (LetterScale{}) {
		scale = DefaultLetterScale()
	}
	weights := params.Weights
	if weights == (AttendanceWeights{}) {
		weights = DefaultAttendanceWeights()
	}
	return &SummaryService{
		enrollments: params.Enrollments,
		subjects:    params.Subjects,
		lessons:     params.Lessons,
		scores:      params.Scores,
		attendance:  params.Attendance,
		quarters:    params.Quarters,
		guardians:   params.Guardians,
		scale:       scale,
		weights:     weights,
		cache:       params.Cache,
		logger:      logger,
		concurrency: concurrency,
	}
}

// AuthorizeStudentAccess decides whether the actor may read the student's
// summaries. Staff roles read any student, students only themselves, and
// parents only children they hold a guardian link to. The role split lives
// here rather than in the HTTP layer so every caller enforces it the same
// way.
func (s *SummaryService) AuthorizeStudentAccess(ctx context.Context, actor models.Actor, studentID string) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleTeacher:
		return nil
	case models.RoleStudent:
		if actor.SubjectID != studentID {
			return appErrors.Clone(appErrors.ErrForbidden, "students may only read their own summaries")
		}
		return nil
	case models.RoleParent:
		if s.guardians == nil {
			return appErrors.Clone(appErrors.ErrForbidden, "no guardian links configured")
		}
		linked, err := s.guardians.HasGuardian(ctx, studentID, actor.SubjectID)
		if err != nil {
			return storeError(err, "failed to resolve guardian link")
		}
		if !linked {
			return appErrors.Clone(appErrors.ErrForbidden, "parent is not linked to this student")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role may not read summaries")
	}
}

// StudentGradeSummaries returns one summary per subject the student is
// enrolled in, plus the ids of subjects whose pipelines failed and were
// dropped. A student with no enrollment at all yields ErrNoData so the
// caller can substitute fallback data; a single failed subject never aborts
// the rest.
func (s *SummaryService) StudentGradeSummaries(ctx context.Context, studentID string) ([]models.SubjectGradeSummary, []string, error) {
	if studentID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}

	cacheKey := fmt.Sprintf("summary:%s", studentID)
	if s.cache.Enabled() {
		var cached []models.SubjectGradeSummary
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil, nil
		}
	}

	classes, err := s.enrollments.ListForStudent(ctx, studentID)
	if err != nil {
		return []models.SubjectGradeSummary{}, nil, storeError(err, "failed to load enrollments")
	}
	if len(classes) == 0 {
		return []models.SubjectGradeSummary{}, nil, appErrors.Clone(appErrors.ErrNoData, "student has no class enrollment")
	}

	classNames := make(map[string]string, len(classes))
	classIDs := make([]string, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
		classNames[class.ID] = class.Name
	}

	subjects, err := s.subjects.ListByClasses(ctx, classIDs)
	if err != nil {
		return []models.SubjectGradeSummary{}, nil, storeError(err, "failed to load subjects")
	}
	if len(subjects) == 0 {
		return []models.SubjectGradeSummary{}, nil, appErrors.Clone(appErrors.ErrNoData, "no subjects for student's classes")
	}

	quarters, err := s.quarters.ListAll(ctx)
	if err != nil {
		return []models.SubjectGradeSummary{}, nil, storeError(err, "failed to load quarters")
	}

	type outcome struct {
		index   int
		summary *models.SubjectGradeSummary
		failed  string
	}

	results := make([]outcome, len(subjects))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, subject := range subjects {
		wg.Add(1)
		go func(i int, subject models.Subject) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			summary, err := s.buildSubjectSummary(ctx, studentID, subject, quarters, classNames[subject.ClassID])
			if err != nil {
				s.logger.Warn("subject summary dropped",
					zap.String("student_id", studentID),
					zap.String("subject_id", subject.ID),
					zap.Error(err))
				results[i] = outcome{index: i, failed: subject.ID}
				return
			}
			results[i] = outcome{index: i, summary: summary}
		}(i, subject)
	}
	wg.Wait()

	summaries := make([]models.SubjectGradeSummary, 0, len(subjects))
	var dropped []string
	for _, result := range results {
		if result.summary != nil {
			summaries = append(summaries, *result.summary)
			continue
		}
		if result.failed != "" {
			dropped = append(dropped, result.failed)
		}
	}

	if len(summaries) == 0 && len(dropped) > 0 {
		return []models.SubjectGradeSummary{}, dropped, appErrors.Clone(appErrors.ErrBackendUnavailable, "every subject pipeline failed")
	}

	if s.cache.Enabled() && len(dropped) == 0 {
		if err := s.cache.Set(ctx, cacheKey, summaries, 0); err != nil {
			s.logger.Warn("summary cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	if len(dropped) > 0 {
		return summaries, dropped, appErrors.Clone(appErrors.ErrPartial, fmt.Sprintf("%d subject(s) dropped", len(dropped)))
	}
	return summaries, nil, nil
}

// InvalidateStudent drops the cached summary after a score write so the next
// read recomputes.
func (s *SummaryService) InvalidateStudent(ctx context.Context, studentID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("summary:%s", studentID)); err != nil {
		s.logger.Warn("summary cache invalidate failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

func (s *SummaryService) buildSubjectSummary(ctx context.Context, studentID string, subject models.Subject, quarters []models.Quarter, className string) (*models.SubjectGradeSummary, error) {
	lessons, err := s.lessons.ListBySubject(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("lessons: %w", err)
	}
	lessonIDs := make([]string, len(lessons))
	lessonByID := make(map[string]models.Lesson, len(lessons))
	for i, lesson := range lessons {
		lessonIDs[i] = lesson.ID
		lessonByID[lesson.ID] = lesson
	}

	scores, err := s.scores.ListForStudent(ctx, studentID, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("scores: %w", err)
	}

	records, err := s.attendance.List(ctx, models.AttendanceFilter{StudentID: studentID, LessonIDs: lessonIDs})
	if err != nil {
		return nil, fmt.Errorf("attendance: %w", err)
	}

	teacherName, err := s.subjects.TeacherName(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("teacher name: %w", err)
	}

	summary := &models.SubjectGradeSummary{
		SubjectID:   subject.ID,
		SubjectName: subject.Name,
		TeacherName: teacherName,
		ClassName:   className,
		ColorTag:    colorForSubject(subject.Name),
		Quarters:    make([]models.QuarterGrade, 0, len(quarters)),
		Lessons:     scoredLessons(lessons, scores),
		Attendance:  AggregateAttendance(records, s.weights, s.logger),
	}

	// One entry per known quarter; quarters with no scores roll up as 0/"F".
	for _, quarter := range quarters {
		average := quarterAverage(scores, quarter.ID)
		summary.Quarters = append(summary.Quarters, models.QuarterGrade{
			QuarterID:    quarter.ID,
			QuarterName:  quarter.Name,
			AverageScore: average,
			LetterGrade:  s.scale.Grade(average),
		})
	}

	return summary, nil
}

func quarterAverage(scores []models.ScoreRecord, quarterID string) float64 {
	sum := 0.0
	n := 0
	for _, record := range scores {
		if record.QuarterID != quarterID || record.Score == nil {
			continue
		}
		sum += *record.Score
		n++
	}
	if n == 0 {
		return 0
	}
	return math.RoundToEven(sum/float64(n)*100) / 100
}

// scoredLessons returns the individually scored lessons in date order.
// Lessons arrive already sorted ascending; a stable sort keeps ties in
// lesson order.
func scoredLessons(lessons []models.Lesson, scores []models.ScoreRecord) []models.ScoredLesson {
	byLesson := make(map[string][]models.ScoreRecord, len(scores))
	for _, record := range scores {
		if record.Score == nil {
			continue
		}
		byLesson[record.LessonID] = append(byLesson[record.LessonID], record)
	}
	result := make([]models.ScoredLesson, 0, len(scores))
	for _, lesson := range lessons {
		records := byLesson[lesson.ID]
		sort.SliceStable(records, func(i, j int) bool { return records[i].QuarterID < records[j].QuarterID })
		for _, record := range records {
			result = append(result, models.ScoredLesson{
				LessonID:   lesson.ID,
				LessonName: lesson.Name,
				Date:       lesson.Date,
				QuarterID:  record.QuarterID,
				Score:      *record.Score,
			})
		}
	}
	return result
}

func colorForSubject(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return subjectColorPalette[h.Sum32()%uint32(len(subjectColorPalette))]
}
