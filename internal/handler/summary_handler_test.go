package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type enrollmentsStub struct {
	classes []models.ClassSection
	err     error
}

func (s *enrollmentsStub) ListForStudent(ctx context.Context, studentID string) ([]models.ClassSection, error) {
	return s.classes, s.err
}

type subjectsStub struct {
	subjects []models.Subject
}

func (s *subjectsStub) ListByClasses(ctx context.Context, classIDs []string) ([]models.Subject, error) {
	return s.subjects, nil
}

func (s *subjectsStub) TeacherName(ctx context.Context, subjectID string) (string, error) {
	return "Staff Teacher", nil
}

type lessonsStub struct {
	lessons []models.Lesson
	errFor  map[string]error
}

func (s *lessonsStub) ListBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error) {
	if err := s.errFor[subjectID]; err != nil {
		return nil, err
	}
	return s.lessons, nil
}

type scoresStub struct {
	records []models.ScoreRecord
}

func (s *scoresStub) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreRecord, error) {
	return s.records, nil
}

func (s *scoresStub) ListForStudent(ctx context.Context, studentID string, lessonIDs []string) ([]models.ScoreRecord, error) {
	return s.records, nil
}

func (s *scoresStub) Upsert(ctx context.Context, record *models.ScoreRecord) error {
	return nil
}

type attendanceStub struct{}

func (s *attendanceStub) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	return nil, nil
}

type quartersStub struct {
	quarters []models.Quarter
}

func (s *quartersStub) ListAll(ctx context.Context) ([]models.Quarter, error) {
	return s.quarters, nil
}

// guardiansStub maps parent id to the student ids the parent is linked to.
type guardiansStub struct {
	links map[string][]string
}

func (s *guardiansStub) HasGuardian(ctx context.Context, studentID, parentID string) (bool, error) {
	for _, id := range s.links[parentID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func summaryServiceOver(enrollments *enrollmentsStub, subjects *subjectsStub, lessons *lessonsStub, guardians *guardiansStub) *service.SummaryService {
	params := service.SummaryServiceParams{
		Enrollments: enrollments,
		Subjects:    subjects,
		Lessons:     lessons,
		Scores:      &scoresStub{},
		Attendance:  &attendanceStub{},
		Quarters:    &quartersStub{quarters: []models.Quarter{{ID: "q1", Name: "Quarter 1"}}},
		Logger:      zap.NewNop(),
	}
	if guardians != nil {
		params.Guardians = guardians
	}
	return service.NewSummaryService(params)
}

func summaryRequest(t *testing.T, handler *SummaryHandler, actor models.Actor, studentID string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/students/"+studentID+"/summaries", nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: studentID}}
	c.Set(middleware.ContextActorKey, actor)

	handler.StudentSummaries(c)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestStudentSummariesServesFallbackWhenStoreDown(t *testing.T) {
	svc := summaryServiceOver(&enrollmentsStub{err: sql.ErrConnDone}, &subjectsStub{}, &lessonsStub{}, nil)
	fallback := service.NewFallbackProvider(service.DefaultLetterScale(), service.DefaultAttendanceWeights())
	handler := NewSummaryHandler(svc, fallback, zap.NewNop())

	w, envelope := summaryRequest(t, handler, models.Actor{SubjectID: "stu1", Role: models.RoleStudent}, "stu1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, envelope.Meta["degraded"])
	assert.NotNil(t, envelope.Data)
	assert.Nil(t, envelope.Error)
}

func TestStudentSummariesNoFallbackSurfacesError(t *testing.T) {
	svc := summaryServiceOver(&enrollmentsStub{}, &subjectsStub{}, &lessonsStub{}, nil)
	handler := NewSummaryHandler(svc, nil, zap.NewNop())

	_, envelope := summaryRequest(t, handler, models.Actor{SubjectID: "adm1", Role: models.RoleAdmin}, "stu1")
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NO_DATA", envelope.Error.Code)
}

func TestStudentSummariesSelfOnlyForStudents(t *testing.T) {
	svc := summaryServiceOver(&enrollmentsStub{}, &subjectsStub{}, &lessonsStub{}, nil)
	handler := NewSummaryHandler(svc, nil, zap.NewNop())

	w, envelope := summaryRequest(t, handler, models.Actor{SubjectID: "stu1", Role: models.RoleStudent}, "stu2")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "FORBIDDEN", envelope.Error.Code)
}

func TestStudentSummariesParentReadsLinkedChild(t *testing.T) {
	guardians := &guardiansStub{links: map[string][]string{"par1": {"stu1"}}}
	svc := summaryServiceOver(&enrollmentsStub{}, &subjectsStub{}, &lessonsStub{}, guardians)
	handler := NewSummaryHandler(svc, nil, zap.NewNop())

	// The request clears authorization and proceeds to the pipeline, which
	// reports no data for the unenrolled student.
	w, envelope := summaryRequest(t, handler, models.Actor{SubjectID: "par1", Role: models.RoleParent}, "stu1")
	require.NotEqual(t, http.StatusForbidden, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NO_DATA", envelope.Error.Code)
}

func TestStudentSummariesParentForbiddenWithoutLink(t *testing.T) {
	guardians := &guardiansStub{links: map[string][]string{"par1": {"stu1"}}}
	svc := summaryServiceOver(&enrollmentsStub{}, &subjectsStub{}, &lessonsStub{}, guardians)
	handler := NewSummaryHandler(svc, nil, zap.NewNop())

	w, envelope := summaryRequest(t, handler, models.Actor{SubjectID: "par1", Role: models.RoleParent}, "stu2")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "FORBIDDEN", envelope.Error.Code)
}

func TestStudentSummariesPartialResultFlagged(t *testing.T) {
	enrollments := &enrollmentsStub{classes: []models.ClassSection{{ID: "10a", Name: "10-A"}}}
	subjects := &subjectsStub{subjects: []models.Subject{
		{ID: "math", ClassID: "10a", Name: "Mathematics"},
		{ID: "hist", ClassID: "10a", Name: "History"},
	}}
	lessons := &lessonsStub{
		lessons: []models.Lesson{{ID: "l1", Name: "Algebra", Date: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)}},
		errFor:  map[string]error{"hist": sql.ErrConnDone},
	}
	svc := summaryServiceOver(enrollments, subjects, lessons, nil)
	handler := NewSummaryHandler(svc, nil, zap.NewNop())

	w, envelope := summaryRequest(t, handler, models.Actor{SubjectID: "adm1", Role: models.RoleAdmin}, "stu1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, envelope.Meta["partial"])
	assert.Equal(t, []interface{}{"hist"}, envelope.Meta["dropped"])
	assert.Nil(t, envelope.Error)
}
