package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type levelReader interface {
	ListAll(ctx context.Context) ([]models.GradeLevel, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.GradeLevel, error)
}

type classReader interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSection, error)
	FindByID(ctx context.Context, id string) (*models.ClassSection, error)
}

type subjectReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
	ListByClasses(ctx context.Context, classIDs []string) ([]models.Subject, error)
}

type levelStudentCounter interface {
	CountByLevel(ctx context.Context, levelIDs []string) (map[string]int, error)
}

// HierarchyService resolves the teacher/admin view of levels, class sections
// and subjects. Lookups that fail return empty collections plus a typed
// error; nothing here panics past the service boundary.
type HierarchyService struct {
	levels       levelReader
	classes      classReader
	subjects     subjectReader
	studentCount levelStudentCounter
	logger       *zap.Logger
}

// NewHierarchyService constructs a HierarchyService.
func NewHierarchyService(levels levelReader, classes classReader, subjects subjectReader, studentCount levelStudentCounter, logger *zap.Logger) *HierarchyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{levels: levels, classes: classes, subjects: subjects, studentCount: studentCount, logger: logger}
}

// ResolveLevels returns the levels visible to the actor. Administrators get
// every level with fully computed counts; teachers get the distinct levels
// of their sections with counts zeroed, since the enrichment pass is an
// admin-view concern.
func (s *HierarchyService) ResolveLevels(ctx context.Context, actor models.Actor) ([]models.GradeLevel, error) {
	if actor.IsAdmin() {
		return s.resolveAdminLevels(ctx)
	}

	classes, err := s.classes.List(ctx, models.ClassFilter{TeacherID: actor.SubjectID})
	if err != nil {
		return []models.GradeLevel{}, storeError(err, "failed to list teacher sections")
	}
	seen := make(map[string]bool, len(classes))
	levelIDs := make([]string, 0, len(classes))
	for _, class := range classes {
		if !seen[class.LevelID] {
			seen[class.LevelID] = true
			levelIDs = append(levelIDs, class.LevelID)
		}
	}
	levels, err := s.levels.ListByIDs(ctx, levelIDs)
	if err != nil {
		return []models.GradeLevel{}, storeError(err, "failed to load levels")
	}
	if levels == nil {
		levels = []models.GradeLevel{}
	}
	return levels, nil
}

func (s *HierarchyService) resolveAdminLevels(ctx context.Context) ([]models.GradeLevel, error) {
	levels, err := s.levels.ListAll(ctx)
	if err != nil {
		return []models.GradeLevel{}, storeError(err, "failed to list levels")
	}
	classes, err := s.classes.List(ctx, models.ClassFilter{})
	if err != nil {
		return []models.GradeLevel{}, storeError(err, "failed to list sections")
	}

	classCount := make(map[string]int, len(levels))
	classLevels := make(map[string]string, len(classes))
	classIDs := make([]string, 0, len(classes))
	for _, class := range classes {
		classCount[class.LevelID]++
		classLevels[class.ID] = class.LevelID
		classIDs = append(classIDs, class.ID)
	}

	subjects, err := s.subjects.ListByClasses(ctx, classIDs)
	if err != nil {
		return []models.GradeLevel{}, storeError(err, "failed to list subjects")
	}
	// Distinct subject ids per level, not summed per class: two sections
	// sharing one subject contribute one.
	subjectSeen := make(map[string]map[string]bool)
	for _, subject := range subjects {
		levelID := classLevels[subject.ClassID]
		if subjectSeen[levelID] == nil {
			subjectSeen[levelID] = make(map[string]bool)
		}
		subjectSeen[levelID][subject.ID] = true
	}

	levelIDs := make([]string, 0, len(levels))
	for _, level := range levels {
		levelIDs = append(levelIDs, level.ID)
	}
	studentCounts, err := s.studentCount.CountByLevel(ctx, levelIDs)
	if err != nil {
		// Known gap: without a reachable enrollment source the student
		// counts stay zero rather than failing the whole resolve.
		s.logger.Warn("level student counts unavailable", zap.Error(err))
		studentCounts = map[string]int{}
	}

	for i := range levels {
		levels[i].ClassCount = classCount[levels[i].ID]
		levels[i].SubjectCount = len(subjectSeen[levels[i].ID])
		levels[i].StudentCount = studentCounts[levels[i].ID]
	}
	return levels, nil
}

// ResolveClasses returns the class sections the actor may see, optionally
// restricted to one level. The admin/teacher authorization split lives here,
// not in the UI.
func (s *HierarchyService) ResolveClasses(ctx context.Context, actor models.Actor, levelID string) ([]models.ClassSection, error) {
	filter := models.ClassFilter{LevelID: levelID}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		filter.TeacherID = actor.SubjectID
	default:
		return []models.ClassSection{}, appErrors.Clone(appErrors.ErrForbidden, "role may not browse class sections")
	}
	classes, err := s.classes.List(ctx, filter)
	if err != nil {
		return []models.ClassSection{}, storeError(err, "failed to list sections")
	}
	if classes == nil {
		classes = []models.ClassSection{}
	}
	return classes, nil
}

// ClassesForTeacher is the flat "my classes" listing without level grouping.
func (s *HierarchyService) ClassesForTeacher(ctx context.Context, teacherID string) ([]models.ClassSection, error) {
	classes, err := s.classes.List(ctx, models.ClassFilter{TeacherID: teacherID})
	if err != nil {
		return []models.ClassSection{}, storeError(err, "failed to list teacher sections")
	}
	if classes == nil {
		classes = []models.ClassSection{}
	}
	return classes, nil
}

// ResolveSubjects returns the subjects linked to a class, enriched with
// lesson counts.
func (s *HierarchyService) ResolveSubjects(ctx context.Context, classID string) ([]models.Subject, error) {
	if classID == "" {
		return []models.Subject{}, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	subjects, err := s.subjects.ListByClass(ctx, classID)
	if err != nil {
		return []models.Subject{}, storeError(err, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// storeError translates repository failures into the engine taxonomy:
// unreachable schema becomes BackendUnavailable so callers can degrade,
// anything else is internal.
func storeError(err error, message string) *appErrors.Error {
	if repository.IsUnavailable(err) {
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
