package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
)

type stubJournalBuilder struct {
	mu      sync.Mutex
	builds  int
	writes  int
	buildFn func(call int, classID, subjectID, quarterID string) (*models.JournalTable, error)
	writeFn func(req WriteScoreRequest) (*models.ScoreRecord, error)
}

func (s *stubJournalBuilder) BuildJournal(ctx context.Context, classID, subjectID, quarterID string) (*models.JournalTable, error) {
	s.mu.Lock()
	s.builds++
	call := s.builds
	s.mu.Unlock()
	return s.buildFn(call, classID, subjectID, quarterID)
}

func (s *stubJournalBuilder) WriteScore(ctx context.Context, req WriteScoreRequest) (*models.ScoreRecord, error) {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	if s.writeFn != nil {
		return s.writeFn(req)
	}
	return &models.ScoreRecord{
		ID:        "w1",
		StudentID: req.StudentID,
		LessonID:  req.LessonID,
		QuarterID: req.QuarterID,
		Score:     req.Score,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (s *stubJournalBuilder) buildCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builds
}

func populatedTable(key JournalKey) *models.JournalTable {
	return &models.JournalTable{
		ClassID:   key.ClassID,
		SubjectID: key.SubjectID,
		QuarterID: key.QuarterID,
		Students:  []models.Student{{ID: "stu1", FullName: "Ada Petrova"}},
		Lessons:   []models.Lesson{{ID: "l1", SubjectID: key.SubjectID, Name: "Algebra"}},
		Scores:    []models.ScoreRecord{},
	}
}

func TestLoadJournalCachesNonEmptyTable(t *testing.T) {
	key := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q1"}
	builder := &stubJournalBuilder{buildFn: func(call int, classID, subjectID, quarterID string) (*models.JournalTable, error) {
		return populatedTable(key), nil
	}}
	session := NewJournalSession(builder, zap.NewNop())

	_, cached, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = session.LoadJournal(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, builder.buildCount())
}

func TestLoadJournalEmptyTableRequeries(t *testing.T) {
	key := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q1"}
	builder := &stubJournalBuilder{buildFn: func(call int, classID, subjectID, quarterID string) (*models.JournalTable, error) {
		if call == 1 {
			return &models.JournalTable{ClassID: classID, SubjectID: subjectID, QuarterID: quarterID, Scores: []models.ScoreRecord{}}, nil
		}
		return populatedTable(key), nil
	}}
	session := NewJournalSession(builder, zap.NewNop())

	table, _, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, table.Empty())

	table, cached, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.False(t, table.Empty())
	assert.Equal(t, 2, builder.buildCount())
}

func TestLoadJournalSelectionChangeReplacesSlot(t *testing.T) {
	builder := &stubJournalBuilder{buildFn: func(call int, classID, subjectID, quarterID string) (*models.JournalTable, error) {
		return populatedTable(JournalKey{ClassID: classID, SubjectID: subjectID, QuarterID: quarterID}), nil
	}}
	session := NewJournalSession(builder, zap.NewNop())

	first := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q1"}
	second := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q2"}

	_, _, err := session.LoadJournal(context.Background(), first)
	require.NoError(t, err)
	table, cached, err := session.LoadJournal(context.Background(), second)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "q2", table.QuarterID)

	// Old key no longer cached.
	_, cached, err = session.LoadJournal(context.Background(), first)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, builder.buildCount())
}

func TestWriteScorePatchesCachedTable(t *testing.T) {
	key := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q1"}
	builder := &stubJournalBuilder{buildFn: func(call int, classID, subjectID, quarterID string) (*models.JournalTable, error) {
		return populatedTable(key), nil
	}}
	session := NewJournalSession(builder, zap.NewNop())

	_, _, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)

	record, err := session.WriteScore(context.Background(), WriteScoreRequest{StudentID: "stu1", LessonID: "l1", QuarterID: "q1", Score: ptrScore(8)})
	require.NoError(t, err)
	assert.Equal(t, 8.0, *record.Score)

	table, cached, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, table.Scores, 1)
	assert.Equal(t, 8.0, *table.Scores[0].Score)
	assert.Equal(t, 1, builder.buildCount())
}

func TestWriteScoreForOtherSelectionLeavesCacheAlone(t *testing.T) {
	key := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q1"}
	builder := &stubJournalBuilder{buildFn: func(call int, classID, subjectID, quarterID string) (*models.JournalTable, error) {
		return populatedTable(key), nil
	}}
	session := NewJournalSession(builder, zap.NewNop())

	_, _, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)

	// Same quarter, but the student and lesson belong to a different
	// class+subject. The cached table must not absorb the record.
	_, err = session.WriteScore(context.Background(), WriteScoreRequest{StudentID: "stu9", LessonID: "hist-l4", QuarterID: "q1", Score: ptrScore(6)})
	require.NoError(t, err)

	table, cached, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Empty(t, table.Scores)
	assert.Equal(t, 1, builder.buildCount())
}

func TestStaleLoadNeverClobbersNewerWrite(t *testing.T) {
	current := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q1"}
	next := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q2"}
	block := make(chan struct{})
	entered := make(chan struct{})
	var enterOnce sync.Once
	builder := &stubJournalBuilder{buildFn: func(call int, classID, subjectID, quarterID string) (*models.JournalTable, error) {
		if quarterID == next.QuarterID {
			// The q2 fetch blocks until the q1 write has landed, so its
			// completion carries an older generation than the write.
			enterOnce.Do(func() { close(entered) })
			<-block
		}
		return populatedTable(JournalKey{ClassID: classID, SubjectID: subjectID, QuarterID: quarterID}), nil
	}}
	session := NewJournalSession(builder, zap.NewNop())

	_, _, err := session.LoadJournal(context.Background(), current)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, cached, loadErr := session.LoadJournal(context.Background(), next)
		assert.NoError(t, loadErr)
		assert.False(t, cached)
	}()
	<-entered

	_, err = session.WriteScore(context.Background(), WriteScoreRequest{StudentID: "stu1", LessonID: "l1", QuarterID: "q1", Score: ptrScore(9)})
	require.NoError(t, err)

	close(block)
	<-done

	// The stale completion must not have replaced the slot: the current
	// selection is still cached and carries the written score.
	table, cached, err := session.LoadJournal(context.Background(), current)
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, table.Scores, 1)
	assert.Equal(t, 9.0, *table.Scores[0].Score)
}

func TestInvalidateDropsSlot(t *testing.T) {
	key := JournalKey{ClassID: "10a", SubjectID: "math", QuarterID: "q1"}
	builder := &stubJournalBuilder{buildFn: func(call int, classID, subjectID, quarterID string) (*models.JournalTable, error) {
		return populatedTable(key), nil
	}}
	session := NewJournalSession(builder, zap.NewNop())

	_, _, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)
	session.Invalidate()

	_, cached, err := session.LoadJournal(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, builder.buildCount())
}
