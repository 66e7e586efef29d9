package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// JournalKey identifies one journal selection scope.
type JournalKey struct {
	ClassID   string
	SubjectID string
	QuarterID string
}

type journalBuilder interface {
	BuildJournal(ctx context.Context, classID, subjectID, quarterID string) (*models.JournalTable, error)
	WriteScore(ctx context.Context, req WriteScoreRequest) (*models.ScoreRecord, error)
}

// JournalSession owns the single-slot cache for the currently viewed
// journal. One session backs one view; it is not a general memoization
// table, so switching selection replaces the slot outright.
//
// Every load and write takes a monotonically increasing generation. A
// completion whose generation is older than the last applied one is
// discarded, so a slow stale read can never clobber a newer write.
type JournalSession struct {
	journal journalBuilder
	logger  *zap.Logger

	mu         sync.Mutex
	nextGen    uint64
	appliedGen uint64
	key        JournalKey
	table      *models.JournalTable
}

// NewJournalSession constructs a session around the journal service.
func NewJournalSession(journal journalBuilder, logger *zap.Logger) *JournalSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalSession{journal: journal, logger: logger}
}

// LoadJournal returns the journal for the key, reusing the cached table when
// the key is unchanged AND the cached payload is non-empty. A hit on an
// empty payload re-queries; otherwise a failed first fetch would pin the
// view to "no data" forever. The second return reports whether the backend
// was skipped.
func (s *JournalSession) LoadJournal(ctx context.Context, key JournalKey) (*models.JournalTable, bool, error) {
	s.mu.Lock()
	if s.table != nil && s.key == key && !s.table.Empty() {
		table := s.table
		s.mu.Unlock()
		return table, true, nil
	}
	s.nextGen++
	gen := s.nextGen
	s.mu.Unlock()

	table, err := s.journal.BuildJournal(ctx, key.ClassID, key.SubjectID, key.QuarterID)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.appliedGen {
		// A newer write or load finished first; do not let this stale
		// completion replace the slot.
		s.logger.Debug("stale journal load discarded", zap.Uint64("generation", gen))
		if s.key == key && s.table != nil {
			return s.table, false, nil
		}
		return table, false, nil
	}
	s.key = key
	s.table = table
	s.appliedGen = gen
	return table, false, nil
}

// WriteScore writes through the journal service and patches the cached
// table in place instead of forcing a reload. The write's generation
// supersedes any load still in flight that started earlier.
func (s *JournalSession) WriteScore(ctx context.Context, req WriteScoreRequest) (*models.ScoreRecord, error) {
	s.mu.Lock()
	s.nextGen++
	gen := s.nextGen
	s.mu.Unlock()

	record, err := s.journal.WriteScore(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen > s.appliedGen {
		s.appliedGen = gen
	}
	// Patch only scores that belong to the cached selection. A write for
	// another class or subject in the same quarter must not leak a foreign
	// student or lesson into the table.
	if s.table != nil && s.key.QuarterID == req.QuarterID && s.table.Covers(record.StudentID, record.LessonID) {
		s.table.Patch(*record)
	}
	return record, nil
}

// Invalidate drops the cached slot.
func (s *JournalSession) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = nil
	s.key = JournalKey{}
}
