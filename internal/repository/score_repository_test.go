package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func newScoreMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScoreRepositoryList(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "lesson_id", "quarter_id", "score", "updated_at"}).
		AddRow("s1", "stu1", "l1", "q1", 8.5, time.Now()).
		AddRow("s2", "stu2", "l1", "q1", nil, time.Now())
	mock.ExpectQuery("SELECT id, student_id, lesson_id, quarter_id, score, updated_at").
		WithArgs("stu1", "stu2", "l1", "q1").
		WillReturnRows(rows)

	scores, err := repo.List(context.Background(), models.ScoreFilter{
		StudentIDs: []string{"stu1", "stu2"},
		LessonIDs:  []string{"l1"},
		QuarterID:  "q1",
	})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 8.5, *scores[0].Score)
	assert.Nil(t, scores[1].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryListEmptyIDsShortCircuits(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	scores, err := repo.List(context.Background(), models.ScoreFilter{LessonIDs: []string{"l1"}})
	require.NoError(t, err)
	assert.Empty(t, scores)
	// No query may reach the database for an empty IN filter.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryListForStudent(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "lesson_id", "quarter_id", "score", "updated_at"}).
		AddRow("s1", "stu1", "l1", "q1", 9.0, time.Now())
	mock.ExpectQuery("SELECT id, student_id, lesson_id, quarter_id, score, updated_at").
		WithArgs("stu1", "l1", "l2").
		WillReturnRows(rows)

	scores, err := repo.ListForStudent(context.Background(), "stu1", []string{"l1", "l2"})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "q1", scores[0].QuarterID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectPrepare("INSERT INTO scores").
		ExpectQuery().
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("row-1"))

	score := 7.5
	record := &models.ScoreRecord{StudentID: "stu1", LessonID: "l1", QuarterID: "q1", Score: &score}
	err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "row-1", record.ID)
	assert.False(t, record.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryUpsertReturnsConflictRowID(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	// Overwriting an existing cell keeps the row's original id, which the
	// database reports back instead of the candidate id sent with the insert.
	mock.ExpectPrepare("INSERT INTO scores").
		ExpectQuery().
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stored-row"))

	record := &models.ScoreRecord{ID: "candidate", StudentID: "stu1", LessonID: "l1", QuarterID: "q1"}
	err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "stored-row", record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
