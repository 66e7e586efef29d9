package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func newClassMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassRepositoryListByLevel(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "level_id", "name", "student_count"}).
		AddRow("10a", "10", "10-A", 28).
		AddRow("10b", "10", "10-B", 29)
	mock.ExpectQuery(`SELECT c\.id, c\.level_id, c\.name`).
		WithArgs("10").
		WillReturnRows(rows)

	classes, err := repo.List(context.Background(), models.ClassFilter{LevelID: "10"})
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, 28, classes[0].StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListForTeacherJoinsSubjects(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "level_id", "name", "student_count"}).
		AddRow("10a", "10", "10-A", 28)
	mock.ExpectQuery(`JOIN subjects sub ON sub\.class_id = c\.id AND sub\.teacher_id`).
		WithArgs("t1").
		WillReturnRows(rows)

	classes, err := repo.List(context.Background(), models.ClassFilter{TeacherID: "t1"})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "10a", classes[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListForStudent(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "level_id", "name", "student_count"}).
		AddRow("10a", "10", "10-A", 28)
	mock.ExpectQuery(`JOIN enrollments own ON own\.class_id = c\.id AND own\.student_id`).
		WithArgs("stu1").
		WillReturnRows(rows)

	classes, err := repo.ListForStudent(context.Background(), "stu1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
