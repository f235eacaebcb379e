package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

func newCourseMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock := newCourseMock(t)
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "department", "teacher_id", "teacher_name"}).
		AddRow("C1", "Algebra", "Math", "T001", "Ada")
	mock.ExpectQuery(regexp.QuoteMeta(courseDetailSelect + " WHERE c.id = $1")).
		WithArgs("C1").
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra", course.Name)
	require.NotNil(t, course.TeacherName)
	assert.Equal(t, "Ada", *course.TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteForeignKey(t *testing.T) {
	db, mock := newCourseMock(t)
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("C1").
		WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Delete(context.Background(), "C1")
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), fmt.Sprintf("%v", err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListOptionsForTeacher(t *testing.T) {
	db, mock := newCourseMock(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name AS label FROM courses WHERE teacher_id = $1 ORDER BY name ASC")).
		WithArgs("T001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "label"}).AddRow("C1", "Algebra"))

	options, err := repo.ListOptions(context.Background(), "T001")
	require.NoError(t, err)
	assert.Equal(t, []models.Option{{ID: "C1", Label: "Algebra"}}, options)
	assert.NoError(t, mock.ExpectationsWereMet())
}
