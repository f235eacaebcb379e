package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

func newMarkMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestMarkRepositoryListScopedToTeacher(t *testing.T) {
	db, mock := newMarkMock(t)
	repo := NewMarkRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "grade", "created_at", "updated_at", "student_name", "course_name", "teacher_id"}).
		AddRow("m1", "S001", "C1", 91.5, time.Now(), time.Now(), "Sam", "Algebra", "T001")
	mock.ExpectQuery(regexp.QuoteMeta(markDetailSelect + " WHERE 1=1 AND c.teacher_id = $1 ORDER BY s.name ASC, c.name ASC LIMIT 20 OFFSET 0")).
		WithArgs("T001").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM marks m JOIN students s ON s.id = m.student_id JOIN courses c ON c.id = m.course_id WHERE 1=1 AND c.teacher_id = $1")).
		WithArgs("T001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	marks, total, err := repo.List(context.Background(), models.MarkFilter{TeacherID: "T001"})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 91.5, marks[0].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryCreateAssignsID(t *testing.T) {
	db, mock := newMarkMock(t)
	repo := NewMarkRepository(db)

	mock.ExpectExec("INSERT INTO marks").
		WithArgs(sqlmock.AnyArg(), "S001", "C1", 88.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mark := &models.Mark{StudentID: "S001", CourseID: "C1", Grade: 88}
	require.NoError(t, repo.Create(context.Background(), mark))
	assert.NotEmpty(t, mark.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryListGradesByStudent(t *testing.T) {
	db, mock := newMarkMock(t)
	repo := NewMarkRepository(db)

	rows := sqlmock.NewRows([]string{"course_id", "course_name", "department", "teacher_name", "grade"}).
		AddRow("C1", "Algebra", "Math", nil, 75.0)
	mock.ExpectQuery("FROM marks m JOIN courses c ON c.id = m.course_id").
		WithArgs("S001").
		WillReturnRows(rows)

	grades, err := repo.ListGradesByStudent(context.Background(), "S001")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Nil(t, grades[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryMalformedIDIsNoRows(t *testing.T) {
	db, mock := newMarkMock(t)
	repo := NewMarkRepository(db)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "m1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(ctx, &models.Mark{ID: "m1", StudentID: "S001", CourseID: "C1"}), sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, "m1"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
