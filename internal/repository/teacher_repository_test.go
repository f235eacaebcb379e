package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

func newTeacherMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestTeacherRepositoryListSearch(t *testing.T) {
	db, mock := newTeacherMock(t)
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "major"}).
		AddRow("T001", "Ada", "ada@example.com", "Mathematics")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, major FROM teachers WHERE 1=1 AND (LOWER(name) LIKE $1 OR LOWER(email) LIKE $1 OR LOWER(id) LIKE $1) ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs("%ada%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers WHERE 1=1 AND (LOWER(name) LIKE $1")).
		WithArgs("%ada%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{Search: "Ada"})
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, 1, total)
	require.NotNil(t, teachers[0].Major)
	assert.Equal(t, "Mathematics", *teachers[0].Major)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryExists(t *testing.T) {
	db, mock := newTeacherMock(t)
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM teachers WHERE id = $1)")).
		WithArgs("T001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.Exists(context.Background(), db, "T001")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListOptions(t *testing.T) {
	db, mock := newTeacherMock(t)
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name AS label FROM teachers ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label"}).AddRow("T002", "Bea").AddRow("T001", "Cy"))

	options, err := repo.ListOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "Bea", options[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}
