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

func newClassSessionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var classSessionRowColumns = []string{"id", "course_id", "teacher_id", "room_id", "day_of_week", "start_time", "end_time", "term", "created_at", "updated_at"}

func TestClassSessionRepositoryFindOverlappingByRoom(t *testing.T) {
	db, mock := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)

	rows := sqlmock.NewRows(classSessionRowColumns).
		AddRow("s1", "C1", nil, "R101", "Monday", "09:00:00", "10:00:00", "First Term", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+classSessionColumns+" FROM class_sessions WHERE room_id = $1 AND day_of_week = $2 AND term = $3 AND start_time < $4 AND end_time > $5 ORDER BY start_time ASC")).
		WithArgs("R101", models.Monday, models.FirstTerm, models.MustClock("10:30"), models.MustClock("09:30")).
		WillReturnRows(rows)

	sessions, err := repo.FindOverlapping(context.Background(), db, models.OverlapFilter{
		RoomID:    "R101",
		DayOfWeek: models.Monday,
		Term:      models.FirstTerm,
		StartTime: models.MustClock("09:30"),
		EndTime:   models.MustClock("10:30"),
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Nil(t, sessions[0].TeacherID)
	assert.Equal(t, models.MustClock("09:00"), sessions[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryFindOverlappingByTeacherExcludesSelf(t *testing.T) {
	db, mock := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE teacher_id = $1 AND day_of_week = $2 AND term = $3 AND start_time < $4 AND end_time > $5 AND id <> $6")).
		WithArgs("T001", models.Tuesday, models.SecondTerm, models.MustClock("11:00"), models.MustClock("10:00"), "s9").
		WillReturnRows(sqlmock.NewRows(classSessionRowColumns))

	sessions, err := repo.FindOverlapping(context.Background(), db, models.OverlapFilter{
		TeacherID: "T001",
		DayOfWeek: models.Tuesday,
		Term:      models.SecondTerm,
		StartTime: models.MustClock("10:00"),
		EndTime:   models.MustClock("11:00"),
		ExcludeID: "s9",
	})
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryFindOverlappingRequiresDimension(t *testing.T) {
	db, _ := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)

	_, err := repo.FindOverlapping(context.Background(), db, models.OverlapFilter{DayOfWeek: models.Monday, Term: models.FirstTerm})
	assert.Error(t, err)
}

func TestClassSessionRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)

	const missing = "0b7e4c1a-52a1-4a3e-9a57-3c3f1de0b6a2"
	mock.ExpectQuery("FROM class_sessions WHERE id = \\$1").
		WithArgs(missing).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), db, missing)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryCreateInTransaction(t *testing.T) {
	db, mock := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO class_sessions").
		WithArgs(sqlmock.AnyArg(), "C1", "T001", "R101", models.Monday, models.MustClock("09:00"), models.MustClock("10:00"), models.FirstTerm, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	teacher := "T001"
	session := &models.ClassSession{
		CourseID:  "C1",
		TeacherID: &teacher,
		RoomID:    "R101",
		DayOfWeek: models.Monday,
		StartTime: models.MustClock("09:00"),
		EndTime:   models.MustClock("10:00"),
		Term:      models.FirstTerm,
	}
	require.NoError(t, repo.Create(context.Background(), tx, session))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, session.ID)
	assert.False(t, session.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryUpdateMissingRow(t *testing.T) {
	db, mock := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)

	mock.ExpectExec("UPDATE class_sessions SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), db, &models.ClassSession{ID: "5d1f9a8e-3c2b-4f61-8e0a-7b9d2c4e6f10", StartTime: models.MustClock("09:00"), EndTime: models.MustClock("10:00")})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryList(t *testing.T) {
	db, mock := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)

	rows := sqlmock.NewRows(append(append([]string{}, classSessionRowColumns...), "course_name", "teacher_name")).
		AddRow("s1", "C1", "T001", "R101", "Monday", "09:00:00", "10:00:00", "First Term", time.Now(), time.Now(), "Algebra", "Ada")
	mock.ExpectQuery(regexp.QuoteMeta(classSessionDetailSelect + " WHERE cs.term = $1 ORDER BY " + classSessionOrder + " LIMIT 20 OFFSET 0")).
		WithArgs(models.FirstTerm).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM class_sessions cs WHERE cs.term = $1")).
		WithArgs(models.FirstTerm).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sessions, total, err := repo.List(context.Background(), models.ClassSessionFilter{Term: models.FirstTerm})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Algebra", sessions[0].CourseName)
	require.NotNil(t, sessions[0].TeacherName)
	assert.Equal(t, "Ada", *sessions[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryListByStudent(t *testing.T) {
	db, mock := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("cs.course_id IN (SELECT DISTINCT m.course_id FROM marks m WHERE m.student_id = $1) AND cs.term = $2")).
		WithArgs("S001", models.ThirdTerm).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, classSessionRowColumns...), "course_name", "teacher_name")))

	sessions, err := repo.ListByStudent(context.Background(), "S001", models.ThirdTerm)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdinalCase(t *testing.T) {
	expr := ordinalCase("cs.day_of_week", []string{"Monday", "Tuesday"})
	assert.Equal(t, "CASE cs.day_of_week WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 ELSE 3 END", expr)
}

func TestClassSessionRepositoryMalformedIDIsNoRows(t *testing.T) {
	db, mock := newClassSessionMock(t)
	repo := NewClassSessionRepository(db)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, db, "42")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = repo.GetDetail(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(ctx, db, &models.ClassSession{ID: "42"}), sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, "42"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
