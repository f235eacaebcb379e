package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type teacherStoreMock struct {
	teachers map[string]models.Teacher
	filter   models.TeacherFilter
}

func (m *teacherStoreMock) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	m.filter = filter
	out := make([]models.Teacher, 0, len(m.teachers))
	for _, t := range m.teachers {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *teacherStoreMock) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Teacher, error) {
	t, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (m *teacherStoreMock) Exists(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	_, ok := m.teachers[id]
	return ok, nil
}

func (m *teacherStoreMock) Create(ctx context.Context, exec sqlx.ExtContext, teacher *models.Teacher) error {
	m.teachers[teacher.ID] = *teacher
	return nil
}

func (m *teacherStoreMock) Update(ctx context.Context, exec sqlx.ExtContext, originalID string, teacher *models.Teacher) error {
	if _, ok := m.teachers[originalID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.teachers, originalID)
	m.teachers[teacher.ID] = *teacher
	return nil
}

func (m *teacherStoreMock) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, ok := m.teachers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.teachers, id)
	return nil
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := &teacherStoreMock{teachers: map[string]models.Teacher{}}
	accounts := &accountStoreMock{}
	db, mock := newTxProviderMock(t)
	svc := NewTeacherService(repo, accounts, db, nil, nil, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	blank := "  "
	teacher, err := svc.Create(context.Background(), TeacherRequest{ID: "T001", Name: "Ada", Email: "ada@school.test", Password: "engine1", Major: &blank})
	require.NoError(t, err)
	assert.Nil(t, teacher.Major)

	login := accounts.byEntity(models.RoleTeacher, "T001")
	require.NotNil(t, login)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(login.PasswordHash), []byte("engine1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherServiceUpdateChangesPasswordAndEmail(t *testing.T) {
	entity := "T001"
	repo := &teacherStoreMock{teachers: map[string]models.Teacher{"T001": {ID: "T001", Name: "Ada", Email: "ada@school.test"}}}
	accounts := &accountStoreMock{users: []*models.User{{ID: 3, Account: "ada@school.test", PasswordHash: "old", Role: models.RoleTeacher, EntityID: &entity}}}
	db, mock := newTxProviderMock(t)
	svc := NewTeacherService(repo, accounts, db, nil, nil, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	major := "Mathematics"
	teacher, err := svc.Update(context.Background(), "T001", TeacherRequest{ID: "T001", Name: "Ada L", Email: "lovelace@school.test", Password: "newpass", Major: &major})
	require.NoError(t, err)
	require.NotNil(t, teacher.Major)
	assert.Equal(t, "Mathematics", *teacher.Major)

	login := accounts.byEntity(models.RoleTeacher, "T001")
	require.NotNil(t, login)
	assert.Equal(t, "lovelace@school.test", login.Account)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(login.PasswordHash), []byte("newpass")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherServiceUpdateRejectsEmailOfAnotherAccount(t *testing.T) {
	ada, alan := "T001", "T002"
	repo := &teacherStoreMock{teachers: map[string]models.Teacher{"T001": {ID: "T001"}, "T002": {ID: "T002"}}}
	accounts := &accountStoreMock{users: []*models.User{
		{ID: 1, Account: "ada@school.test", Role: models.RoleTeacher, EntityID: &ada},
		{ID: 2, Account: "alan@school.test", Role: models.RoleTeacher, EntityID: &alan},
	}}
	db, mock := newTxProviderMock(t)
	svc := NewTeacherService(repo, accounts, db, nil, nil, nil)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), "T001", TeacherRequest{ID: "T001", Name: "Ada", Email: "alan@school.test"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherServiceDelete(t *testing.T) {
	entity := "T001"
	repo := &teacherStoreMock{teachers: map[string]models.Teacher{"T001": {ID: "T001"}}}
	accounts := &accountStoreMock{users: []*models.User{{ID: 1, Account: "ada@school.test", Role: models.RoleTeacher, EntityID: &entity}}}
	db, mock := newTxProviderMock(t)
	svc := NewTeacherService(repo, accounts, db, nil, nil, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), "T001"))
	assert.Empty(t, repo.teachers)
	assert.Empty(t, accounts.users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherServiceList(t *testing.T) {
	repo := &teacherStoreMock{teachers: map[string]models.Teacher{"T001": {ID: "T001"}}}
	db, _ := newTxProviderMock(t)
	svc := NewTeacherService(repo, &accountStoreMock{}, db, nil, nil, nil)

	teachers, pagination, err := svc.List(context.Background(), models.TeacherFilter{Major: "Physics", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, "Physics", repo.filter.Major)
}
