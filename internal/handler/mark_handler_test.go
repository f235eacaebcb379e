package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type fakeMarkSrv struct {
	principal models.Principal
	filter    models.MarkFilter
	created   *service.MarkRequest
}

func (f *fakeMarkSrv) List(ctx context.Context, principal models.Principal, filter models.MarkFilter) ([]models.MarkDetail, *models.Pagination, error) {
	f.principal = principal
	f.filter = filter
	return []models.MarkDetail{{Mark: models.Mark{ID: "m1", Grade: 90}}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (f *fakeMarkSrv) Get(ctx context.Context, principal models.Principal, id string) (*models.MarkDetail, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "mark belongs to another teacher's course")
}

func (f *fakeMarkSrv) Create(ctx context.Context, principal models.Principal, req service.MarkRequest) (*models.Mark, error) {
	f.created = &req
	return &models.Mark{ID: "m2", StudentID: req.StudentID, CourseID: req.CourseID, Grade: *req.Grade}, nil
}

func (f *fakeMarkSrv) Update(ctx context.Context, principal models.Principal, id string, req service.MarkRequest) (*models.Mark, error) {
	return &models.Mark{ID: id}, nil
}

func (f *fakeMarkSrv) Delete(ctx context.Context, principal models.Principal, id string) error {
	return appErrors.Clone(appErrors.ErrNotFound, "mark not found")
}

func (f *fakeMarkSrv) Options(ctx context.Context, principal models.Principal) (*service.MarkOptions, error) {
	return &service.MarkOptions{}, nil
}

type fakeGradeReporter struct{}

func (fakeGradeReporter) ForStudent(ctx context.Context, principal models.Principal) (*models.GradeReport, error) {
	if principal.Role != models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}
	return &models.GradeReport{StudentID: principal.EntityID, GPA: 3.5, TotalCredits: 6}, nil
}

var teacherClaims = &models.JWTClaims{UserID: 2, Role: models.RoleTeacher, EntityID: "T001"}

func TestMarkHandlerListPassesPrincipalAndFilter(t *testing.T) {
	fake := &fakeMarkSrv{}
	handler := NewMarkHandler(fake, fakeGradeReporter{})
	c, rec := newTestContext(http.MethodGet, "/marks?studentId=S001&courseId=C1", nil, teacherClaims)

	handler.List(c)

	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "T001", fake.principal.EntityID)
	assert.Equal(t, "S001", fake.filter.StudentID)
	assert.Equal(t, "C1", fake.filter.CourseID)
	assert.Equal(t, 1, decodeEnvelope(t, rec).Pagination.TotalCount)
}

func TestMarkHandlerCreate(t *testing.T) {
	fake := &fakeMarkSrv{}
	handler := NewMarkHandler(fake, fakeGradeReporter{})
	c, rec := newTestContext(http.MethodPost, "/marks", map[string]interface{}{"student_id": "S001", "course_id": "C1", "grade": 77.5}, teacherClaims)

	handler.Create(c)

	assertStatus(t, rec, http.StatusCreated)
	require.NotNil(t, fake.created)
	assert.Equal(t, 77.5, *fake.created.Grade)
}

func TestMarkHandlerMapsServiceErrors(t *testing.T) {
	handler := NewMarkHandler(&fakeMarkSrv{}, fakeGradeReporter{})

	c, rec := newTestContext(http.MethodGet, "/marks/m9", nil, teacherClaims)
	c.Params = gin.Params{{Key: "id", Value: "m9"}}
	handler.Get(c)
	assertStatus(t, rec, http.StatusForbidden)

	c, rec = newTestContext(http.MethodDelete, "/marks/m9", nil, teacherClaims)
	c.Params = gin.Params{{Key: "id", Value: "m9"}}
	handler.Delete(c)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestMarkHandlerMyGrades(t *testing.T) {
	handler := NewMarkHandler(&fakeMarkSrv{}, fakeGradeReporter{})

	c, rec := newTestContext(http.MethodGet, "/me/grades", nil, &models.JWTClaims{UserID: 3, Role: models.RoleStudent, EntityID: "S003"})
	handler.MyGrades(c)
	assertStatus(t, rec, http.StatusOK)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"gpa":3.5`)

	c, rec = newTestContext(http.MethodGet, "/me/grades", nil, teacherClaims)
	handler.MyGrades(c)
	assertStatus(t, rec, http.StatusForbidden)
}
