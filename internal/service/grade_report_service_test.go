package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type gradeListerStub struct {
	grades map[string][]models.StudentCourseGrade
}

func (s gradeListerStub) ListGradesByStudent(ctx context.Context, studentID string) ([]models.StudentCourseGrade, error) {
	return s.grades[studentID], nil
}

func TestGradeReportComputesGPA(t *testing.T) {
	students := &studentStoreMock{students: map[string]models.Student{"S001": {ID: "S001", Name: "Grace", Year: 2}}}
	marks := gradeListerStub{grades: map[string][]models.StudentCourseGrade{"S001": {
		{CourseID: "C1", CourseName: "Algebra", Grade: 95},
		{CourseID: "C2", CourseName: "Biology", Grade: 82},
		{CourseID: "C3", CourseName: "Chemistry", Grade: 55},
	}}}
	svc := NewGradeReportService(marks, students, nil, 0, nil)

	report, err := svc.ForStudent(context.Background(), models.Principal{Role: models.RoleStudent, EntityID: "S001"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", report.StudentName)
	assert.Equal(t, 2, report.Year)
	require.Len(t, report.Courses, 3)
	assert.Equal(t, "A", report.Courses[0].Letter)
	assert.Equal(t, "B", report.Courses[1].Letter)
	assert.Equal(t, "F", report.Courses[2].Letter)
	assert.Equal(t, 3, report.Courses[0].Credits)
	assert.Equal(t, 9, report.TotalCredits)
	assert.InDelta(t, 2.33, report.GPA, 0.001)
}

func TestGradeReportWithoutMarks(t *testing.T) {
	students := &studentStoreMock{students: map[string]models.Student{"S001": {ID: "S001", Name: "Grace", Year: 1}}}
	svc := NewGradeReportService(gradeListerStub{}, students, nil, 4, nil)

	report, err := svc.Report(context.Background(), "S001")
	require.NoError(t, err)
	assert.Empty(t, report.Courses)
	assert.NotNil(t, report.Courses)
	assert.Zero(t, report.GPA)
	assert.Zero(t, report.TotalCredits)
}

func TestGradeReportAccess(t *testing.T) {
	svc := NewGradeReportService(gradeListerStub{}, &studentStoreMock{students: map[string]models.Student{}}, nil, 3, nil)

	_, err := svc.ForStudent(context.Background(), models.Principal{Role: models.RoleTeacher, EntityID: "T001"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.ForStudent(context.Background(), models.Principal{Role: models.RoleStudent, EntityID: "S404"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
