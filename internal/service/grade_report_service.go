package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

const defaultCreditHours = 3

type gradeLister interface {
	ListGradesByStudent(ctx context.Context, studentID string) ([]models.StudentCourseGrade, error)
}

type studentReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error)
}

// GradeReportService builds a student's grade report with GPA.
type GradeReportService struct {
	marks       gradeLister
	students    studentReader
	db          sqlx.ExtContext
	creditHours int
	logger      *zap.Logger
}

// NewGradeReportService constructs a GradeReportService. Every course
// carries creditHours; non-positive values fall back to 3.
func NewGradeReportService(marks gradeLister, students studentReader, db sqlx.ExtContext, creditHours int, logger *zap.Logger) *GradeReportService {
	if creditHours <= 0 {
		creditHours = defaultCreditHours
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeReportService{marks: marks, students: students, db: db, creditHours: creditHours, logger: logger}
}

// ForStudent returns the report of the student linked to the principal.
func (s *GradeReportService) ForStudent(ctx context.Context, principal models.Principal) (*models.GradeReport, error) {
	if principal.Role != models.RoleStudent || principal.EntityID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "grade reports are only available to students")
	}
	return s.Report(ctx, principal.EntityID)
}

// Report computes the grade report for studentID.
func (s *GradeReportService) Report(ctx context.Context, studentID string) (*models.GradeReport, error) {
	student, err := s.students.FindByID(ctx, s.db, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	grades, err := s.marks.ListGradesByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load grades")
	}

	report := &models.GradeReport{
		StudentID:   student.ID,
		StudentName: student.Name,
		Year:        student.Year,
		Courses:     make([]models.StudentCourseGrade, 0, len(grades)),
	}
	var weighted float64
	for _, g := range grades {
		g.Letter, g.Points = models.LetterGrade(g.Grade)
		g.Credits = s.creditHours
		weighted += g.Points * float64(g.Credits)
		report.TotalCredits += g.Credits
		report.Courses = append(report.Courses, g)
	}
	if report.TotalCredits > 0 {
		report.GPA = math.Round(weighted/float64(report.TotalCredits)*100) / 100
	}
	return report, nil
}
