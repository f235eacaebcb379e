package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

// DashboardRepository runs the aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Totals counts the main entities in one round trip.
func (r *DashboardRepository) Totals(ctx context.Context) (dto.DashboardTotals, error) {
	const query = `SELECT
  (SELECT COUNT(*) FROM students) AS students,
  (SELECT COUNT(*) FROM teachers) AS teachers,
  (SELECT COUNT(*) FROM courses) AS courses,
  (SELECT COUNT(*) FROM rooms) AS rooms,
  (SELECT COUNT(*) FROM class_sessions) AS sessions`
	var totals dto.DashboardTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return dto.DashboardTotals{}, fmt.Errorf("dashboard totals: %w", err)
	}
	return totals, nil
}

// AverageGrade returns the mean of all marks, or nil when none exist.
func (r *DashboardRepository) AverageGrade(ctx context.Context) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, `SELECT AVG(grade) FROM marks`); err != nil {
		return nil, fmt.Errorf("dashboard average grade: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	value := avg.Float64
	return &value, nil
}

// StudentsByYear groups students by year of study.
func (r *DashboardRepository) StudentsByYear(ctx context.Context) ([]dto.DashboardBucket, error) {
	return r.buckets(ctx, "students by year", `SELECT CAST(year AS TEXT) AS label, COUNT(*) AS count FROM students GROUP BY year ORDER BY year`)
}

// TeachersByMajor groups teachers by major, skipping blanks.
func (r *DashboardRepository) TeachersByMajor(ctx context.Context) ([]dto.DashboardBucket, error) {
	return r.buckets(ctx, "teachers by major", `SELECT major AS label, COUNT(*) AS count FROM teachers WHERE major IS NOT NULL AND major <> '' GROUP BY major ORDER BY major`)
}

// CoursesByDepartment groups courses by department, skipping blanks.
func (r *DashboardRepository) CoursesByDepartment(ctx context.Context) ([]dto.DashboardBucket, error) {
	return r.buckets(ctx, "courses by department", `SELECT department AS label, COUNT(*) AS count FROM courses WHERE department IS NOT NULL AND department <> '' GROUP BY department ORDER BY department`)
}

// SessionsByTerm groups class sessions by term.
func (r *DashboardRepository) SessionsByTerm(ctx context.Context) ([]dto.DashboardBucket, error) {
	return r.buckets(ctx, "sessions by term", `SELECT term AS label, COUNT(*) AS count FROM class_sessions GROUP BY term ORDER BY term`)
}

func (r *DashboardRepository) buckets(ctx context.Context, label, query string) ([]dto.DashboardBucket, error) {
	var out []dto.DashboardBucket
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", label, err)
	}
	return out, nil
}
