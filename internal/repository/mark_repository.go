package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const markDetailSelect = `SELECT m.id, m.student_id, m.course_id, m.grade, m.created_at, m.updated_at, s.name AS student_name, c.name AS course_name, c.teacher_id
FROM marks m JOIN students s ON s.id = m.student_id JOIN courses c ON c.id = m.course_id`

// MarkRepository manages student marks.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs a MarkRepository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// List returns marks with student and course names.
func (r *MarkRepository) List(ctx context.Context, filter models.MarkFilter) ([]models.MarkDetail, int, error) {
	where := " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("m.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("m.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("%s%s ORDER BY s.name ASC, c.name ASC LIMIT %d OFFSET %d", markDetailSelect, where, limit, offset)
	var marks []models.MarkDetail
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list marks: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM marks m JOIN students s ON s.id = m.student_id JOIN courses c ON c.id = m.course_id" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count marks: %w", err)
	}
	return marks, total, nil
}

// FindByID loads a mark with the owning teacher of its course.
func (r *MarkRepository) FindByID(ctx context.Context, id string) (*models.MarkDetail, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	var mark models.MarkDetail
	if err := r.db.GetContext(ctx, &mark, markDetailSelect+" WHERE m.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mark: %w", err)
	}
	return &mark, nil
}

// Create inserts a new mark.
func (r *MarkRepository) Create(ctx context.Context, mark *models.Mark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	mark.CreatedAt = now
	mark.UpdatedAt = now
	const query = `INSERT INTO marks (id, student_id, course_id, grade, created_at, updated_at) VALUES (:id, :student_id, :course_id, :grade, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("create mark: %w", err)
	}
	return nil
}

// Update modifies a mark.
func (r *MarkRepository) Update(ctx context.Context, mark *models.Mark) error {
	if !isUUID(mark.ID) {
		return sql.ErrNoRows
	}
	mark.UpdatedAt = time.Now().UTC()
	const query = `UPDATE marks SET student_id = :student_id, course_id = :course_id, grade = :grade, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, mark)
	if err != nil {
		return fmt.Errorf("update mark: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a mark by id.
func (r *MarkRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return sql.ErrNoRows
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM marks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mark: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListGradesByStudent returns a student's marks joined with course details.
func (r *MarkRepository) ListGradesByStudent(ctx context.Context, studentID string) ([]models.StudentCourseGrade, error) {
	const query = `SELECT c.id AS course_id, c.name AS course_name, c.department, t.name AS teacher_name, m.grade
FROM marks m JOIN courses c ON c.id = m.course_id LEFT JOIN teachers t ON t.id = c.teacher_id
WHERE m.student_id = $1 ORDER BY c.name ASC`
	var grades []models.StudentCourseGrade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list grades by student: %w", err)
	}
	return grades, nil
}
