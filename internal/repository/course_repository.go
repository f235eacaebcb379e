package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const courseDetailSelect = `SELECT c.id, c.name, c.department, c.teacher_id, t.name AS teacher_name FROM courses c LEFT JOIN teachers t ON t.id = c.teacher_id`

// CourseRepository manages course persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses with their owning teacher's name.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	where := " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("c.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.name) LIKE $%d OR LOWER(c.id) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("%s%s ORDER BY c.name ASC LIMIT %d OFFSET %d", courseDetailSelect, where, limit, offset)
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses c"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course with its teacher's name.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, courseDetailSelect+" WHERE c.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (id, name, department, teacher_id) VALUES (:id, :name, :department, :teacher_id)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the course stored under originalID, which may rename it.
func (r *CourseRepository) Update(ctx context.Context, originalID string, course *models.Course) error {
	const query = `UPDATE courses SET id = $1, name = $2, department = $3, teacher_id = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, course.ID, course.Name, course.Department, course.TeacherID, originalID)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course. Fails with a foreign key violation while marks
// reference it.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListOptions returns courses as selection options ordered by name. A
// non-empty teacherID restricts the list to that teacher's courses.
func (r *CourseRepository) ListOptions(ctx context.Context, teacherID string) ([]models.Option, error) {
	var options []models.Option
	var err error
	if teacherID != "" {
		err = r.db.SelectContext(ctx, &options, `SELECT id, name AS label FROM courses WHERE teacher_id = $1 ORDER BY name ASC`, teacherID)
	} else {
		err = r.db.SelectContext(ctx, &options, `SELECT id, name AS label FROM courses ORDER BY name ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("list course options: %w", err)
	}
	return options, nil
}

// IsOwnedBy reports whether the course is assigned to the teacher.
func (r *CourseRepository) IsOwnedBy(ctx context.Context, courseID, teacherID string) (bool, error) {
	var owned bool
	if err := r.db.GetContext(ctx, &owned, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1 AND teacher_id = $2)`, courseID, teacherID); err != nil {
		return false, fmt.Errorf("check course owner: %w", err)
	}
	return owned, nil
}
