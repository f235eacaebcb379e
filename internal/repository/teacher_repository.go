package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(id) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if filter.Major != "" {
		conditions = append(conditions, fmt.Sprintf("major = $%d", len(args)+1))
		args = append(args, filter.Major)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT id, name, email, major %s ORDER BY name ASC LIMIT %d OFFSET %d", base, limit, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Teacher, error) {
	const query = `SELECT id, name, email, major FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := sqlx.GetContext(ctx, exec, &teacher, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// Exists reports whether a teacher id is in use.
func (r *TeacherRepository) Exists(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, exec, &exists, `SELECT EXISTS (SELECT 1 FROM teachers WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check teacher id: %w", err)
	}
	return exists, nil
}

// Create inserts a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, exec sqlx.ExtContext, teacher *models.Teacher) error {
	const query = `INSERT INTO teachers (id, name, email, major) VALUES (:id, :name, :email, :major)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update rewrites the teacher stored under originalID, which may rename it.
func (r *TeacherRepository) Update(ctx context.Context, exec sqlx.ExtContext, originalID string, teacher *models.Teacher) error {
	const query = `UPDATE teachers SET id = $1, name = $2, email = $3, major = $4 WHERE id = $5`
	res, err := exec.ExecContext(ctx, query, teacher.ID, teacher.Name, teacher.Email, teacher.Major, originalID)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a teacher. Owned courses and sessions keep their rows
// with the teacher reference cleared.
func (r *TeacherRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	res, err := exec.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListOptions returns every teacher as a selection option ordered by name.
func (r *TeacherRepository) ListOptions(ctx context.Context) ([]models.Option, error) {
	var options []models.Option
	if err := r.db.SelectContext(ctx, &options, `SELECT id, name AS label FROM teachers ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list teacher options: %w", err)
	}
	return options, nil
}
