package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// StudentRepository handles persistence of student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students filtered by search and year, ordered by name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(id) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT id, name, email, age, sex, year %s ORDER BY name ASC LIMIT %d OFFSET %d", base, limit, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error) {
	const query = `SELECT id, name, email, age, sex, year FROM students WHERE id = $1`
	var student models.Student
	if err := sqlx.GetContext(ctx, exec, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Exists reports whether a student id is in use.
func (r *StudentRepository) Exists(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, exec, &exists, `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check student id: %w", err)
	}
	return exists, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	const query = `INSERT INTO students (id, name, email, age, sex, year) VALUES (:id, :name, :email, :age, :sex, :year)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites the student stored under originalID, which may rename it.
func (r *StudentRepository) Update(ctx context.Context, exec sqlx.ExtContext, originalID string, student *models.Student) error {
	const query = `UPDATE students SET id = $1, name = $2, email = $3, age = $4, sex = $5, year = $6 WHERE id = $7`
	res, err := exec.ExecContext(ctx, query, student.ID, student.Name, student.Email, student.Age, student.Sex, student.Year, originalID)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a student. Marks cascade at the database level.
func (r *StudentRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	res, err := exec.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListOptions returns every student as a selection option ordered by name.
func (r *StudentRepository) ListOptions(ctx context.Context) ([]models.Option, error) {
	var options []models.Option
	if err := r.db.SelectContext(ctx, &options, `SELECT id, name AS label FROM students ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list student options: %w", err)
	}
	return options, nil
}
