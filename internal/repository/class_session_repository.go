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

const classSessionColumns = "id, course_id, teacher_id, room_id, day_of_week, start_time, end_time, term, created_at, updated_at"

const classSessionDetailSelect = `SELECT cs.id, cs.course_id, cs.teacher_id, cs.room_id, cs.day_of_week, cs.start_time, cs.end_time, cs.term, cs.created_at, cs.updated_at, c.name AS course_name, t.name AS teacher_name
FROM class_sessions cs JOIN courses c ON c.id = cs.course_id LEFT JOIN teachers t ON t.id = cs.teacher_id`

// ClassSessionRepository persists weekly class sessions.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs a ClassSessionRepository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// FindOverlapping returns sessions booked for the filter's room or teacher
// on the same day and term whose time range intersects [StartTime, EndTime).
func (r *ClassSessionRepository) FindOverlapping(ctx context.Context, exec sqlx.ExtContext, filter models.OverlapFilter) ([]models.ClassSession, error) {
	var conditions []string
	var args []interface{}

	switch {
	case filter.RoomID != "":
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	case filter.TeacherID != "":
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	default:
		return nil, fmt.Errorf("find overlapping class sessions: room or teacher required")
	}

	conditions = append(conditions,
		fmt.Sprintf("day_of_week = $%d", len(args)+1),
		fmt.Sprintf("term = $%d", len(args)+2),
		fmt.Sprintf("start_time < $%d", len(args)+3),
		fmt.Sprintf("end_time > $%d", len(args)+4),
	)
	args = append(args, filter.DayOfWeek, filter.Term, filter.EndTime, filter.StartTime)

	if filter.ExcludeID != "" {
		conditions = append(conditions, fmt.Sprintf("id <> $%d", len(args)+1))
		args = append(args, filter.ExcludeID)
	}

	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE %s ORDER BY start_time ASC", classSessionColumns, strings.Join(conditions, " AND "))
	var sessions []models.ClassSession
	if err := sqlx.SelectContext(ctx, exec, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping class sessions: %w", err)
	}
	return sessions, nil
}

// FindByID loads a class session by id.
func (r *ClassSessionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassSession, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE id = $1", classSessionColumns)
	var session models.ClassSession
	if err := sqlx.GetContext(ctx, exec, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class session: %w", err)
	}
	return &session, nil
}

// GetDetail loads a class session with joined display names.
func (r *ClassSessionRepository) GetDetail(ctx context.Context, id string) (*models.ClassSessionDetail, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	var detail models.ClassSessionDetail
	if err := r.db.GetContext(ctx, &detail, classSessionDetailSelect+" WHERE cs.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get class session detail: %w", err)
	}
	return &detail, nil
}

// Create stores a new class session.
func (r *ClassSessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO class_sessions (id, course_id, teacher_id, room_id, day_of_week, start_time, end_time, term, created_at, updated_at) VALUES (:id, :course_id, :teacher_id, :room_id, :day_of_week, :start_time, :end_time, :term, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, session); err != nil {
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// Update modifies a class session.
func (r *ClassSessionRepository) Update(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	if !isUUID(session.ID) {
		return sql.ErrNoRows
	}
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sessions SET course_id = :course_id, teacher_id = :teacher_id, room_id = :room_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, term = :term, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, exec, query, session)
	if err != nil {
		return fmt.Errorf("update class session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a class session by id.
func (r *ClassSessionRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return sql.ErrNoRows
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns class sessions with optional filtering and pagination,
// newest term first, then by weekday and start time.
func (r *ClassSessionRepository) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error) {
	where, args := classSessionWhere(filter)
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", classSessionDetailSelect, where, classSessionOrder, limit, offset)
	var sessions []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class sessions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM class_sessions cs"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count class sessions: %w", err)
	}
	return sessions, total, nil
}

// ListAll returns every session matching filter without pagination.
func (r *ClassSessionRepository) ListAll(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, error) {
	where, args := classSessionWhere(filter)
	query := fmt.Sprintf("%s%s ORDER BY %s", classSessionDetailSelect, where, classSessionOrder)
	var sessions []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list all class sessions: %w", err)
	}
	return sessions, nil
}

// ListByTeacher returns a teacher's timetable for a term.
func (r *ClassSessionRepository) ListByTeacher(ctx context.Context, teacherID string, term models.Term) ([]models.ClassSessionDetail, error) {
	query := fmt.Sprintf("%s WHERE cs.teacher_id = $1 AND cs.term = $2 ORDER BY %s, cs.start_time ASC", classSessionDetailSelect, dayOrderExpr)
	var sessions []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID, term); err != nil {
		return nil, fmt.Errorf("list class sessions by teacher: %w", err)
	}
	return sessions, nil
}

// ListByStudent returns the sessions of courses the student holds marks in.
func (r *ClassSessionRepository) ListByStudent(ctx context.Context, studentID string, term models.Term) ([]models.ClassSessionDetail, error) {
	query := fmt.Sprintf("%s WHERE cs.course_id IN (SELECT DISTINCT m.course_id FROM marks m WHERE m.student_id = $1) AND cs.term = $2 ORDER BY %s, cs.start_time ASC", classSessionDetailSelect, dayOrderExpr)
	var sessions []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, studentID, term); err != nil {
		return nil, fmt.Errorf("list class sessions by student: %w", err)
	}
	return sessions, nil
}

var (
	dayOrderExpr      = ordinalCase("cs.day_of_week", daysAsStrings())
	termOrderExpr     = ordinalCase("cs.term", termsAsStrings())
	classSessionOrder = termOrderExpr + " DESC, " + dayOrderExpr + " ASC, cs.start_time ASC"
)

func classSessionWhere(filter models.ClassSessionFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("cs.term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("cs.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ordinalCase renders a CASE expression mapping each value to its position.
func ordinalCase(column string, values []string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, v := range values {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", v, i+1)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(values)+1)
	return b.String()
}

func daysAsStrings() []string {
	out := make([]string, 0, len(models.Days))
	for _, d := range models.Days {
		out = append(out, string(d))
	}
	return out
}

func termsAsStrings() []string {
	out := make([]string, 0, len(models.Terms))
	for _, t := range models.Terms {
		out = append(out, string(t))
	}
	return out
}
