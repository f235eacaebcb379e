package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/middleware/requestid"
)

type classSessionRepository interface {
	FindOverlapping(ctx context.Context, exec sqlx.ExtContext, filter models.OverlapFilter) ([]models.ClassSession, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassSession, error)
	GetDetail(ctx context.Context, id string) (*models.ClassSessionDetail, error)
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error
	Update(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error)
	ListByTeacher(ctx context.Context, teacherID string, term models.Term) ([]models.ClassSessionDetail, error)
	ListByStudent(ctx context.Context, studentID string, term models.Term) ([]models.ClassSessionDetail, error)
}

type courseOptionLister interface {
	ListOptions(ctx context.Context, teacherID string) ([]models.Option, error)
}

type optionLister interface {
	ListOptions(ctx context.Context) ([]models.Option, error)
}

type timetableExporter interface {
	Timetable(ctx context.Context, filter models.ClassSessionFilter, format string) (*ExportResult, error)
}

// SaveClassSessionRequest is the payload for creating or editing a class session.
type SaveClassSessionRequest struct {
	CourseID  string  `json:"course_id" validate:"required"`
	TeacherID *string `json:"teacher_id"`
	RoomID    string  `json:"room_id" validate:"required"`
	DayOfWeek string  `json:"day_of_week" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Term      string  `json:"term" validate:"required"`
}

// CheckConflictRequest asks whether a booking would collide without saving it.
type CheckConflictRequest struct {
	RoomID    string  `json:"room_id" validate:"required"`
	TeacherID *string `json:"teacher_id"`
	DayOfWeek string  `json:"day_of_week" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Term      string  `json:"term" validate:"required"`
	ExcludeID *string `json:"exclude_id"`
}

// ScheduleOptions holds the reference data needed to build a booking form.
type ScheduleOptions struct {
	Courses  []models.Option    `json:"courses"`
	Teachers []models.Option    `json:"teachers"`
	Rooms    []models.Option    `json:"rooms"`
	Days     []models.DayOfWeek `json:"days"`
	Terms    []models.Term      `json:"terms"`
}

// ScheduleServiceParams groups constructor dependencies.
type ScheduleServiceParams struct {
	Sessions  classSessionRepository
	Courses   courseOptionLister
	Teachers  optionLister
	Rooms     optionLister
	Tx        txProvider
	Exporter  timetableExporter
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// ScheduleService books class sessions and rejects overlapping room or
// teacher reservations.
type ScheduleService struct {
	sessions  classSessionRepository
	courses   courseOptionLister
	teachers  optionLister
	rooms     optionLister
	tx        txProvider
	exporter  timetableExporter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(params ScheduleServiceParams) *ScheduleService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		sessions:  params.Sessions,
		courses:   params.Courses,
		teachers:  params.Teachers,
		rooms:     params.Rooms,
		tx:        params.Tx,
		exporter:  params.Exporter,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
	}
}

// CheckConflict reports whether candidate would overlap an existing session
// in the same room, or with the same teacher, on the same day and term. The
// session named by excludeID is ignored so an edit never conflicts with its
// own stored version. Nothing is written.
func (s *ScheduleService) CheckConflict(ctx context.Context, candidate models.ClassSession, excludeID *string) (*models.ConflictResult, error) {
	if err := validateCandidate(candidate); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	return s.detectConflict(ctx, tx, candidate, excludeID)
}

// Check parses a conflict check request and runs CheckConflict.
func (s *ScheduleService) Check(ctx context.Context, req CheckConflictRequest) (*models.ConflictResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid conflict check payload")
	}
	candidate, err := parseCandidate(req.RoomID, req.TeacherID, req.DayOfWeek, req.StartTime, req.EndTime, req.Term)
	if err != nil {
		return nil, err
	}
	return s.CheckConflict(ctx, candidate, req.ExcludeID)
}

// Create books a new class session after conflict detection.
func (s *ScheduleService) Create(ctx context.Context, req SaveClassSessionRequest) (*models.ClassSession, error) {
	session, err := s.buildSession(req)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, session, nil)
}

// Update rewrites an existing class session after conflict detection.
func (s *ScheduleService) Update(ctx context.Context, id string, req SaveClassSessionRequest) (*models.ClassSession, error) {
	session, err := s.buildSession(req)
	if err != nil {
		return nil, err
	}
	session.ID = id
	return s.save(ctx, session, &id)
}

// Get returns a class session with display names.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ClassSessionDetail, error) {
	detail, err := s.sessions.GetDetail(ctx, id)
	if err != nil {
		if missingRow(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Internal(err, "failed to load class session")
	}
	return detail, nil
}

// Delete removes a class session.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		if missingRow(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return appErrors.Internal(err, "failed to delete class session")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// List returns class sessions with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, *models.Pagination, error) {
	filter, err := normalizeSessionFilter(filter)
	if err != nil {
		return nil, nil, err
	}

	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list class sessions")
	}
	return sessions, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Timetable returns the caller's weekly sessions for a term. Teachers see
// the sessions they teach, students the sessions of courses they hold marks
// in. An empty term selects the first term.
func (s *ScheduleService) Timetable(ctx context.Context, principal models.Principal, rawTerm string) ([]models.ClassSessionDetail, models.Term, error) {
	term := models.FirstTerm
	if strings.TrimSpace(rawTerm) != "" {
		parsed, ok := models.ParseTerm(rawTerm)
		if !ok {
			return nil, "", appErrors.Clone(appErrors.ErrValidation, "invalid term")
		}
		term = parsed
	}
	if principal.EntityID == "" {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a profile")
	}

	var (
		sessions []models.ClassSessionDetail
		err      error
	)
	switch principal.Role {
	case models.RoleTeacher:
		sessions, err = s.sessions.ListByTeacher(ctx, principal.EntityID, term)
	case models.RoleStudent:
		sessions, err = s.sessions.ListByStudent(ctx, principal.EntityID, term)
	default:
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "timetable is only available to teachers and students")
	}
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to load timetable")
	}
	return sessions, term, nil
}

// Options returns the course, teacher and room lists for booking forms.
func (s *ScheduleService) Options(ctx context.Context) (*ScheduleOptions, error) {
	courses, err := s.courses.ListOptions(ctx, "")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course options")
	}
	teachers, err := s.teachers.ListOptions(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teacher options")
	}
	rooms, err := s.rooms.ListOptions(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load room options")
	}
	return &ScheduleOptions{
		Courses:  courses,
		Teachers: teachers,
		Rooms:    rooms,
		Days:     models.Days,
		Terms:    models.Terms,
	}, nil
}

// Export renders the filtered session list as CSV or PDF.
func (s *ScheduleService) Export(ctx context.Context, filter models.ClassSessionFilter, format string) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "timetable exporter unavailable")
	}
	filter, err := normalizeSessionFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.exporter.Timetable(ctx, filter, format)
}

// normalizeSessionFilter canonicalises the optional term and day so list and
// export accept the same spellings and reject the same garbage.
func normalizeSessionFilter(filter models.ClassSessionFilter) (models.ClassSessionFilter, error) {
	if filter.Term != "" {
		term, ok := models.ParseTerm(string(filter.Term))
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid term")
		}
		filter.Term = term
	}
	if filter.DayOfWeek != "" {
		day, ok := models.ParseDayOfWeek(string(filter.DayOfWeek))
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid day of week")
		}
		filter.DayOfWeek = day
	}
	return filter, nil
}

func (s *ScheduleService) buildSession(req SaveClassSessionRequest) (models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ClassSession{}, appErrors.Validation(err, "invalid class session payload")
	}
	session, err := parseCandidate(req.RoomID, req.TeacherID, req.DayOfWeek, req.StartTime, req.EndTime, req.Term)
	if err != nil {
		return models.ClassSession{}, err
	}
	session.CourseID = strings.TrimSpace(req.CourseID)
	return session, nil
}

// save runs the conflict check and the write in one read-committed
// transaction. The database exclusion constraints catch bookings that race
// past the check.
func (s *ScheduleService) save(ctx context.Context, session models.ClassSession, existingID *string) (*models.ClassSession, error) {
	if err := validateCandidate(session); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, writeTxOptions)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin transaction")
	}
	defer rollbackOnError(tx, &err)

	result, err := s.detectConflict(ctx, tx, session, existingID)
	if err != nil {
		return nil, err
	}
	if result.HasConflict() {
		err = s.conflictError(ctx, result, session)
		return nil, err
	}

	if existingID == nil {
		err = s.sessions.Create(ctx, tx, &session)
	} else {
		err = s.sessions.Update(ctx, tx, &session)
	}
	if err != nil {
		err = s.mapWriteError(ctx, err, session)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = s.mapWriteError(ctx, err, session)
		return nil, err
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	return &session, nil
}

func (s *ScheduleService) detectConflict(ctx context.Context, exec sqlx.ExtContext, candidate models.ClassSession, excludeID *string) (*models.ConflictResult, error) {
	exclude := ""
	if excludeID != nil && strings.TrimSpace(*excludeID) != "" {
		exclude = strings.TrimSpace(*excludeID)
		if _, err := s.sessions.FindByID(ctx, exec, exclude); err != nil {
			if missingRow(err) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
			}
			return nil, appErrors.Internal(err, "failed to load class session")
		}
	}

	base := models.OverlapFilter{
		DayOfWeek: candidate.DayOfWeek,
		Term:      candidate.Term,
		StartTime: candidate.StartTime,
		EndTime:   candidate.EndTime,
		ExcludeID: exclude,
	}

	roomFilter := base
	roomFilter.RoomID = candidate.RoomID
	if existing, err := s.firstOverlap(ctx, exec, roomFilter, candidate); err != nil {
		return nil, err
	} else if existing != nil {
		return &models.ConflictResult{Kind: models.ConflictRoom, SessionID: existing.ID, Existing: existing}, nil
	}

	if candidate.HasTeacher() {
		teacherFilter := base
		teacherFilter.TeacherID = *candidate.TeacherID
		if existing, err := s.firstOverlap(ctx, exec, teacherFilter, candidate); err != nil {
			return nil, err
		} else if existing != nil {
			return &models.ConflictResult{Kind: models.ConflictTeacher, SessionID: existing.ID, Existing: existing}, nil
		}
	}

	return &models.ConflictResult{Kind: models.ConflictNone}, nil
}

func (s *ScheduleService) firstOverlap(ctx context.Context, exec sqlx.ExtContext, filter models.OverlapFilter, candidate models.ClassSession) (*models.ClassSession, error) {
	sessions, err := s.sessions.FindOverlapping(ctx, exec, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check schedule conflicts")
	}
	for i := range sessions {
		existing := sessions[i]
		if filter.ExcludeID != "" && existing.ID == filter.ExcludeID {
			continue
		}
		if !candidate.OverlapsWith(existing) {
			continue
		}
		return &existing, nil
	}
	return nil, nil
}

func (s *ScheduleService) conflictError(ctx context.Context, result *models.ConflictResult, candidate models.ClassSession) error {
	base := appErrors.ErrRoomConflict
	message := fmt.Sprintf("room %s is already booked on %s between %s and %s", candidate.RoomID, candidate.DayOfWeek, candidate.StartTime, candidate.EndTime)
	if result.Kind == models.ConflictTeacher {
		base = appErrors.ErrTeacherConflict
		message = fmt.Sprintf("teacher %s is already scheduled on %s between %s and %s", *candidate.TeacherID, candidate.DayOfWeek, candidate.StartTime, candidate.EndTime)
	}

	conflict := models.ScheduleConflict{SessionID: result.SessionID, Dimension: result.Kind}
	if existing := result.Existing; existing != nil {
		conflict.CourseID = existing.CourseID
		conflict.TeacherID = existing.TeacherID
		conflict.RoomID = existing.RoomID
		conflict.DayOfWeek = existing.DayOfWeek
		conflict.StartTime = existing.StartTime
		conflict.EndTime = existing.EndTime
		conflict.Term = existing.Term
	}

	s.metrics.RecordScheduleConflict(string(result.Kind))
	s.logger.Info("class session rejected",
		zap.String("dimension", string(result.Kind)),
		zap.String("conflicting_session", result.SessionID),
		zap.String("room_id", candidate.RoomID),
		zap.String("day_of_week", string(candidate.DayOfWeek)),
		zap.String("term", string(candidate.Term)),
		zap.String("request_id", requestid.FromContext(ctx)),
	)

	domainErr := &models.ScheduleConflictError{Type: result.Kind, Message: message, Conflict: conflict}
	appErr := appErrors.Wrap(domainErr, base.Code, base.Status, fmt.Sprintf("schedule conflict: %s", message))
	appErr.Details = domainErr
	return appErr
}

func (s *ScheduleService) mapWriteError(ctx context.Context, err error, candidate models.ClassSession) error {
	switch {
	case missingRow(err):
		return appErrors.Clone(appErrors.ErrNotFound, "class session not found")
	case repository.IsExclusionViolation(err):
		kind := models.ConflictRoom
		if strings.Contains(repository.ConstraintName(err), "teacher") {
			kind = models.ConflictTeacher
		}
		return s.conflictError(ctx, &models.ConflictResult{Kind: kind}, candidate)
	case repository.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course, teacher or room does not exist")
	default:
		return appErrors.Internal(err, "failed to save class session")
	}
}

// missingRow reports a lookup that matched nothing, including ids Postgres
// refused to parse for a uuid column.
func missingRow(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsInvalidTextRepresentation(err)
}

func parseClockField(raw, field string) (models.ClockTime, error) {
	c, err := models.ParseClockTime(raw)
	switch {
	case errors.Is(err, models.ErrClockSeconds):
		return 0, appErrors.Validation(err, field+" must be a whole minute; seconds are not supported")
	case err != nil:
		return 0, appErrors.Validation(err, "invalid "+field)
	}
	return c, nil
}

func parseCandidate(roomID string, teacherID *string, rawDay, rawStart, rawEnd, rawTerm string) (models.ClassSession, error) {
	day, ok := models.ParseDayOfWeek(rawDay)
	if !ok {
		return models.ClassSession{}, appErrors.Clone(appErrors.ErrValidation, "invalid day of week")
	}
	term, ok := models.ParseTerm(rawTerm)
	if !ok {
		return models.ClassSession{}, appErrors.Clone(appErrors.ErrValidation, "invalid term")
	}
	start, err := parseClockField(rawStart, "start time")
	if err != nil {
		return models.ClassSession{}, err
	}
	end, err := parseClockField(rawEnd, "end time")
	if err != nil {
		return models.ClassSession{}, err
	}

	session := models.ClassSession{
		RoomID:    strings.TrimSpace(roomID),
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		Term:      term,
	}
	if teacherID != nil && strings.TrimSpace(*teacherID) != "" {
		id := strings.TrimSpace(*teacherID)
		session.TeacherID = &id
	}
	return session, nil
}

// validateCandidate rejects malformed bookings before any query runs.
func validateCandidate(candidate models.ClassSession) error {
	if strings.TrimSpace(candidate.RoomID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "room is required")
	}
	if candidate.DayOfWeek.Index() < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid day of week")
	}
	if !candidate.Term.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid term")
	}
	if !candidate.StartTime.Valid() || !candidate.EndTime.Valid() || candidate.StartTime >= candidate.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, "invalid time range")
	}
	return nil
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
