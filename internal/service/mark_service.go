package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type markRepository interface {
	List(ctx context.Context, filter models.MarkFilter) ([]models.MarkDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.MarkDetail, error)
	Create(ctx context.Context, mark *models.Mark) error
	Update(ctx context.Context, mark *models.Mark) error
	Delete(ctx context.Context, id string) error
}

type courseOwnership interface {
	IsOwnedBy(ctx context.Context, courseID, teacherID string) (bool, error)
	ListOptions(ctx context.Context, teacherID string) ([]models.Option, error)
}

// MarkRequest is the payload for recording a mark.
type MarkRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	CourseID  string   `json:"course_id" validate:"required"`
	Grade     *float64 `json:"grade" validate:"required,gte=0,lte=100"`
}

// MarkOptions lists the students and courses a caller may pick from.
type MarkOptions struct {
	Students []models.Option `json:"students"`
	Courses  []models.Option `json:"courses"`
}

// MarkService manages marks. Teachers are limited to the courses they own.
type MarkService struct {
	repo      markRepository
	courses   courseOwnership
	students  optionLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkService constructs a MarkService.
func NewMarkService(repo markRepository, courses courseOwnership, students optionLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{repo: repo, courses: courses, students: students, cache: cache, validator: validate, logger: logger}
}

// List returns marks visible to the principal.
func (s *MarkService) List(ctx context.Context, principal models.Principal, filter models.MarkFilter) ([]models.MarkDetail, *models.Pagination, error) {
	if principal.Role == models.RoleTeacher {
		if principal.EntityID == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a profile")
		}
		filter.TeacherID = principal.EntityID
	}
	marks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list marks")
	}
	return marks, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a mark when the principal may see it.
func (s *MarkService) Get(ctx context.Context, principal models.Principal, id string) (*models.MarkDetail, error) {
	return s.loadVisible(ctx, principal, id)
}

// Create records a new mark.
func (s *MarkService) Create(ctx context.Context, principal models.Principal, req MarkRequest) (*models.Mark, error) {
	mark, err := s.buildMark(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCourseAllowed(ctx, principal, mark.CourseID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, mark); err != nil {
		return nil, markWriteError(err, "failed to create mark")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return mark, nil
}

// Update rewrites a mark. A teacher must own both the current and the new course.
func (s *MarkService) Update(ctx context.Context, principal models.Principal, id string, req MarkRequest) (*models.Mark, error) {
	mark, err := s.buildMark(req)
	if err != nil {
		return nil, err
	}
	current, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCourseAllowed(ctx, principal, mark.CourseID); err != nil {
		return nil, err
	}
	mark.ID = id
	mark.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, mark); err != nil {
		return nil, markWriteError(err, "failed to update mark")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return mark, nil
}

// Delete removes a mark.
func (s *MarkService) Delete(ctx context.Context, principal models.Principal, id string) error {
	if _, err := s.loadVisible(ctx, principal, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return markWriteError(err, "failed to delete mark")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// Options returns students and the courses the principal may grade.
func (s *MarkService) Options(ctx context.Context, principal models.Principal) (*MarkOptions, error) {
	teacherID := ""
	if principal.Role == models.RoleTeacher {
		if principal.EntityID == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a profile")
		}
		teacherID = principal.EntityID
	}
	students, err := s.students.ListOptions(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load student options")
	}
	courses, err := s.courses.ListOptions(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course options")
	}
	if students == nil {
		students = []models.Option{}
	}
	if courses == nil {
		courses = []models.Option{}
	}
	return &MarkOptions{Students: students, Courses: courses}, nil
}

func (s *MarkService) loadVisible(ctx context.Context, principal models.Principal, id string) (*models.MarkDetail, error) {
	mark, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, markWriteError(err, "failed to load mark")
	}
	if principal.Role == models.RoleTeacher {
		if mark.TeacherID == nil || principal.EntityID == "" || *mark.TeacherID != principal.EntityID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "mark belongs to another teacher's course")
		}
	}
	return mark, nil
}

func (s *MarkService) ensureCourseAllowed(ctx context.Context, principal models.Principal, courseID string) error {
	if principal.Role != models.RoleTeacher {
		return nil
	}
	if principal.EntityID == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a profile")
	}
	owned, err := s.courses.IsOwnedBy(ctx, courseID, principal.EntityID)
	if err != nil {
		return appErrors.Internal(err, "failed to check course ownership")
	}
	if !owned {
		return appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
	}
	return nil
}

func (s *MarkService) buildMark(req MarkRequest) (*models.Mark, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.CourseID = strings.TrimSpace(req.CourseID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid mark payload")
	}
	return &models.Mark{StudentID: req.StudentID, CourseID: req.CourseID, Grade: *req.Grade}, nil
}

func markWriteError(err error, message string) error {
	switch {
	case missingRow(err):
		return appErrors.Clone(appErrors.ErrNotFound, "mark not found")
	case repository.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student or course does not exist")
	case repository.IsUniqueViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student already has a mark for this course")
	default:
		return appErrors.Internal(err, message)
	}
}
