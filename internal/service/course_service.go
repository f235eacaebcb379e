package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, originalID string, course *models.Course) error
	Delete(ctx context.Context, id string) error
	ListOptions(ctx context.Context, teacherID string) ([]models.Option, error)
}

// CourseRequest is the payload for creating or editing a course.
type CourseRequest struct {
	ID         string  `json:"id" validate:"required,max=20"`
	Name       string  `json:"name" validate:"required,max=100"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	TeacherID  *string `json:"teacher_id" validate:"omitempty,max=20"`
}

// CourseService manages courses.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns courses with their teacher names.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, courseWriteError(err, "failed to load course")
	}
	return course, nil
}

// Create stores a new course.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	course, err := s.buildCourse(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, courseWriteError(err, "failed to create course")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return course, nil
}

// Update rewrites the course stored under id.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	course, err := s.buildCourse(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, course); err != nil {
		return nil, courseWriteError(err, "failed to update course")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return course, nil
}

// Delete removes a course. Courses that still carry marks are kept.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "course still has marks and cannot be deleted")
		}
		return courseWriteError(err, "failed to delete course")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// Options lists courses for selection. Teachers only see their own.
func (s *CourseService) Options(ctx context.Context, principal models.Principal) ([]models.Option, error) {
	teacherID := ""
	if principal.Role == models.RoleTeacher {
		if principal.EntityID == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a profile")
		}
		teacherID = principal.EntityID
	}
	options, err := s.repo.ListOptions(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course options")
	}
	return options, nil
}

func (s *CourseService) buildCourse(req CourseRequest) (*models.Course, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}
	return &models.Course{
		ID:         req.ID,
		Name:       req.Name,
		Department: trimmedOrNil(req.Department),
		TeacherID:  trimmedOrNil(req.TeacherID),
	}, nil
}

func courseWriteError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	case repository.IsUniqueViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "course id already exists")
	case repository.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "teacher does not exist")
	default:
		return appErrors.Internal(err, message)
	}
}

// trimmedOrNil trims v and maps blanks to nil.
func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
