package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Teacher, error)
	Exists(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, teacher *models.Teacher) error
	Update(ctx context.Context, exec sqlx.ExtContext, originalID string, teacher *models.Teacher) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// TeacherRequest is the payload for creating or editing a teacher.
type TeacherRequest struct {
	ID       string  `json:"id" validate:"required,max=20"`
	Name     string  `json:"name" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"omitempty,min=6"`
	Major    *string `json:"major" validate:"omitempty,max=100"`
}

// TeacherService handles teacher use-cases.
type TeacherService struct {
	repo      teacherRepository
	accounts  accountRepository
	db        dbExecutor
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService builds TeacherService.
func NewTeacherService(repo teacherRepository, accounts accountRepository, db dbExecutor, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, accounts: accounts, db: db, cache: cache, validator: validate, logger: logger}
}

// List returns paginated teachers.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	return teachers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	return teacher, nil
}

// Create adds a new teacher together with its login account.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (teacher *models.Teacher, err error) {
	teacher, err = s.buildTeacher(req)
	if err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password is required")
	}

	tx, err := s.db.BeginTxx(ctx, writeTxOptions)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin transaction")
	}
	defer rollbackOnError(tx, &err)

	if err = s.ensureIDFree(ctx, tx, teacher.ID); err != nil {
		return nil, err
	}
	if err = ensureAccountFree(ctx, tx, s.accounts, teacher.Email, ""); err != nil {
		return nil, err
	}
	if err = s.repo.Create(ctx, tx, teacher); err != nil {
		return nil, teacherWriteError(err, "failed to create teacher")
	}
	if err = syncAccount(ctx, tx, s.accounts, models.RoleTeacher, "", teacher.ID, teacher.Email, req.Password); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "failed to commit teacher")
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID))
	return teacher, nil
}

// Update edits the teacher stored under id. Renaming the id carries its
// courses and class sessions along through ON UPDATE CASCADE.
func (s *TeacherService) Update(ctx context.Context, id string, req TeacherRequest) (teacher *models.Teacher, err error) {
	teacher, err = s.buildTeacher(req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, writeTxOptions)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin transaction")
	}
	defer rollbackOnError(tx, &err)

	if _, err = s.repo.FindByID(ctx, tx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	if teacher.ID != id {
		if err = s.ensureIDFree(ctx, tx, teacher.ID); err != nil {
			return nil, err
		}
	}
	if err = ensureAccountFree(ctx, tx, s.accounts, teacher.Email, id); err != nil {
		return nil, err
	}
	if err = s.repo.Update(ctx, tx, id, teacher); err != nil {
		return nil, teacherWriteError(err, "failed to update teacher")
	}
	if err = syncAccount(ctx, tx, s.accounts, models.RoleTeacher, id, teacher.ID, teacher.Email, req.Password); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "failed to commit teacher")
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	return teacher, nil
}

// Delete removes a teacher and its login. Courses and class sessions keep
// their rows with the teacher cleared.
func (s *TeacherService) Delete(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTxx(ctx, writeTxOptions)
	if err != nil {
		return appErrors.Internal(err, "failed to begin transaction")
	}
	defer rollbackOnError(tx, &err)

	if err = s.repo.Delete(ctx, tx, id); err != nil {
		return teacherWriteError(err, "failed to delete teacher")
	}
	if err = s.accounts.DeleteByEntity(ctx, tx, models.RoleTeacher, id); err != nil {
		return appErrors.Internal(err, "failed to delete login account")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Internal(err, "failed to commit teacher deletion")
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	s.logger.Info("teacher deleted", zap.String("teacher_id", id))
	return nil
}

func (s *TeacherService) buildTeacher(req TeacherRequest) (*models.Teacher, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normaliseAccount(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid teacher payload")
	}
	return &models.Teacher{ID: req.ID, Name: req.Name, Email: req.Email, Major: trimmedOrNil(req.Major)}, nil
}

func (s *TeacherService) ensureIDFree(ctx context.Context, exec sqlx.ExtContext, id string) error {
	exists, err := s.repo.Exists(ctx, exec, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check teacher id")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "teacher id already exists")
	}
	return nil
}

func teacherWriteError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	case repository.IsUniqueViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "teacher id already exists")
	default:
		return appErrors.Internal(err, message)
	}
}
