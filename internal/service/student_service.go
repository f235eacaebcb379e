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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error)
	Exists(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
	Update(ctx context.Context, exec sqlx.ExtContext, originalID string, student *models.Student) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// StudentRequest is the payload for creating or editing a student. The
// password is required on create and optional on edit.
type StudentRequest struct {
	ID       string `json:"id" validate:"required,max=20"`
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Age      *int   `json:"age" validate:"omitempty,min=1,max=120"`
	Sex      string `json:"sex" validate:"omitempty,oneof=M F"`
	Year     int    `json:"year" validate:"omitempty,min=1,max=12"`
}

// StudentService handles student use-cases. Every write keeps the
// student's login account in step within the same transaction.
type StudentService struct {
	repo      studentRepository
	accounts  accountRepository
	db        dbExecutor
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, accounts accountRepository, db dbExecutor, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, accounts: accounts, db: db, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new student together with its login account.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (student *models.Student, err error) {
	student, err = s.buildStudent(req)
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

	if err = s.ensureIDFree(ctx, tx, student.ID); err != nil {
		return nil, err
	}
	if err = ensureAccountFree(ctx, tx, s.accounts, student.Email, ""); err != nil {
		return nil, err
	}
	if err = s.repo.Create(ctx, tx, student); err != nil {
		return nil, studentWriteError(err, "failed to create student")
	}
	if err = syncAccount(ctx, tx, s.accounts, models.RoleStudent, "", student.ID, student.Email, req.Password); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "failed to commit student")
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update edits the student stored under id. The id itself may change; the
// login account follows it.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (student *models.Student, err error) {
	student, err = s.buildStudent(req)
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
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if student.ID != id {
		if err = s.ensureIDFree(ctx, tx, student.ID); err != nil {
			return nil, err
		}
	}
	if err = ensureAccountFree(ctx, tx, s.accounts, student.Email, id); err != nil {
		return nil, err
	}
	if err = s.repo.Update(ctx, tx, id, student); err != nil {
		return nil, studentWriteError(err, "failed to update student")
	}
	if err = syncAccount(ctx, tx, s.accounts, models.RoleStudent, id, student.ID, student.Email, req.Password); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "failed to commit student")
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	return student, nil
}

// Delete removes a student, its marks and its login account.
func (s *StudentService) Delete(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTxx(ctx, writeTxOptions)
	if err != nil {
		return appErrors.Internal(err, "failed to begin transaction")
	}
	defer rollbackOnError(tx, &err)

	if err = s.repo.Delete(ctx, tx, id); err != nil {
		return studentWriteError(err, "failed to delete student")
	}
	if err = s.accounts.DeleteByEntity(ctx, tx, models.RoleStudent, id); err != nil {
		return appErrors.Internal(err, "failed to delete login account")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Internal(err, "failed to commit student deletion")
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) buildStudent(req StudentRequest) (*models.Student, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normaliseAccount(req.Email)
	req.Sex = strings.ToUpper(strings.TrimSpace(req.Sex))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	student := &models.Student{ID: req.ID, Name: req.Name, Email: req.Email, Age: req.Age, Sex: req.Sex, Year: req.Year}
	if student.Sex == "" {
		student.Sex = "M"
	}
	if student.Year == 0 {
		student.Year = 1
	}
	return student, nil
}

func (s *StudentService) ensureIDFree(ctx context.Context, exec sqlx.ExtContext, id string) error {
	exists, err := s.repo.Exists(ctx, exec, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check student id")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "student id already exists")
	}
	return nil
}

func studentWriteError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	case repository.IsUniqueViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student id already exists")
	default:
		return appErrors.Internal(err, message)
	}
}
