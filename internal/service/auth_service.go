package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type authUserRepository interface {
	FindByAccount(ctx context.Context, exec sqlx.ExtContext, account string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	AccountTaken(ctx context.Context, exec sqlx.ExtContext, account, entityID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error
	SetEntityID(ctx context.Context, exec sqlx.ExtContext, id int64, entityID string) error
	DisplayName(ctx context.Context, role models.UserRole, entityID string) (string, error)
}

type studentCreator interface {
	Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
}

type teacherCreator interface {
	Create(ctx context.Context, exec sqlx.ExtContext, teacher *models.Teacher) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret   string
	AccessTokenExpiry   time.Duration
	Issuer              string
	RegistrationEnabled bool
}

// AuthServiceParams groups constructor dependencies.
type AuthServiceParams struct {
	Users     authUserRepository
	Students  studentCreator
	Teachers  teacherCreator
	DB        dbExecutor
	Cache     *CacheService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    AuthConfig
}

// AuthService provides login, registration and token validation.
type AuthService struct {
	users     authUserRepository
	students  studentCreator
	teachers  teacherCreator
	db        dbExecutor
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(params AuthServiceParams) *AuthService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	cfg := params.Config
	if cfg.AccessTokenExpiry <= 0 {
		cfg.AccessTokenExpiry = 8 * time.Hour
	}
	return &AuthService{
		users:     params.Users,
		students:  params.Students,
		teachers:  params.Teachers,
		db:        params.DB,
		cache:     params.Cache,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// TokenTTL reports how long issued access tokens stay valid.
func (s *AuthService) TokenTTL() time.Duration {
	return s.config.AccessTokenExpiry
}

// Login authenticates an account and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Account = normaliseAccount(req.Account)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	user, err := s.users.FindByAccount(ctx, s.db, req.Account)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid account or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid account or password")
	}

	info := s.userInfo(ctx, user)
	issuedAt := s.now().UTC()
	token, err := s.generateAccessToken(info, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		User:        info,
		IssuedAt:    issuedAt,
	}, nil
}

// Register creates a student or teacher account together with its profile.
// The login row, the profile row and the link between them are written in
// one transaction; the profile id is derived from the login serial.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (resp *models.RegisterResponse, err error) {
	if !s.config.RegistrationEnabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration is disabled")
	}
	req.Email = normaliseAccount(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	tx, err := s.db.BeginTxx(ctx, writeTxOptions)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin transaction")
	}
	defer rollbackOnError(tx, &err)

	taken, err := s.users.AccountTaken(ctx, tx, req.Email, "")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check account")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	}

	user := &models.User{Account: req.Email, PasswordHash: hash, Role: req.Role}
	if err = s.users.Create(ctx, tx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "an account with this email already exists")
		}
		return nil, appErrors.Internal(err, "failed to create account")
	}

	entityID := EntityIDFor(req.Role, user.ID)
	switch req.Role {
	case models.RoleStudent:
		err = s.students.Create(ctx, tx, &models.Student{ID: entityID, Name: req.FullName, Email: req.Email, Sex: "M", Year: 1})
	case models.RoleTeacher:
		err = s.teachers.Create(ctx, tx, &models.Teacher{ID: entityID, Name: req.FullName, Email: req.Email})
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create profile")
	}

	if err = s.users.SetEntityID(ctx, tx, user.ID, entityID); err != nil {
		return nil, appErrors.Internal(err, "failed to link profile")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "failed to commit registration")
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	s.logger.Info("account registered", zap.Int64("user_id", user.ID), zap.String("entity_id", entityID))
	return &models.RegisterResponse{UserID: user.ID, EntityID: entityID, Role: req.Role}, nil
}

// Me returns the current user's account details.
func (s *AuthService) Me(ctx context.Context, principal models.Principal) (*models.UserInfo, error) {
	user, err := s.users.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	info := s.userInfo(ctx, user)
	return &info, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// EntityIDFor formats the profile id assigned to a registered login.
func EntityIDFor(role models.UserRole, loginID int64) string {
	prefix := "S"
	if role == models.RoleTeacher {
		prefix = "T"
	}
	return fmt.Sprintf("%s%03d", prefix, loginID)
}

func (s *AuthService) userInfo(ctx context.Context, user *models.User) models.UserInfo {
	info := models.UserInfo{ID: user.ID, Account: user.Account, FullName: user.Account, Role: user.Role}
	if user.EntityID == nil {
		return info
	}
	info.EntityID = *user.EntityID
	name, err := s.users.DisplayName(ctx, user.Role, info.EntityID)
	if err != nil {
		s.logger.Warn("failed to resolve display name", zap.Int64("user_id", user.ID), zap.Error(err))
		return info
	}
	if name != "" {
		info.FullName = name
	}
	return info
}

func (s *AuthService) generateAccessToken(info models.UserInfo, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:   info.ID,
		Role:     info.Role,
		Account:  info.Account,
		FullName: info.FullName,
		EntityID: info.EntityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(info.ID, 10),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func normaliseAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
