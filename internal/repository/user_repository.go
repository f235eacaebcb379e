package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const userColumns = "id, account, password_hash, role, entity_id, created_at, updated_at"

// UserRepository provides access to login accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByAccount returns a login account by its account name.
func (r *UserRepository) FindByAccount(ctx context.Context, exec sqlx.ExtContext, account string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM login WHERE account = $1 LIMIT 1", userColumns)
	var user models.User
	if err := sqlx.GetContext(ctx, exec, &user, query, account); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by account: %w", err)
	}
	return &user, nil
}

// FindByID returns a login account by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM login WHERE id = $1 LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// AccountTaken reports whether account belongs to a login other than the
// one linked to entityID. An empty entityID checks against every login.
func (r *UserRepository) AccountTaken(ctx context.Context, exec sqlx.ExtContext, account, entityID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM login WHERE account = $1 AND (entity_id IS NULL OR entity_id <> $2))`
	var taken bool
	if err := sqlx.GetContext(ctx, exec, &taken, query, account, entityID); err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}
	return taken, nil
}

// Create inserts a login row and populates its generated id.
func (r *UserRepository) Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	const query = `INSERT INTO login (account, password_hash, role, entity_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlx.GetContext(ctx, exec, &user.ID, query, user.Account, user.PasswordHash, user.Role, user.EntityID, user.CreatedAt, user.UpdatedAt); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetEntityID links a login row to its student or teacher profile.
func (r *UserRepository) SetEntityID(ctx context.Context, exec sqlx.ExtContext, id int64, entityID string) error {
	const query = `UPDATE login SET entity_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := exec.ExecContext(ctx, query, id, entityID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set user entity: %w", err)
	}
	return nil
}

// UpdateByEntity rewrites the account, entity link and optionally the
// password of the login attached to a profile. It reports whether a row
// was updated.
func (r *UserRepository) UpdateByEntity(ctx context.Context, exec sqlx.ExtContext, role models.UserRole, entityID, account, newEntityID string, passwordHash *string) (bool, error) {
	var (
		res sql.Result
		err error
	)
	now := time.Now().UTC()
	if passwordHash != nil {
		res, err = exec.ExecContext(ctx, `UPDATE login SET account = $1, entity_id = $2, password_hash = $3, updated_at = $4 WHERE entity_id = $5 AND role = $6`,
			account, newEntityID, *passwordHash, now, entityID, role)
	} else {
		res, err = exec.ExecContext(ctx, `UPDATE login SET account = $1, entity_id = $2, updated_at = $3 WHERE entity_id = $4 AND role = $5`,
			account, newEntityID, now, entityID, role)
	}
	if err != nil {
		return false, fmt.Errorf("update user by entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update user by entity: %w", err)
	}
	return affected > 0, nil
}

// DeleteByEntity removes the login attached to a profile.
func (r *UserRepository) DeleteByEntity(ctx context.Context, exec sqlx.ExtContext, role models.UserRole, entityID string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM login WHERE entity_id = $1 AND role = $2`, entityID, role); err != nil {
		return fmt.Errorf("delete user by entity: %w", err)
	}
	return nil
}

// DisplayName resolves the profile name for a student or teacher login.
func (r *UserRepository) DisplayName(ctx context.Context, role models.UserRole, entityID string) (string, error) {
	var query string
	switch role {
	case models.RoleStudent:
		query = `SELECT name FROM students WHERE id = $1`
	case models.RoleTeacher:
		query = `SELECT name FROM teachers WHERE id = $1`
	default:
		return "", nil
	}
	var name string
	if err := r.db.GetContext(ctx, &name, query, entityID); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("resolve display name: %w", err)
	}
	return name, nil
}
