package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type accountRepository interface {
	AccountTaken(ctx context.Context, exec sqlx.ExtContext, account, entityID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error
	UpdateByEntity(ctx context.Context, exec sqlx.ExtContext, role models.UserRole, entityID, account, newEntityID string, passwordHash *string) (bool, error)
	DeleteByEntity(ctx context.Context, exec sqlx.ExtContext, role models.UserRole, entityID string) error
}

// ensureAccountFree rejects an email already used by a login other than
// the one attached to entityID.
func ensureAccountFree(ctx context.Context, exec sqlx.ExtContext, accounts accountRepository, email, entityID string) error {
	taken, err := accounts.AccountTaken(ctx, exec, email, entityID)
	if err != nil {
		return appErrors.Internal(err, "failed to check account")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "email is already used by another account")
	}
	return nil
}

// syncAccount points the login of a student or teacher at its current id
// and email. An empty password keeps the stored hash. Profiles without a
// login get one, which needs a password.
func syncAccount(ctx context.Context, exec sqlx.ExtContext, accounts accountRepository, role models.UserRole, originalID, entityID, email, password string) error {
	var hash *string
	if password != "" {
		hashed, err := hashPassword(password)
		if err != nil {
			return appErrors.Internal(err, "failed to hash password")
		}
		hash = &hashed
	}

	if originalID != "" {
		updated, err := accounts.UpdateByEntity(ctx, exec, role, originalID, email, entityID, hash)
		if err != nil {
			return accountWriteError(err)
		}
		if updated {
			return nil
		}
	}

	if hash == nil {
		return appErrors.Clone(appErrors.ErrValidation, "password is required to create the login account")
	}
	user := &models.User{Account: email, PasswordHash: *hash, Role: role, EntityID: &entityID}
	if err := accounts.Create(ctx, exec, user); err != nil {
		return accountWriteError(err)
	}
	return nil
}

func accountWriteError(err error) error {
	if repository.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "email is already used by another account")
	}
	return appErrors.Internal(err, "failed to save login account")
}
