package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Account  string `json:"account" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service sign up payload.
type RegisterRequest struct {
	FullName string   `json:"full_name" validate:"required,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     UserRole `json:"role" validate:"required,oneof=student teacher"`
}

// RegisterResponse reports the generated profile id of a new account.
type RegisterResponse struct {
	UserID   int64    `json:"user_id"`
	EntityID string   `json:"entity_id"`
	Role     UserRole `json:"role"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       int64    `json:"id"`
	Account  string   `json:"account"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
	EntityID string   `json:"entity_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   int64    `json:"user_id"`
	Role     UserRole `json:"role"`
	Account  string   `json:"account"`
	FullName string   `json:"full_name"`
	EntityID string   `json:"entity_id,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the token payload into the request principal.
func (c *JWTClaims) Principal() Principal {
	return Principal{
		UserID:   c.UserID,
		Role:     c.Role,
		EntityID: c.EntityID,
		Account:  c.Account,
		FullName: c.FullName,
	}
}
