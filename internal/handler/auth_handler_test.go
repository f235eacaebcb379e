package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type fakeAuthSrv struct {
	loginErr  error
	registers []models.RegisterRequest
}

func (f *fakeAuthSrv) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{AccessToken: "signed-token", ExpiresIn: 3600, User: models.UserInfo{ID: 1, Account: req.Account, Role: models.RoleAdmin}}, nil
}

func (f *fakeAuthSrv) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	f.registers = append(f.registers, req)
	return &models.RegisterResponse{UserID: 7, EntityID: "S007", Role: req.Role}, nil
}

func (f *fakeAuthSrv) Me(ctx context.Context, principal models.Principal) (*models.UserInfo, error) {
	return &models.UserInfo{ID: principal.UserID, Role: principal.Role, EntityID: principal.EntityID}, nil
}

func (f *fakeAuthSrv) TokenTTL() time.Duration { return time.Hour }

func TestAuthHandlerLoginSetsHttpOnlyCookie(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{}, CookieConfig{Name: "auth_token"})
	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"account": "admin@school.test", "password": "secret"}, nil)

	handler.Login(c)

	assertStatus(t, rec, http.StatusOK)
	cookie := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, "auth_token=signed-token"))
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "Max-Age=3600")
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "signed-token")
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials}, CookieConfig{Name: "auth_token"})
	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"account": "a@b.c", "password": "x"}, nil)

	handler.Login(c)

	assertStatus(t, rec, http.StatusUnauthorized)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{}, CookieConfig{Name: "auth_token"})
	c, rec := newTestContext(http.MethodPost, "/auth/logout", nil, nil)

	handler.Logout(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestAuthHandlerRegister(t *testing.T) {
	fake := &fakeAuthSrv{}
	handler := NewAuthHandler(fake, CookieConfig{})
	c, rec := newTestContext(http.MethodPost, "/auth/register", map[string]string{
		"full_name": "Grace", "email": "grace@school.test", "password": "secret1", "role": "student",
	}, nil)

	handler.Register(c)

	assertStatus(t, rec, http.StatusCreated)
	require.Len(t, fake.registers, 1)
	assert.Equal(t, models.RoleStudent, fake.registers[0].Role)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "S007")
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{}, CookieConfig{})

	c, rec := newTestContext(http.MethodGet, "/auth/me", nil, nil)
	handler.Me(c)
	assertStatus(t, rec, http.StatusUnauthorized)

	c, rec = newTestContext(http.MethodGet, "/auth/me", nil, &models.JWTClaims{UserID: 9, Role: models.RoleStudent, EntityID: "S009"})
	handler.Me(c)
	assertStatus(t, rec, http.StatusOK)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "S009")
}
