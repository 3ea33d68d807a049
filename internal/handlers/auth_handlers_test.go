// File: internal/handlers/auth_handlers_test.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/localstore"
	"github.com/iyunix/go-medtutor/internal/ratelimit"
	"github.com/iyunix/go-medtutor/internal/services/user_services"
)

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

type stubUserRepo struct {
	user *domain.User
}

func (r *stubUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}

func (r *stubUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, errors.New("user not found")
}

func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if r.user != nil && r.user.Username == username {
		return r.user, nil
	}
	return nil, errors.New("user not found")
}

func (r *stubUserRepo) Update(ctx context.Context, u *domain.User) error { return nil }

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	demo := &domain.User{ID: "u-1", Username: "student"}
	require.NoError(t, demo.HashPassword("medtutor123"))

	svc := user_services.NewAuthService(
		&stubUserRepo{user: demo},
		localstore.New(user_services.SessionTTL),
		"test-secret",
		noopLogger{},
	)
	limiter := ratelimit.NewMemoryRateLimiter(&ratelimit.Config{
		WindowSize:    time.Minute,
		MaxAttempts:   3,
		CleanupPeriod: time.Hour,
		BanDuration:   time.Minute,
	})
	t.Cleanup(limiter.Close)
	return NewAuthHandler(svc, limiter)
}

func postLogin(h *AuthHandler, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin_SetsAuthCookie(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postLogin(h, `{"username":"student","password":"medtutor123"}`, "1.1.1.1")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_RejectsBadInput(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postLogin(h, `not json`, "1.1.1.1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postLogin(h, `{"username":"x","password":"medtutor123"}`, "1.1.1.1")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "username too short")

	rec = postLogin(h, `{"username":"student","password":"short"}`, "1.1.1.1")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "password too short")

	rec = postLogin(h, `{"username":"student","password":"wrong-password"}`, "1.1.1.1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Rejected-before-credential-check requests don't count toward the
	// rate limit, so a valid login from the same client still succeeds.
	rec = postLogin(h, `{"username":"student","password":"medtutor123"}`, "1.1.1.1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	h := newTestAuthHandler(t)

	for i := 0; i < 3; i++ {
		rec := postLogin(h, `{"username":"student","password":"wrong-password"}`, "9.9.9.9")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := postLogin(h, `{"username":"student","password":"medtutor123"}`, "9.9.9.9")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// A different client is not throttled.
	rec = postLogin(h, `{"username":"student","password":"medtutor123"}`, "2.2.2.2")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := newTestAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
}
