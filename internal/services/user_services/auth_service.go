// File: internal/services/user_services/auth_service.go
package user_services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iyunix/go-medtutor/internal/auth"
	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/localstore"
	"github.com/iyunix/go-medtutor/internal/repository/user"
)

// SessionTTL is the inactivity window before the local session expires.
const SessionTTL = 30 * time.Minute

// AuthService is the auth collaborator the chat core consumes. Besides
// issuing and validating JWTs it owns the persisted local session state
// (token, cached user, expiry, last activity) in the localstore.
type AuthService struct {
	userRepo     user.UserRepository
	store        *localstore.Store
	jwtSecretKey string
	logger       Logger
}

func NewAuthService(userRepo user.UserRepository, store *localstore.Store, jwtSecretKey string, logger Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		store:        store,
		jwtSecretKey: jwtSecretKey,
		logger:       logger,
	}
}

// Login authenticates a user, issues a JWT, and caches the local session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	if username == "" || password == "" {
		s.logger.Warn("login attempt with empty credentials",
			"has_username", username != "",
			"has_password", password != "")
		return nil, "", errors.New("username and password are required")
	}

	found, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Warn("login failed - user not found",
			"username", maskUsername(username), "error", "user_not_found")
		return nil, "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.Password), []byte(password)); err != nil {
		s.logger.Warn("login failed - invalid password",
			"username", maskUsername(username), "user_id", found.ID)
		return nil, "", errors.New("invalid credentials")
	}

	token, err := auth.GenerateJWT(found.ID, []byte(s.jwtSecretKey))
	if err != nil {
		s.logger.Error("failed to generate token", "user_id", found.ID, "error", err)
		return nil, "", errors.New("could not create session")
	}

	s.store.SetToken(token)
	s.store.SetUser(found)
	s.store.SetSessionExpiry(time.Now().Add(SessionTTL))
	s.store.TouchActivity()

	s.logger.Info("user logged in", "user_id", found.ID)
	return found, token, nil
}

// Logout drops all persisted local session state.
func (s *AuthService) Logout() {
	s.store.Clear()
	s.logger.Info("user logged out")
}

// ValidateToken checks a JWT and returns the embedded user id.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	return auth.ValidateToken(tokenString, []byte(s.jwtSecretKey))
}

// CurrentUser returns the cached signed-in user, if the session is alive.
func (s *AuthService) CurrentUser() (*domain.User, bool) {
	if !s.IsAuthenticated() {
		return nil, false
	}
	return s.store.User()
}

// IsAuthenticated reports whether a live, unexpired session exists.
func (s *AuthService) IsAuthenticated() bool {
	if _, ok := s.store.Token(); !ok {
		return false
	}
	if expiry, ok := s.store.SessionExpiry(); !ok || time.Now().After(expiry) {
		return false
	}
	return true
}

// TouchActivity records user activity and slides the session expiry.
func (s *AuthService) TouchActivity() {
	s.store.TouchActivity()
	s.store.SetSessionExpiry(time.Now().Add(SessionTTL))
}

func maskUsername(username string) string {
	if len(username) <= 4 {
		return "****"
	}
	return username[:4] + "****"
}
