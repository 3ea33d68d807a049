// File: internal/handlers/auth_handlers.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/iyunix/go-medtutor/internal/ratelimit"
	"github.com/iyunix/go-medtutor/internal/services/user_services"
)

var (
	usernameRegex     = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	passwordMinLength = 8
)

// AuthHandler holds the dependencies for authentication handlers.
type AuthHandler struct {
	AuthService *user_services.AuthService
	Limiter     *ratelimit.MemoryRateLimiter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *user_services.AuthService, limiter *ratelimit.MemoryRateLimiter) *AuthHandler {
	return &AuthHandler{AuthService: service, Limiter: limiter}
}

// Login validates user credentials and sets the auth cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	clientIP := ratelimit.GetClientIP(r)
	if h.Limiter != nil {
		decision := h.Limiter.Allow(clientIP)
		if !decision.Allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(decision.RetryAfter.Seconds())))
			writeError(w, "Too many login attempts. Try again later.", http.StatusTooManyRequests)
			return
		}
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if !usernameRegex.MatchString(req.Username) {
		writeError(w, "Username must be 3-20 characters, alphanumeric or underscore.", http.StatusBadRequest)
		return
	}
	if len(req.Password) < passwordMinLength {
		writeError(w, "Password must be at least 8 characters.", http.StatusBadRequest)
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if h.Limiter != nil {
			h.Limiter.RecordFailure(clientIP)
		}
		writeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if h.Limiter != nil {
		h.Limiter.RecordSuccess(clientIP)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, user)
}

// Logout clears the auth cookie and the persisted local session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.AuthService.Logout()
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
