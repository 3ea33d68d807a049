// File: internal/localstore/store.go
package localstore

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/iyunix/go-medtutor/internal/domain"
)

// Keys for the persisted session state consumed by the auth collaborator.
const (
	KeyAuthToken     = "auth_token"
	KeyCachedUser    = "cached_user"
	KeySessionExpiry = "session_expiry"
	KeyLastActivity  = "last_activity"
)

// Store is the local key-value store for auth/session state. Entries expire
// with the session TTL; the chat core never touches this directly, only the
// auth service does.
type Store struct {
	cache *cache.Cache
}

// New creates a store whose entries expire after sessionTTL, purging expired
// items every 10 minutes.
func New(sessionTTL time.Duration) *Store {
	return &Store{cache: cache.New(sessionTTL, 10*time.Minute)}
}

func (s *Store) SetToken(token string) {
	s.cache.Set(KeyAuthToken, token, cache.DefaultExpiration)
}

func (s *Store) Token() (string, bool) {
	if x, found := s.cache.Get(KeyAuthToken); found {
		return x.(string), true
	}
	return "", false
}

func (s *Store) SetUser(user *domain.User) {
	s.cache.Set(KeyCachedUser, user, cache.DefaultExpiration)
}

func (s *Store) User() (*domain.User, bool) {
	if x, found := s.cache.Get(KeyCachedUser); found {
		return x.(*domain.User), true
	}
	return nil, false
}

func (s *Store) SetSessionExpiry(t time.Time) {
	s.cache.Set(KeySessionExpiry, t, cache.DefaultExpiration)
}

func (s *Store) SessionExpiry() (time.Time, bool) {
	if x, found := s.cache.Get(KeySessionExpiry); found {
		return x.(time.Time), true
	}
	return time.Time{}, false
}

// TouchActivity records the last user activity timestamp, refreshing its TTL.
func (s *Store) TouchActivity() {
	s.cache.Set(KeyLastActivity, time.Now(), cache.DefaultExpiration)
}

func (s *Store) LastActivity() (time.Time, bool) {
	if x, found := s.cache.Get(KeyLastActivity); found {
		return x.(time.Time), true
	}
	return time.Time{}, false
}

// Clear drops all persisted session state (logout).
func (s *Store) Clear() {
	s.cache.Flush()
}
