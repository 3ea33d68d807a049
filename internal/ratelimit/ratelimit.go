// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type Config struct {
	WindowSize    time.Duration // sliding window for counting attempts
	MaxAttempts   int           // attempts allowed per window
	CleanupPeriod time.Duration // sweep interval for stale records
	BanDuration   time.Duration // lockout after the limit is exceeded
}

// DefaultAuthConfig returns the limits applied to login attempts.
func DefaultAuthConfig() *Config {
	return &Config{
		WindowSize:    15 * time.Minute,
		MaxAttempts:   5,
		CleanupPeriod: 30 * time.Minute,
		BanDuration:   30 * time.Minute,
	}
}

type attemptRecord struct {
	count     int
	firstSeen time.Time
	bannedAt  *time.Time
}

// Decision reports the outcome of one Allow check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Banned     bool
}

// MemoryRateLimiter throttles authentication attempts per identifier
// (typically the client IP) with an in-memory sliding window.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	config   *Config
	attempts map[string]*attemptRecord
	stopCh   chan struct{}
}

func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultAuthConfig()
	}
	rl := &MemoryRateLimiter{
		config:   config,
		attempts: make(map[string]*attemptRecord),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether identifier may attempt a login. It never counts:
// only RecordFailure does, so malformed or rejected-before-credential-check
// requests cannot exhaust the window.
func (rl *MemoryRateLimiter) Allow(identifier string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	record, ok := rl.attempts[identifier]
	if !ok {
		return Decision{Allowed: true, Remaining: rl.config.MaxAttempts}
	}

	if record.bannedAt != nil {
		if elapsed := now.Sub(*record.bannedAt); elapsed < rl.config.BanDuration {
			return Decision{Banned: true, RetryAfter: rl.config.BanDuration - elapsed}
		}
	}

	if now.Sub(record.firstSeen) > rl.config.WindowSize {
		return Decision{Allowed: true, Remaining: rl.config.MaxAttempts}
	}
	return Decision{Allowed: true, Remaining: rl.config.MaxAttempts - record.count}
}

// RecordFailure counts one failed credential attempt, banning the
// identifier once the window limit is reached.
func (rl *MemoryRateLimiter) RecordFailure(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	record, ok := rl.attempts[identifier]
	if !ok || now.Sub(record.firstSeen) > rl.config.WindowSize {
		record = &attemptRecord{firstSeen: now}
		rl.attempts[identifier] = record
	}

	record.count++
	if record.count >= rl.config.MaxAttempts {
		banTime := now
		record.bannedAt = &banTime
	}
}

// RecordSuccess clears the attempt history after a successful login.
func (rl *MemoryRateLimiter) RecordSuccess(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, identifier)
}

func (rl *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for identifier, record := range rl.attempts {
		windowExpired := now.Sub(record.firstSeen) > rl.config.WindowSize
		banExpired := record.bannedAt != nil && now.Sub(*record.bannedAt) > rl.config.BanDuration
		if (windowExpired && record.bannedAt == nil) || banExpired {
			delete(rl.attempts, identifier)
		}
	}
}

// Close stops the background cleanup goroutine.
func (rl *MemoryRateLimiter) Close() {
	close(rl.stopCh)
}

// GetClientIP extracts the real client IP, honoring proxy headers.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ips := strings.Split(forwarded, ","); len(ips) > 0 {
			if ip := strings.TrimSpace(ips[0]); ip != "" {
				return ip
			}
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
