// File: internal/services/backend/config.go
package backend

import (
	"fmt"
	"time"
)

// Disclaimer accompanies every export and canned response. The assistant is
// an education simulator, never a source of medical advice.
const Disclaimer = "This conversation was generated by a simulated medical education assistant. " +
	"It is for educational purposes only and is not medical advice."

type Config struct {
	// Pagination
	DefaultPageSize int
	MaxPageSize     int

	// MaxChatsPerUser caps how many chats a single user may accumulate.
	MaxChatsPerUser int

	// Simulated responder latency before an answer is produced. Zero in tests.
	ResponderDelay time.Duration
}

func (c *Config) Validate() error {
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("default_page_size must be positive")
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("max_page_size cannot be below default_page_size")
	}
	if c.MaxChatsPerUser <= 0 {
		return fmt.Errorf("max_chats_per_user must be positive")
	}
	if c.ResponderDelay < 0 {
		return fmt.Errorf("responder_delay cannot be negative")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		DefaultPageSize: 20,
		MaxPageSize:     100,
		MaxChatsPerUser: 100,
		ResponderDelay:  1500 * time.Millisecond,
	}
}
