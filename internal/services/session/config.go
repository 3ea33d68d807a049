// File: internal/services/session/config.go
package session

import "fmt"

type Config struct {
	// PageSize is how many messages one history page requests.
	PageSize int

	// InterruptionMarker is appended to a frozen partial reply to signal
	// abrupt truncation.
	InterruptionMarker string
}

func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	if c.InterruptionMarker == "" {
		return fmt.Errorf("interruption_marker is required")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		PageSize:           20,
		InterruptionMarker: "—",
	}
}
