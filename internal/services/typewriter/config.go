// File: internal/services/typewriter/config.go
package typewriter

import (
	"fmt"
	"time"
)

type Config struct {
	// CharInterval is the per-character reveal delay. The cadence is
	// calibrated per character, not per frame.
	CharInterval time.Duration
}

func (c *Config) Validate() error {
	if c.CharInterval <= 0 {
		return fmt.Errorf("char_interval must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		CharInterval: 30 * time.Millisecond,
	}
}
