package hooks

import (
	"fmt"
)

// DefaultCompletionPoints is awarded when a skill is completed.
const DefaultCompletionPoints = 100

// Config holds hook configuration.
type Config struct {
	// CompletionPoints is awarded by on-skill-invoke when a skill completes.
	CompletionPoints int `json:"completion_points"`
}

// DefaultConfig returns the configuration the hooks ship with.
func DefaultConfig() *Config {
	return &Config{
		CompletionPoints: DefaultCompletionPoints,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.CompletionPoints < 1 || c.CompletionPoints > 10000 {
		return fmt.Errorf("completion_points must be between 1 and 10000, got %d", c.CompletionPoints)
	}
	return nil
}
