package hooks

import (
	"fmt"
)

// Result is what a hook returns to the host.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Skill   *Skill `json:"skill,omitempty"`
	Error   string `json:"error,omitempty"`
}

func okResult(message string) Result {
	return Result{Success: true, Message: message}
}

func skillResult(skill *Skill) Result {
	return Result{Success: true, Skill: skill}
}

func errorResult(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("hook failed: %s", r.Error)
}
