package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingDependency matches every InitializationError via errors.Is
var ErrMissingDependency = errors.New("missing dependency")

// InitializationError lists what Wire or Validate found missing
type InitializationError struct {
	Message     string
	MissingDeps []string
}

// NewInitializationError creates a new initialization error
func NewInitializationError(message string, missingDeps []string) *InitializationError {
	return &InitializationError{Message: message, MissingDeps: missingDeps}
}

func (e *InitializationError) Error() string {
	if len(e.MissingDeps) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.MissingDeps, ", "))
}

func (e *InitializationError) Is(target error) bool {
	return target == ErrMissingDependency
}
