// ABOUTME: Error types for board operations
// ABOUTME: Sentinel errors plus a ValidationError for malformed input

package board

import (
	"errors"
	"fmt"
)

// ErrParentCycle is returned when setting a task's parent would create a
// cycle in the subtask tree.
var ErrParentCycle = errors.New("parent link would create a cycle")

// ErrAgentReferenced is returned when deleting an agent that is still
// assigned to open tasks. Callers reassign or close those tasks first.
var ErrAgentReferenced = errors.New("agent is assigned to open tasks")

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
