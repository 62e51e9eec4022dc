package pkm

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel conditions. Match them with errors.Is; the typed errors below
// carry the details.
var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicate        = errors.New("duplicate resource")
	ErrNotFound         = errors.New("not found")
	ErrMissingParameter = errors.New("missing parameter")
	ErrTimeout          = errors.New("timeout")
	// ErrInconsistency is only ever logged. Operations that hit it still succeed.
	ErrInconsistency = errors.New("inconsistency")
)

// Violation is a single failed field constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every constraint an input violated.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateError reports a uniqueness clash on Resource.Field.
type DuplicateError struct {
	Resource string
	Field    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %s already in use", e.Resource, e.Field)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// NotFoundError reports a missing record, or a tag the owner never used.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// MissingParameterError is returned when a bulk action lacks its argument.
type MissingParameterError struct {
	Action BulkAction
	Param  string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("bulk action %s requires parameter %q", e.Action, e.Param)
}

func (e *MissingParameterError) Is(target error) bool { return target == ErrMissingParameter }

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// Error codes reported in bulk results and HTTP error bodies.
const (
	CodeValidation       = "validation"
	CodeDuplicate        = "duplicate"
	CodeNotFound         = "not_found"
	CodeMissingParameter = "missing_parameter"
	CodeTimeout          = "timeout"
	CodeInternal         = "internal"
)

// ErrorCode maps err onto one of the stable Code* strings.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrDuplicate):
		return CodeDuplicate
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrMissingParameter):
		return CodeMissingParameter
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	default:
		return CodeInternal
	}
}
