package users

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rfid-attendance/attendance/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the user id does not exist.
	ErrNotFound = fmt.Errorf("users: %w", httpx.ErrNotFound)
	// ErrEmailTaken is raised by a repository when the unique email index rejects a write.
	ErrEmailTaken = fmt.Errorf("users: email: %w", httpx.ErrDuplicate)
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = fmt.Errorf("users: %w", httpx.ErrValidation)
)

// Validation messages rendered next to form fields.
const (
	MsgRequired        = "is required"
	MsgTooLong         = "must not exceed 255 characters"
	MsgInvalidEmail    = "must be a valid email address"
	MsgTaken           = "already taken"
	MsgTooShort        = "must be at least 6 characters"
	MsgConfirmMismatch = "confirmation does not match"
)

// ValidationError maps form fields to a human readable message.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// FieldErrors returns the field to message map.
func (e *ValidationError) FieldErrors() map[string]string {
	return e.Fields
}

// FieldErrors extracts the field map from err, or nil when err is not a validation failure.
func FieldErrors(err error) map[string]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
