package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is the category for any referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized covers bad credentials and missing or invalid tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a valid identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is the category for uniqueness violations.
	ErrConflict = errors.New("conflict")
	// ErrValidation is the category for rejected input.
	ErrValidation = errors.New("validation failed")

	ErrQuizNotFound     = fmt.Errorf("quiz not found: %w", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question not found: %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user not found: %w", ErrNotFound)

	// ErrInvalidCredentials is returned by login for an unknown email or a wrong password.
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	// ErrInvalidToken is the single failure kind of token verification.
	ErrInvalidToken = fmt.Errorf("invalid or expired token: %w", ErrUnauthorized)

	ErrEmailTaken = fmt.Errorf("email is already in use: %w", ErrConflict)

	// ErrInvalidQuiz is returned when scoring a quiz without questions.
	ErrInvalidQuiz = fmt.Errorf("quiz has no questions: %w", ErrValidation)
)

// ValidationError carries either a single message or per-field messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError builds a single-message validation failure.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NewFieldErrors builds a field-level validation failure.
func NewFieldErrors(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
