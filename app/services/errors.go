package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/pkg/auth"
)

var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong
	// password, so callers cannot tell which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned when a protected operation has no user.
	ErrUnauthorized = errors.New("unauthorized")

	ErrNotFound                  = repositories.ErrNotFound
	ErrDuplicateIdentity         = repositories.ErrDuplicateIdentity
	ErrInconsistentConfiguration = repositories.ErrInconsistentConfiguration
	ErrInvalidResetToken         = auth.ErrInvalidResetToken
)

// DuplicateError is the field-level registration conflict.
type DuplicateError = repositories.DuplicateError

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid input: " + strings.Join(keys, ", ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
