// Package apperr defines the error kinds surfaced to API callers. Every kind
// matches a sentinel with errors.Is and carries the field or entity that
// caused it so transports can build a structured response.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("uniqueness conflict")
)

// ValidationError reports malformed input or a violated business rule.
// Details, when set, maps every failing field to its message.
type ValidationError struct {
	Field   string
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a record that is absent or not visible to the requester.
// The two cases are indistinguishable.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a duplicate value for a unique field or field set.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

func Conflict(field, message string) error {
	return &ConflictError{Field: field, Message: message}
}
