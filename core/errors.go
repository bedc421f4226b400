package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var ErrInvalidID = &InvalidIDError{}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return "invalid input data"
		}
		return ""
	}
	return err.Err.Error()
}

// InvalidIDError is returned for malformed document IDs.
type InvalidIDError struct {
	Value string
}

func (err InvalidIDError) Error() string {
	if err.Value == "" {
		return "invalid id"
	}
	return fmt.Sprintf("invalid id: %s", err.Value)
}

type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	if err.Resource == "" {
		return "not found"
	}
	return err.Resource + " not found"
}

// ConflictError reports a unique constraint violation.
type ConflictError struct {
	Field string
	Value string
}

func NewConflictError(field, value string) error {
	return &ConflictError{Field: field, Value: value}
}

func (err ConflictError) Error() string {
	if err.Field == "" {
		return "duplicate value"
	}
	return fmt.Sprintf("duplicate field value: %s %q, please use another value", err.Field, err.Value)
}

// ModifiedError means a conditional write lost against a concurrent update of the same document.
type ModifiedError struct {
	Resource string
}

func NewModifiedError(resource string) error {
	return &ModifiedError{Resource: resource}
}

func (err ModifiedError) Error() string {
	if err.Resource == "" {
		return "document was modified concurrently, please retry"
	}
	return err.Resource + " was modified concurrently, please retry"
}

// AuthError means the request could not be authenticated (401).
type AuthError struct {
	Code    string
	Message string
}

func (err AuthError) Error() string { return err.Message }

// PermissionError means the principal is known but not allowed (403).
type PermissionError struct {
	Code    string
	Message string
}

func (err PermissionError) Error() string { return err.Message }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// IsNotFound reports whether err was caused by a missing document.
func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// IsModified reports whether err was caused by a failed conditional write.
func IsModified(err error) bool {
	_, ok := errors.Cause(err).(*ModifiedError)
	return ok
}

// IsOperational reports whether err is an expected client error that is safe to expose.
func IsOperational(err error) bool {
	switch errors.Cause(err).(type) {
	case *ValidationError, validator.ValidationErrors, *InvalidIDError, *NotFoundError,
		*ConflictError, *ModifiedError, *AuthError, *PermissionError:
		return true
	}
	return false
}
