// Package services holds the business logic for departments, forms, fields,
// files, submissions and the surrounding admin features. This file
// centralizes the error kinds services return so controllers can translate
// them into HTTP responses consistently; internal database errors are
// wrapped and never shown to end users verbatim.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates an entity lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller may not act on the entity.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries per-field messages, keyed by field key. Repeater
// children are keyed as "<parent>.<index>.<child>".
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for k, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(msgs, "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) add(key, msg string) {
	e.Fields[key] = append(e.Fields[key], msg)
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// ServiceError is a business-rule violation whose message is safe to show
// to the end user (inactive form, duplicate submission, blocked delete...).
type ServiceError struct {
	Msg string
}

func (e *ServiceError) Error() string { return e.Msg }

func serviceErrorf(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Msg: fmt.Sprintf(format, args...)}
}

// StorageError wraps upload/move/delete failures, including the
// path-traversal guard.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }
