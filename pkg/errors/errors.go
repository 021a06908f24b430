// Package errors provides custom error types for the collectionmap system.
// These errors enable programmatic error checking across the ingestion
// pipeline and a single mapping from error kind to HTTP status.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the collectionmap system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidFile indicates an uploaded file could not be parsed
	ErrInvalidFile = errors.New("invalid file")

	// ErrInvalidMapping indicates a header mapping that cannot be applied
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrPersistenceConflict indicates a concurrent write race; the caller may retry
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ParseError represents an uploaded file that could not be parsed.
// Line is the 1-based physical line of the problem, or 0 when unknown.
type ParseError struct {
	Format  string // "csv"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s parse error in %s at line %d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s parse error in %s: %s", e.Format, e.File, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s parse error at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidFile
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// MappingError represents a header mapping that cannot be applied to an upload.
// Column is -1 and Row is 0 when the problem is not tied to one of them.
type MappingError struct {
	Column  int
	Field   string
	Row     int
	Message string
}

// Error implements the error interface
func (e *MappingError) Error() string {
	switch {
	case e.Row > 0:
		return fmt.Sprintf("invalid mapping at row %d: %s", e.Row, e.Message)
	case e.Column >= 0 && e.Field != "":
		return fmt.Sprintf("invalid mapping for column %d (%s): %s", e.Column, e.Field, e.Message)
	case e.Column >= 0:
		return fmt.Sprintf("invalid mapping for column %d: %s", e.Column, e.Message)
	case e.Field != "":
		return fmt.Sprintf("invalid mapping for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid mapping: %s", e.Message)
}

// Is implements errors.Is support
func (e *MappingError) Is(target error) bool {
	return target == ErrInvalidMapping
}

// NewMappingError creates a MappingError that is not tied to a column or row.
func NewMappingError(field, message string) *MappingError {
	return &MappingError{Column: -1, Field: field, Message: message}
}

// NewColumnMappingError creates a MappingError for a specific column.
func NewColumnMappingError(column int, field, message string) *MappingError {
	return &MappingError{Column: column, Field: field, Message: message}
}

// NewRowMappingError creates a MappingError for a specific data row.
func NewRowMappingError(row int, message string) *MappingError {
	return &MappingError{Column: -1, Row: row, Message: message}
}

// ConflictError represents a write that lost a race against a concurrent commit.
type ConflictError struct {
	Resource string // "institution", "collection", "upload"
	Key      string
	Err      error
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conflict writing %s %q: %v", e.Resource, e.Key, e.Err)
	}
	return fmt.Sprintf("conflict writing %s %q", e.Resource, e.Key)
}

// Unwrap implements errors.Unwrap
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrPersistenceConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, key string, err error) *ConflictError {
	return &ConflictError{Resource: resource, Key: key, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "get", "list", "delete"
	Resource  string // "upload", "institution", "collection", "store"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidFile checks if an error is an unparseable upload
func IsInvalidFile(err error) bool {
	return errors.Is(err, ErrInvalidFile)
}

// IsInvalidMapping checks if an error is an unusable header mapping
func IsInvalidMapping(err error) bool {
	return errors.Is(err, ErrInvalidMapping)
}

// IsConflict checks if an error is a retryable persistence conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrPersistenceConflict)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCanceled checks if an error is a cancellation error, including a
// canceled or expired context
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapConflict wraps a backend error as a ConflictError
func WrapConflict(resource, key string, err error) error {
	if err == nil {
		return nil
	}
	return NewConflictError(resource, key, err)
}
