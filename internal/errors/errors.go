// Package errors provides centralized error definitions and error handling utilities
// for modhost. It defines the lifecycle failure taxonomy, semantic error types,
// their constructors, and classification helpers.
//
// # Error Types
//
// Lifecycle errors are produced while driving a component through a transition:
//   - LifecycleError: a component's load, unload or reload routine failed
//   - LockTimeoutError: the per-component lock could not be acquired in time
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found (unknown components use this type)
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// CircularDependency is a warning value, not an error. The resolver records it
// and the orchestrator logs it; it is never returned.
//
// # Usage
//
//	err := errors.NewLifecycleError(errors.OpLoad, "db", cause)
//
//	if errors.Is(err, errors.ErrLoadFailed) { ... }
//
//	var lockErr *errors.LockTimeoutError
//	if errors.As(err, &lockErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Op identifies the lifecycle operation that produced an error.
type Op string

const (
	OpLoad   Op = "load"
	OpUnload Op = "unload"
	OpReload Op = "reload"
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Lifecycle sentinel errors
var (
	// ErrLoadFailed matches any LifecycleError produced by a load.
	ErrLoadFailed = New("component load failed")
	// ErrUnloadFailed matches any LifecycleError produced by an unload.
	ErrUnloadFailed = New("component unload failed")
	// ErrReloadFailed matches any LifecycleError produced by a reload.
	ErrReloadFailed = New("component reload failed")
	// ErrLockTimeout indicates the per-component lock was not acquired in time.
	ErrLockTimeout = New("component lock timeout")
	// ErrUnknownComponent indicates no descriptor exists for the requested type.
	ErrUnknownComponent = New("unknown component")
	// ErrUnsupportedReload indicates the component does not declare reload support.
	ErrUnsupportedReload = New("component does not support reload")
	// ErrInvalidTransition indicates a state change that skips an adjacent state.
	ErrInvalidTransition = New("invalid state transition")
	// ErrComponentPanicked indicates a component routine panicked.
	ErrComponentPanicked = New("component panicked")
)

// Manifest-related sentinel errors
var (
	// ErrManifestInvalid indicates that the component manifest is malformed.
	ErrManifestInvalid = New("manifest is invalid")
	// ErrUnknownFactory indicates a manifest entry names no registered factory.
	ErrUnknownFactory = New("unknown component factory")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = New("not found")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ModhostError is the base interface for all modhost errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type ModhostError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Lifecycle Errors
// -----------------------------------------------------------------------------

// LifecycleError represents a failed load, unload or reload of a component.
// It carries the originating error, the component type and the operation.
//
// Example:
//
//	err := errors.NewLifecycleError(errors.OpLoad, "db", io.EOF)
//	fmt.Println(err) // "load failed [component=db]: EOF"
type LifecycleError struct {
	baseError
	Op     Op
	TypeID string
}

// NewLifecycleError creates a new LifecycleError.
func NewLifecycleError(op Op, typeID string, cause error) *LifecycleError {
	return &LifecycleError{
		baseError: baseError{
			message:   string(op) + " failed",
			cause:     cause,
			severity:  SeverityError,
			retryable: false,
		},
		Op:     op,
		TypeID: typeID,
	}
}

// Error returns the formatted error message.
func (e *LifecycleError) Error() string {
	prefix := e.message
	if e.TypeID != "" {
		prefix = fmt.Sprintf("%s [component=%s]", e.message, e.TypeID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// Is checks if this error matches the target.
func (e *LifecycleError) Is(target error) bool {
	if _, ok := target.(*LifecycleError); ok {
		return true
	}
	switch {
	case errors.Is(target, ErrLoadFailed):
		return e.Op == OpLoad
	case errors.Is(target, ErrUnloadFailed):
		return e.Op == OpUnload
	case errors.Is(target, ErrReloadFailed):
		return e.Op == OpReload
	}
	return e.baseError.Is(target)
}

// LockTimeoutError reports that a component's exclusive lock could not be
// acquired within the configured bound. It is contention, not a failure of
// the component itself, and the component's state is left untouched.
//
// Example:
//
//	err := errors.NewLockTimeoutError(errors.OpLoad, "db", 10*time.Second)
//	fmt.Println(err) // "lock timeout [component=db, op=load] after 10s"
type LockTimeoutError struct {
	baseError
	Op      Op
	TypeID  string
	Timeout time.Duration
}

// NewLockTimeoutError creates a new LockTimeoutError.
func NewLockTimeoutError(op Op, typeID string, timeout time.Duration) *LockTimeoutError {
	return &LockTimeoutError{
		baseError: baseError{
			message:   "lock timeout",
			severity:  SeverityWarning,
			retryable: true,
		},
		Op:      op,
		TypeID:  typeID,
		Timeout: timeout,
	}
}

// WithCause adds a cause to the error.
func (e *LockTimeoutError) WithCause(cause error) *LockTimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *LockTimeoutError) Error() string {
	base := fmt.Sprintf("lock timeout [component=%s, op=%s] after %s", e.TypeID, e.Op, e.Timeout)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *LockTimeoutError) Is(target error) bool {
	if _, ok := target.(*LockTimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrLockTimeout) || errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// CircularDependency is the diagnostic recorded when dependency resolution
// finds a cycle. Chain lists the types on the active path, ending with the
// type that closed the loop.
type CircularDependency struct {
	Chain []string
}

// String renders the chain as "a -> b -> a".
func (c CircularDependency) String() string {
	return "circular dependency: " + strings.Join(c.Chain, " -> ")
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("component", "db")
//	fmt.Println(err) // "component 'db' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:   fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:  SeverityWarning,
			retryable: false,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// NewUnknownComponentError creates the NotFoundError returned when no
// descriptor or factory exists for a component type or reload key.
func NewUnknownComponentError(id string) *NotFoundError {
	return NewNotFoundError("component", id).WithCause(ErrUnknownComponent)
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if errors.Is(target, ErrNotFound) {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("factory", "kv")
//	fmt.Println(err) // "factory 'kv' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:   fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:  SeverityWarning,
			retryable: false,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("component id cannot be empty")
//	err = err.WithField("components[2].id").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:   message,
			severity:  SeverityWarning,
			retryable: false,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for world gate", 30*time.Second)
//	fmt.Println(err) // "timeout error: waiting for world gate (timeout: 30s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			severity:  SeverityWarning,
			retryable: true, // Timeouts are generally retryable
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Lock timeouts are retryable; component failures
// are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var modErr ModhostError
	if As(err, &modErr) {
		return modErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ModhostError.
// The executor logs component failures at this level.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var modErr ModhostError
	if As(err, &modErr) {
		return modErr.Severity()
	}

	return SeverityError
}
