package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "lifecycle.lock_timeout_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// gateNameRegex matches gate names: a letter followed by letters, digits,
// hyphens or underscores
var gateNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLifecycle()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateManifest()...)
	errors = append(errors, c.validateTick()...)

	return errors
}

// validateLifecycle validates the LifecycleConfig
func (c *Config) validateLifecycle() []ValidationError {
	var errors []ValidationError

	if c.Lifecycle.LockTimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "lifecycle.lock_timeout_ms",
			Value:   c.Lifecycle.LockTimeoutMs,
			Message: "must be positive",
		})
	}

	// An hour of lock contention is a deadlock, not a slow component
	const maxLockTimeoutMs = 60 * 60 * 1000
	if c.Lifecycle.LockTimeoutMs > maxLockTimeoutMs {
		errors = append(errors, ValidationError{
			Field:   "lifecycle.lock_timeout_ms",
			Value:   c.Lifecycle.LockTimeoutMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxLockTimeoutMs),
		})
	}

	if c.Lifecycle.Gate != "" && !gateNameRegex.MatchString(c.Lifecycle.Gate) {
		errors = append(errors, ValidationError{
			Field:   "lifecycle.gate",
			Value:   c.Lifecycle.Gate,
			Message: "must start with a letter and contain only letters, digits, hyphens or underscores",
		})
	}

	if c.Lifecycle.GateTimeoutMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "lifecycle.gate_timeout_ms",
			Value:   c.Lifecycle.GateTimeoutMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if strings.ContainsRune(c.Logging.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "logging.dir",
			Value:   c.Logging.Dir,
			Message: "contains invalid null character",
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateManifest validates the ManifestConfig
func (c *Config) validateManifest() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Manifest.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "manifest.path",
			Value:   c.Manifest.Path,
			Message: "must not be empty",
		})
	} else if strings.ContainsRune(c.Manifest.Path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "manifest.path",
			Value:   c.Manifest.Path,
			Message: "contains invalid null character",
		})
	}

	if c.Manifest.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "manifest.debounce_ms",
			Value:   c.Manifest.DebounceMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateTick validates the TickConfig
func (c *Config) validateTick() []ValidationError {
	var errors []ValidationError

	if c.Tick.IntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "tick.interval_ms",
			Value:   c.Tick.IntervalMs,
			Message: "must be non-negative (0 disables ticking)",
		})
	}

	if c.Tick.IntervalMs > 0 && c.Tick.IntervalMs < 5 {
		errors = append(errors, ValidationError{
			Field:   "tick.interval_ms",
			Value:   c.Tick.IntervalMs,
			Message: "must be at least 5ms when enabled",
		})
	}

	return errors
}
