package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

// fieldErrors returns the validation errors reported for field.
func fieldErrors(errs []ValidationError, field string) []ValidationError {
	var out []ValidationError
	for _, err := range errs {
		if err.Field == field {
			out = append(out, err)
		}
	}
	return out
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		field    string
		hasError bool
	}{
		{"lock timeout zero", func(c *Config) { c.Lifecycle.LockTimeoutMs = 0 }, "lifecycle.lock_timeout_ms", true},
		{"lock timeout too large", func(c *Config) { c.Lifecycle.LockTimeoutMs = 2 * 60 * 60 * 1000 }, "lifecycle.lock_timeout_ms", true},
		{"lock timeout valid", func(c *Config) { c.Lifecycle.LockTimeoutMs = 500 }, "lifecycle.lock_timeout_ms", false},
		{"gate empty is valid", func(c *Config) { c.Lifecycle.Gate = "" }, "lifecycle.gate", false},
		{"gate with dash", func(c *Config) { c.Lifecycle.Gate = "world-ready" }, "lifecycle.gate", false},
		{"gate with space", func(c *Config) { c.Lifecycle.Gate = "world ready" }, "lifecycle.gate", true},
		{"gate starting with digit", func(c *Config) { c.Lifecycle.Gate = "1world" }, "lifecycle.gate", true},
		{"gate timeout negative", func(c *Config) { c.Lifecycle.GateTimeoutMs = -1 }, "lifecycle.gate_timeout_ms", true},
		{"level debug", func(c *Config) { c.Logging.Level = "debug" }, "logging.level", false},
		{"level empty", func(c *Config) { c.Logging.Level = "" }, "logging.level", false},
		{"level unknown", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level", true},
		{"level case sensitive", func(c *Config) { c.Logging.Level = "INFO" }, "logging.level", true},
		{"log dir null byte", func(c *Config) { c.Logging.Dir = "logs\x00" }, "logging.dir", true},
		{"max size zero", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb", true},
		{"max size too large", func(c *Config) { c.Logging.MaxSizeMB = 5000 }, "logging.max_size_mb", true},
		{"max backups negative", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups", true},
		{"max backups zero", func(c *Config) { c.Logging.MaxBackups = 0 }, "logging.max_backups", false},
		{"manifest path empty", func(c *Config) { c.Manifest.Path = "  " }, "manifest.path", true},
		{"manifest path null byte", func(c *Config) { c.Manifest.Path = "a\x00.yaml" }, "manifest.path", true},
		{"debounce negative", func(c *Config) { c.Manifest.DebounceMs = -10 }, "manifest.debounce_ms", true},
		{"debounce zero", func(c *Config) { c.Manifest.DebounceMs = 0 }, "manifest.debounce_ms", false},
		{"tick disabled", func(c *Config) { c.Tick.IntervalMs = 0 }, "tick.interval_ms", false},
		{"tick negative", func(c *Config) { c.Tick.IntervalMs = -1 }, "tick.interval_ms", true},
		{"tick too fast", func(c *Config) { c.Tick.IntervalMs = 1 }, "tick.interval_ms", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := fieldErrors(cfg.Validate(), tt.field)

			if tt.hasError && len(errs) == 0 {
				t.Errorf("expected validation error for %s", tt.field)
			}
			if !tt.hasError && len(errs) > 0 {
				t.Errorf("unexpected validation errors for %s: %v", tt.field, errs)
			}
		})
	}
}

func TestConfig_Validate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Lifecycle.LockTimeoutMs = -1
	cfg.Logging.Level = "nope"
	cfg.Tick.IntervalMs = -1

	if errs := cfg.Validate(); len(errs) != 3 {
		t.Errorf("Validate() returned %d errors, want 3: %v", len(errs), errs)
	}
}
