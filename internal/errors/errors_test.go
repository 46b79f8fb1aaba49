package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// LifecycleError Tests
// -----------------------------------------------------------------------------

func TestNewLifecycleError(t *testing.T) {
	err := NewLifecycleError(OpLoad, "db", io.EOF)

	if err.Op != OpLoad {
		t.Errorf("Op = %q, want %q", err.Op, OpLoad)
	}
	if err.TypeID != "db" {
		t.Errorf("TypeID = %q, want %q", err.TypeID, "db")
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
	if got, want := err.Error(), "load failed [component=db]: EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLifecycleError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *LifecycleError
		want string
	}{
		{
			name: "with cause",
			err:  NewLifecycleError(OpUnload, "cache", io.EOF),
			want: "unload failed [component=cache]: EOF",
		},
		{
			name: "without cause",
			err:  NewLifecycleError(OpReload, "kv", nil),
			want: "reload failed [component=kv]",
		},
		{
			name: "without type",
			err:  NewLifecycleError(OpLoad, "", nil),
			want: "load failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLifecycleError_Is(t *testing.T) {
	tests := []struct {
		op      Op
		match   error
		noMatch []error
	}{
		{OpLoad, ErrLoadFailed, []error{ErrUnloadFailed, ErrReloadFailed}},
		{OpUnload, ErrUnloadFailed, []error{ErrLoadFailed, ErrReloadFailed}},
		{OpReload, ErrReloadFailed, []error{ErrLoadFailed, ErrUnloadFailed}},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			err := NewLifecycleError(tt.op, "x", io.ErrUnexpectedEOF)
			if !errors.Is(err, tt.match) {
				t.Errorf("errors.Is(%s, %v) = false, want true", tt.op, tt.match)
			}
			for _, other := range tt.noMatch {
				if errors.Is(err, other) {
					t.Errorf("errors.Is(%s, %v) = true, want false", tt.op, other)
				}
			}
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Error("cause should be reachable through errors.Is")
			}
			if !errors.Is(err, &LifecycleError{}) {
				t.Error("should match any *LifecycleError")
			}
		})
	}
}

func TestLifecycleError_As(t *testing.T) {
	wrapped := fmt.Errorf("batch: %w", NewLifecycleError(OpLoad, "db", io.EOF))

	var lifecycleErr *LifecycleError
	if !errors.As(wrapped, &lifecycleErr) {
		t.Fatal("errors.As should find the LifecycleError")
	}
	if lifecycleErr.TypeID != "db" {
		t.Errorf("TypeID = %q, want %q", lifecycleErr.TypeID, "db")
	}
}

// -----------------------------------------------------------------------------
// LockTimeoutError Tests
// -----------------------------------------------------------------------------

func TestLockTimeoutError(t *testing.T) {
	err := NewLockTimeoutError(OpLoad, "db", 10*time.Second)

	want := "lock timeout [component=db, op=load] after 10s"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrLockTimeout) {
		t.Error("should match ErrLockTimeout")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Error("should match ErrTimeout")
	}
	if errors.Is(err, ErrLoadFailed) {
		t.Error("lock timeout must be distinguishable from a load failure")
	}
	if !err.IsRetryable() {
		t.Error("lock timeouts should be retryable")
	}
}

func TestCircularDependency_String(t *testing.T) {
	c := CircularDependency{Chain: []string{"x", "y", "x"}}
	want := "circular dependency: x -> y -> x"
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNewUnknownComponentError(t *testing.T) {
	err := NewUnknownComponentError("ghost")

	want := "component 'ghost' not found: unknown component"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrUnknownComponent) {
		t.Error("should match ErrUnknownComponent")
	}
	if !errors.Is(err, &NotFoundError{}) {
		t.Error("should match any *NotFoundError")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("should match ErrNotFound")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("factory", "kv")
	if got, want := err.Error(), "factory 'kv' already exists"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, &AlreadyExistsError{}) {
		t.Error("should match any *AlreadyExistsError")
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "message only",
			err:  NewValidationError("id is required"),
			want: "validation error: id is required",
		},
		{
			name: "with field and value",
			err:  NewValidationError("duplicate id").WithField("components[1].id").WithValue("db"),
			want: "validation error [field=components[1].id, value=db]: duplicate id",
		},
		{
			name: "with cause",
			err:  NewValidationError("bad manifest").WithCause(ErrManifestInvalid),
			want: "validation error: bad manifest: manifest is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := NewValidationError("bad").WithCause(ErrUnknownFactory)
	var verr *ValidationError
	if !errors.As(fmt.Errorf("entry 3: %w", err), &verr) {
		t.Error("should be found through wrapping")
	}
	if !errors.Is(err, ErrUnknownFactory) {
		t.Error("should match its cause")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("waiting for world gate", 30*time.Second)
	want := "timeout error: waiting for world gate (timeout: 30s)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Error("should match ErrTimeout")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"lock timeout", NewLockTimeoutError(OpUnload, "a", time.Second), true},
		{"wrapped lock timeout", fmt.Errorf("x: %w", NewLockTimeoutError(OpLoad, "a", time.Second)), true},
		{"load failure", NewLifecycleError(OpLoad, "a", io.EOF), false},
		{"plain timeout sentinel", fmt.Errorf("x: %w", ErrTimeout), true},
		{"plain error", io.EOF, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil", nil, SeverityDebug},
		{"lifecycle", NewLifecycleError(OpLoad, "a", nil), SeverityError},
		{"wrapped lifecycle", fmt.Errorf("x: %w", NewLifecycleError(OpUnload, "a", nil)), SeverityError},
		{"gate timeout", NewTimeoutError("readiness gate", time.Second), SeverityWarning},
		{"lock timeout", NewLockTimeoutError(OpLoad, "a", time.Second), SeverityWarning},
		{"unknown error", io.EOF, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}
