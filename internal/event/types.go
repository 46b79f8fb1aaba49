package event

import (
	"time"

	"github.com/Iron-Ham/modhost/internal/component"
)

// Wildcard is the event type used by SubscribeAll.
const Wildcard = "*"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "component.loaded").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Component Lifecycle Events
// -----------------------------------------------------------------------------

// Kind is the lifecycle transition a LifecycleEvent reports.
type Kind string

const (
	KindLoaded   Kind = "loaded"
	KindUnloaded Kind = "unloaded"
	KindReloaded Kind = "reloaded"
)

// Event types for lifecycle events.
const (
	TypeComponentLoaded   = "component.loaded"
	TypeComponentUnloaded = "component.unloaded"
	TypeComponentReloaded = "component.reloaded"
)

// EventType returns the bus event type for k.
func (k Kind) EventType() string {
	return "component." + string(k)
}

// LifecycleEvent is published after a component transition settles,
// whether it succeeded or not.
type LifecycleEvent struct {
	baseEvent
	TypeID    string              // Component type
	Kind      Kind                // Which transition finished
	Success   bool                // Whether the component's routine succeeded
	Component component.Component // Instance the transition ran on
	Err       error               // Failure cause when Success is false
}

// NewLifecycleEvent creates a LifecycleEvent.
func NewLifecycleEvent(kind Kind, typeID string, inst component.Component, err error) LifecycleEvent {
	return LifecycleEvent{
		baseEvent: newBaseEvent(kind.EventType()),
		TypeID:    typeID,
		Kind:      kind,
		Success:   err == nil,
		Component: inst,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Orchestration Events
// -----------------------------------------------------------------------------

// CycleDetectedEvent is emitted when batch resolution finds a circular
// dependency. The batch still proceeds.
type CycleDetectedEvent struct {
	baseEvent
	Chain []string // Types on the cycle, first and last equal
}

// NewCycleDetectedEvent creates a CycleDetectedEvent.
func NewCycleDetectedEvent(chain []string) CycleDetectedEvent {
	return CycleDetectedEvent{
		baseEvent: newBaseEvent("dependency.cycle"),
		Chain:     chain,
	}
}

// BatchCompletedEvent is emitted when LoadAll or UnloadAll finishes.
type BatchCompletedEvent struct {
	baseEvent
	Op     string   // "load" or "unload"
	Order  []string // Types in the order they were processed
	Failed []string // Types whose transition failed
}

// NewBatchCompletedEvent creates a BatchCompletedEvent.
func NewBatchCompletedEvent(op string, order, failed []string) BatchCompletedEvent {
	return BatchCompletedEvent{
		baseEvent: newBaseEvent("batch.completed"),
		Op:        op,
		Order:     order,
		Failed:    failed,
	}
}

// ManifestChangedEvent is emitted after the manifest watcher applies a
// changed manifest.
type ManifestChangedEvent struct {
	baseEvent
	Path    string
	Added   []string
	Removed []string
	Changed []string
	Err     error // Set when the new manifest could not be read or validated
}

// NewManifestChangedEvent creates a ManifestChangedEvent.
func NewManifestChangedEvent(path string, added, removed, changed []string, err error) ManifestChangedEvent {
	return ManifestChangedEvent{
		baseEvent: newBaseEvent("manifest.changed"),
		Path:      path,
		Added:     added,
		Removed:   removed,
		Changed:   changed,
		Err:       err,
	}
}
