package component

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/Iron-Ham/modhost/internal/errors"
)

// ErrRetired is returned when a transition is attempted on a descriptor
// that an explicit unload has already removed from the registry.
var ErrRetired = errors.New("component descriptor retired")

// Descriptor is the registry's record of one component type: the live
// instance, its lifecycle state and its declared metadata.
//
// State is read lock-free. Instance and metadata are guarded by an RWMutex
// so concurrent readers always see a consistent pair. Transitions are
// serialized by a one-slot semaphore acquired through Acquire.
type Descriptor struct {
	typeID string
	sem    *semaphore.Weighted

	state   atomic.Int32
	retired atomic.Bool

	mu           sync.RWMutex
	instance     Component
	reloadKey    string
	requiresGate bool
	deps         []string
}

// Option configures a Descriptor.
type Option func(*Descriptor)

// WithDependencies declares types that must be loaded first. Duplicates and
// self references are dropped.
func WithDependencies(typeIDs ...string) Option {
	return func(d *Descriptor) {
		d.deps = normalizeDeps(d.typeID, typeIDs)
	}
}

// WithReloadKey marks the descriptor as reloadable under key.
func WithReloadKey(key string) Option {
	return func(d *Descriptor) {
		d.reloadKey = key
	}
}

// WithGate makes Load wait for the host readiness gate.
func WithGate() Option {
	return func(d *Descriptor) {
		d.requiresGate = true
	}
}

// NewDescriptor wraps inst. If inst implements Reloadable and no explicit
// key is given, its own ReloadKey is used.
func NewDescriptor(typeID string, inst Component, opts ...Option) *Descriptor {
	d := &Descriptor{
		typeID:   typeID,
		sem:      semaphore.NewWeighted(1),
		instance: inst,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.reloadKey == "" {
		if r, ok := inst.(Reloadable); ok {
			d.reloadKey = r.ReloadKey()
		}
	}
	return d
}

func normalizeDeps(self string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == self || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// TypeID returns the component type this descriptor tracks.
func (d *Descriptor) TypeID() string { return d.typeID }

// State returns the current lifecycle state.
func (d *Descriptor) State() State { return State(d.state.Load()) }

// IsLoaded reports whether the component is in the Loaded state.
func (d *Descriptor) IsLoaded() bool { return d.State() == Loaded }

// Instance returns the current component instance.
func (d *Descriptor) Instance() Component {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.instance
}

// ReloadKey returns the reload key, or "" when reload is unsupported.
func (d *Descriptor) ReloadKey() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reloadKey
}

// RequiresGate reports whether Load must wait on the readiness gate.
func (d *Descriptor) RequiresGate() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.requiresGate
}

// Dependencies returns a copy of the declared dependency types.
func (d *Descriptor) Dependencies() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.deps)
}

// Transition moves the descriptor to the given state. It fails with
// errors.ErrInvalidTransition when the step is not adjacent.
func (d *Descriptor) Transition(to State) error {
	from := d.State()
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s for %s", errors.ErrInvalidTransition, from, to, d.typeID)
	}
	if !d.state.CompareAndSwap(int32(from), int32(to)) {
		return fmt.Errorf("%w: concurrent change from %s for %s", errors.ErrInvalidTransition, from, d.typeID)
	}
	return nil
}

// Acquire takes the descriptor's exclusive transition lock. It returns
// ctx.Err() if ctx ends first.
func (d *Descriptor) Acquire(ctx context.Context) error {
	return d.sem.Acquire(ctx, 1)
}

// TryAcquire takes the lock only if it is free.
func (d *Descriptor) TryAcquire() bool {
	return d.sem.TryAcquire(1)
}

// Release gives back the lock taken by Acquire or TryAcquire.
func (d *Descriptor) Release() {
	d.sem.Release(1)
}

// Adopt replaces the instance and metadata with next's, keeping this
// descriptor's identity, state and lock. The caller must hold the lock and
// the descriptor must not be loaded.
func (d *Descriptor) Adopt(next *Descriptor) {
	next.mu.RLock()
	inst, key, gate, deps := next.instance, next.reloadKey, next.requiresGate, slices.Clone(next.deps)
	next.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.instance = inst
	d.reloadKey = key
	d.requiresGate = gate
	d.deps = deps
}

// Retire marks the descriptor as removed from the registry. Callers hold
// the lock while retiring so no transition can start afterwards.
func (d *Descriptor) Retire() { d.retired.Store(true) }

// Retired reports whether Retire was called.
func (d *Descriptor) Retired() bool { return d.retired.Load() }

// Snapshot is a point-in-time copy of a descriptor.
type Snapshot struct {
	TypeID       string
	State        State
	Instance     Component
	ReloadKey    string
	RequiresGate bool
	Dependencies []string
}

// Snapshot copies the descriptor's observable fields.
func (d *Descriptor) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{
		TypeID:       d.typeID,
		State:        d.State(),
		Instance:     d.instance,
		ReloadKey:    d.reloadKey,
		RequiresGate: d.requiresGate,
		Dependencies: slices.Clone(d.deps),
	}
}
