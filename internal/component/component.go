// Package component defines the contract between the orchestrator and the
// modules it hosts, plus the Descriptor the registry keeps for each of them.
//
// A component only has to implement [Component]. Reload support is opt-in
// through [Reloadable], and per-frame updates through [Ticker]; the two are
// independent of each other and of the lifecycle contract.
//
// Load and Unload receive the caller's context. A synchronous component just
// returns; an asynchronous one may block on I/O and should honor ctx.
package component

import (
	"context"
	"time"
)

// Component is a stateful module with a load/unload lifecycle.
type Component interface {
	Load(ctx context.Context) error
	Unload(ctx context.Context) error
}

// Reloadable is implemented by components that can refresh themselves in
// place. ReloadKey identifies the component for ReloadByKey requests.
type Reloadable interface {
	Component
	ReloadKey() string
	Reload(ctx context.Context) error
}

// Ticker is implemented by components that want periodic updates from the
// host's frame loop. It has no effect on lifecycle ordering.
type Ticker interface {
	Tick(ctx context.Context, dt time.Duration)
}

// Factory builds a fresh component instance.
type Factory func() (Component, error)

// Spec describes how to build a component and what it depends on.
type Spec struct {
	TypeID       string
	New          Factory
	Dependencies []string
	ReloadKey    string
	RequiresGate bool
}

// Build instantiates the component and wraps it in a new Descriptor.
func (s Spec) Build() (*Descriptor, error) {
	inst, err := s.New()
	if err != nil {
		return nil, err
	}
	opts := []Option{WithDependencies(s.Dependencies...)}
	if s.ReloadKey != "" {
		opts = append(opts, WithReloadKey(s.ReloadKey))
	}
	if s.RequiresGate {
		opts = append(opts, WithGate())
	}
	return NewDescriptor(s.TypeID, inst, opts...), nil
}
