// Package gate provides readiness gates: conditions owned by the host that
// a component's load may have to wait for (for example "world data ready").
package gate

import (
	"context"
	"slices"
	"sync"
)

// Gate is a one-way readiness condition.
type Gate interface {
	// Ready reports whether the condition already holds.
	Ready() bool
	// Wait blocks until the condition holds or ctx ends.
	Wait(ctx context.Context) error
}

// Flag is a Gate that becomes ready once Open is called. The zero value is
// not usable; create it with NewFlag.
type Flag struct {
	name string
	once sync.Once
	ch   chan struct{}
}

// NewFlag returns a closed (not ready) gate.
func NewFlag(name string) *Flag {
	return &Flag{name: name, ch: make(chan struct{})}
}

// Name returns the gate's label for logging.
func (f *Flag) Name() string { return f.name }

// Open marks the gate ready and releases all waiters. Calling it more than
// once is harmless.
func (f *Flag) Open() {
	f.once.Do(func() { close(f.ch) })
}

// Ready implements Gate.
func (f *Flag) Ready() bool {
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}

// Wait implements Gate.
func (f *Flag) Wait(ctx context.Context) error {
	select {
	case <-f.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type open struct{}

func (open) Ready() bool { return true }

func (open) Wait(context.Context) error { return nil }

// AlwaysReady returns a Gate that never blocks.
func AlwaysReady() Gate { return open{} }

// Set holds named gates so hosts and manifests can refer to them by name.
type Set struct {
	mu    sync.Mutex
	flags map[string]*Flag
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{flags: make(map[string]*Flag)}
}

// Get returns the named gate, creating it closed on first use.
func (s *Set) Get(name string) *Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flags[name]
	if !ok {
		f = NewFlag(name)
		s.flags[name] = f
	}
	return f
}

// Open opens the named gate.
func (s *Set) Open(name string) {
	s.Get(name).Open()
}

// Names returns the names of all gates created so far, sorted.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.flags))
	for name := range s.flags {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
