// Package testutil provides fake components and helpers for modhost tests.
package testutil

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Journal records lifecycle calls across components in call order.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Record appends an entry such as "load:db".
func (j *Journal) Record(entry string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

// Entries returns a copy of everything recorded so far.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

// Fake is a configurable component. The zero value loads and unloads
// successfully without recording anything.
type Fake struct {
	Name    string
	Journal *Journal

	LoadErr   error
	UnloadErr error
	LoadPanic any

	// Block, when non-nil, makes Load wait until it is closed or ctx ends.
	Block chan struct{}
	// Started, when non-nil, receives a value (non-blocking) as Load begins.
	Started chan struct{}

	Loads    atomic.Int32
	Unloads  atomic.Int32
	Overlaps atomic.Int32

	active atomic.Int32
}

// NewFake returns a Fake writing to journal.
func NewFake(name string, journal *Journal) *Fake {
	return &Fake{Name: name, Journal: journal}
}

func (f *Fake) enter() {
	if f.active.Add(1) > 1 {
		f.Overlaps.Add(1)
	}
}

func (f *Fake) exit() { f.active.Add(-1) }

// Load implements component.Component.
func (f *Fake) Load(ctx context.Context) error {
	f.enter()
	defer f.exit()

	f.Loads.Add(1)
	f.Journal.Record("load:" + f.Name)
	if f.Started != nil {
		select {
		case f.Started <- struct{}{}:
		default:
		}
	}
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.LoadPanic != nil {
		panic(f.LoadPanic)
	}
	return f.LoadErr
}

// Unload implements component.Component.
func (f *Fake) Unload(ctx context.Context) error {
	f.enter()
	defer f.exit()

	f.Unloads.Add(1)
	f.Journal.Record("unload:" + f.Name)
	return f.UnloadErr
}

// ReloadableFake adds reload support to Fake.
type ReloadableFake struct {
	*Fake
	Key       string
	ReloadErr error
	Reloads   atomic.Int32
}

// NewReloadableFake returns a ReloadableFake with the given reload key.
func NewReloadableFake(name, key string, journal *Journal) *ReloadableFake {
	return &ReloadableFake{Fake: NewFake(name, journal), Key: key}
}

// ReloadKey implements component.Reloadable.
func (r *ReloadableFake) ReloadKey() string { return r.Key }

// Reload implements component.Reloadable.
func (r *ReloadableFake) Reload(ctx context.Context) error {
	r.enter()
	defer r.exit()

	r.Reloads.Add(1)
	r.Journal.Record("reload:" + r.Name)
	return r.ReloadErr
}

// ClosingFake is a Fake that owns a resource released through Close.
type ClosingFake struct {
	*Fake
	Closed atomic.Bool
}

// Close implements io.Closer.
func (c *ClosingFake) Close() error {
	c.Closed.Store(true)
	c.Journal.Record("close:" + c.Name)
	return nil
}

// TickingFake counts Tick calls.
type TickingFake struct {
	*Fake
	Ticks atomic.Int32
}

// Tick implements component.Ticker.
func (t *TickingFake) Tick(ctx context.Context, dt time.Duration) {
	t.Ticks.Add(1)
}

// Eventually polls cond until it holds or the timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, msg)
}
