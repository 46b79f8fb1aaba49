// Package registry holds the single descriptor kept for each component type.
//
// The registry only stores and hands out descriptors. Unloading a replaced
// instance, loading a new one and removing retired entries are decided by
// the orchestrator, which is the only writer. Reads are safe from any
// goroutine and never observe a half-written entry.
package registry

import (
	"slices"
	"sync"

	"github.com/Iron-Ham/modhost/internal/component"
)

// Registry maps component type IDs to descriptors, remembering insertion
// order so listings are stable.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*component.Descriptor
	order       []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		descriptors: make(map[string]*component.Descriptor),
	}
}

// Register stores d unless an entry for the same type already exists, in
// which case the existing descriptor is returned with existed=true and d is
// not stored. Callers replace an existing entry by adopting d into it, which
// keeps a single descriptor per type.
func (r *Registry) Register(d *component.Descriptor) (actual *component.Descriptor, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.descriptors[d.TypeID()]; ok {
		return cur, true
	}
	r.descriptors[d.TypeID()] = d
	r.order = append(r.order, d.TypeID())
	return d, false
}

// Lookup returns the descriptor for typeID.
func (r *Registry) Lookup(typeID string) (*component.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[typeID]
	return d, ok
}

// FindByReloadKey returns the first descriptor, in registration order,
// whose reload key equals key.
func (r *Registry) FindByReloadKey(key string) (*component.Descriptor, bool) {
	if key == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		d := r.descriptors[id]
		if d.ReloadKey() == key {
			return d, true
		}
	}
	return nil, false
}

// Remove deletes the entry for d's type, but only if the registry still
// holds d itself. It reports whether anything was removed.
func (r *Registry) Remove(d *component.Descriptor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.descriptors[d.TypeID()]
	if !ok || cur != d {
		return false
	}
	delete(r.descriptors, d.TypeID())
	if i := slices.Index(r.order, d.TypeID()); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return true
}

// Descriptors returns the live descriptors in registration order.
func (r *Registry) Descriptors() []*component.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*component.Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.descriptors[id])
	}
	return out
}

// List returns point-in-time snapshots in registration order.
func (r *Registry) List() []component.Snapshot {
	descs := r.Descriptors()
	out := make([]component.Snapshot, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Snapshot())
	}
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}
