// Package resolve computes a load order for a batch of components from their
// declared dependencies.
//
// Resolution is a depth-first walk that keeps the active path. A dependency
// already on the path closes a cycle: the chain is recorded and the current
// item is placed without waiting for the rest of its dependencies. Cycles
// are reported, never fatal, so every item in the batch ends up in the order.
package resolve

import (
	"github.com/Iron-Ham/modhost/internal/errors"
)

// Item is one entry of a resolution batch.
type Item struct {
	ID   string
	Deps []string
}

// Result is the outcome of Resolve.
type Result struct {
	// Order holds indexes into the input slice, dependencies first. Every
	// input index appears exactly once.
	Order []int
	// Cycles lists each circular dependency encountered, in discovery order.
	Cycles []errors.CircularDependency
}

// IDs maps Order back to item IDs.
func (r Result) IDs(items []Item) []string {
	ids := make([]string, len(r.Order))
	for i, idx := range r.Order {
		ids[i] = items[idx].ID
	}
	return ids
}

type resolver struct {
	items    []Item
	index    map[string]int
	resolved []bool
	onPath   []bool
	path     []int
	result   Result
}

// Resolve orders items so that each one follows the in-batch dependencies
// it declares, as far as cycles allow.
//
// Dependencies naming an ID outside the batch are treated as satisfied.
// Self dependencies and repeated declarations are ignored. When the same ID
// appears more than once, dependents resolve against its first occurrence.
func Resolve(items []Item) Result {
	r := &resolver{
		items:    items,
		index:    make(map[string]int, len(items)),
		resolved: make([]bool, len(items)),
		onPath:   make([]bool, len(items)),
		result:   Result{Order: make([]int, 0, len(items))},
	}
	for i, it := range items {
		if _, dup := r.index[it.ID]; !dup {
			r.index[it.ID] = i
		}
	}

	// Walking in input order also force-places anything a cycle left behind.
	for i := range items {
		if !r.resolved[i] {
			r.visit(i)
		}
	}
	return r.result
}

func (r *resolver) visit(i int) {
	r.onPath[i] = true
	r.path = append(r.path, i)

	for _, dep := range r.items[i].Deps {
		j, ok := r.index[dep]
		if !ok || j == i || r.resolved[j] {
			continue
		}
		if r.onPath[j] {
			r.recordCycle(j)
			break
		}
		r.visit(j)
	}

	r.path = r.path[:len(r.path)-1]
	r.onPath[i] = false
	r.resolved[i] = true
	r.result.Order = append(r.result.Order, i)
}

// recordCycle captures the active path from j to the current item, closed
// by j again.
func (r *resolver) recordCycle(j int) {
	start := 0
	for k, idx := range r.path {
		if idx == j {
			start = k
			break
		}
	}
	chain := make([]string, 0, len(r.path)-start+1)
	for _, idx := range r.path[start:] {
		chain = append(chain, r.items[idx].ID)
	}
	chain = append(chain, r.items[j].ID)
	r.result.Cycles = append(r.result.Cycles, errors.CircularDependency{Chain: chain})
}
