package manifest

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Diff describes how to move from one manifest to the next.
type Diff struct {
	// Added entries are new or newly enabled.
	Added []string
	// Removed entries are gone or newly disabled.
	Removed []string
	// Replaced entries changed and need a fresh instance.
	Replaced []string
	// Reloaded entries only bumped their generation and have a reload key.
	Reloaded []string
}

// Empty reports whether the diff requires no action.
func (d Diff) Empty() bool {
	return len(d.Added)+len(d.Removed)+len(d.Replaced)+len(d.Reloaded) == 0
}

// Compare computes the diff between the enabled entries of prev and next.
// Removed follows prev's order; the other lists follow next's.
func Compare(prev, next *Manifest) Diff {
	var d Diff
	before := indexEnabled(prev)
	after := indexEnabled(next)

	if prev != nil {
		for _, e := range prev.Enabled() {
			if _, ok := after[e.ID]; !ok {
				d.Removed = append(d.Removed, e.ID)
			}
		}
	}
	if next == nil {
		return d
	}
	for _, e := range next.Enabled() {
		old, ok := before[e.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, e.ID)
		case sameEntry(old, e):
		case e.ReloadKey != "" && old.Generation != e.Generation && sameEntry(withGeneration(old, 0), withGeneration(e, 0)):
			d.Reloaded = append(d.Reloaded, e.ID)
		default:
			d.Replaced = append(d.Replaced, e.ID)
		}
	}
	return d
}

func indexEnabled(m *Manifest) map[string]Entry {
	idx := make(map[string]Entry)
	if m == nil {
		return idx
	}
	for _, e := range m.Enabled() {
		if _, dup := idx[e.ID]; !dup {
			idx[e.ID] = e
		}
	}
	return idx
}

func withGeneration(e Entry, gen int) Entry {
	e.Generation = gen
	return e
}

// sameEntry compares entries by their canonical YAML encoding, which sorts
// map keys and normalizes settings values.
func sameEntry(a, b Entry) bool {
	a.Enabled, b.Enabled = nil, nil
	ea, errA := yaml.Marshal(a)
	eb, errB := yaml.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
