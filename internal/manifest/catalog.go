package manifest

import (
	"maps"
	"slices"
	"sync"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/errors"
)

// Constructor builds a component from an entry's settings.
type Constructor func(settings map[string]any) (component.Component, error)

// Catalog maps factory names to constructors.
type Catalog struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[string]Constructor)}
}

// Register adds a constructor under name.
func (c *Catalog) Register(name string, ctor Constructor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.ctors[name]; exists {
		return errors.NewAlreadyExistsError("factory", name)
	}
	c.ctors[name] = ctor
	return nil
}

// Lookup returns the constructor registered under name.
func (c *Catalog) Lookup(name string) (Constructor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctor, ok := c.ctors[name]
	return ctor, ok
}

// Names returns the registered factory names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.ctors))
}

// Spec builds the component spec for e. The settings map is copied so the
// factory always sees the values from the manifest it came from.
func (c *Catalog) Spec(e Entry) (component.Spec, error) {
	ctor, ok := c.Lookup(e.FactoryName())
	if !ok {
		return component.Spec{}, errors.NewNotFoundError("factory", e.FactoryName()).WithCause(errors.ErrUnknownFactory)
	}
	settings := maps.Clone(e.Settings)
	return component.Spec{
		TypeID:       e.ID,
		New:          func() (component.Component, error) { return ctor(settings) },
		Dependencies: slices.Clone(e.DependsOn),
		ReloadKey:    e.ReloadKey,
		RequiresGate: e.RequiresGate,
	}, nil
}
