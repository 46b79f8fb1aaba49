package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/errors"
	"github.com/Iron-Ham/modhost/internal/event"
	"github.com/Iron-Ham/modhost/internal/logging"
	"github.com/Iron-Ham/modhost/internal/resolve"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Target is the host a watcher applies manifest changes to.
// *orchestrator.Orchestrator satisfies it.
type Target interface {
	Provide(specs ...component.Spec)
	Withdraw(typeID string) bool
	LoadComponent(ctx context.Context, typeID string) (component.Component, error)
	UnloadComponent(ctx context.Context, typeID string) (bool, error)
	ReloadByKey(ctx context.Context, key string) (component.Component, error)
}

// Watcher re-applies the manifest whenever the file changes on disk.
type Watcher struct {
	path     string
	catalog  *Catalog
	target   Target
	bus      *event.Bus
	logger   *logging.Logger
	debounce time.Duration

	mu      sync.Mutex // serializes Apply
	current *Manifest
}

// WatcherConfig holds the optional collaborators of a Watcher.
type WatcherConfig struct {
	Bus      *event.Bus
	Logger   *logging.Logger
	Debounce time.Duration
}

// NewWatcher creates a watcher for the manifest at path. current is the
// manifest already applied to target; nil means nothing is applied yet.
func NewWatcher(path string, current *Manifest, catalog *Catalog, target Target, cfg WatcherConfig) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NopLogger()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		path:     abs,
		catalog:  catalog,
		target:   target,
		bus:      cfg.Bus,
		logger:   cfg.Logger.With("manifest", abs),
		debounce: cfg.Debounce,
		current:  current,
	}, nil
}

// Current returns the manifest most recently applied.
func (w *Watcher) Current() *Manifest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run watches the manifest's directory until ctx is done. Editors often
// replace a file rather than write it, so the directory is watched and
// events are filtered by name.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C
	defer debounceTimer.Stop()

	w.logger.Info("watching manifest", "debounce", w.debounce.String())

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			// Apply logs and publishes failures; the watch keeps going.
			_, _ = w.Apply(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err.Error())
		}
	}
}

// Apply reads the manifest and moves the target to match it. An unreadable
// or invalid manifest leaves the target untouched.
func (w *Watcher) Apply(ctx context.Context) (Diff, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := Load(w.path)
	if err == nil {
		err = next.Validate(w.catalog)
	}
	if err != nil {
		w.logger.Warn("manifest rejected", "error", err.Error())
		w.publish(Diff{}, err)
		return Diff{}, err
	}

	d := Compare(w.current, next)
	if d.Empty() {
		w.current = next
		return d, nil
	}

	err = w.apply(ctx, next, d)
	w.current = next

	args := []any{
		"added", len(d.Added),
		"removed", len(d.Removed),
		"replaced", len(d.Replaced),
		"reloaded", len(d.Reloaded),
	}
	if err != nil {
		w.logger.Warn("manifest applied with errors", append(args, "error", err.Error())...)
	} else {
		w.logger.Info("manifest applied", args...)
	}
	w.publish(d, err)
	return d, err
}

func (w *Watcher) apply(ctx context.Context, next *Manifest, d Diff) error {
	var errs []error

	for _, id := range slices.Backward(d.Removed) {
		if _, err := w.target.UnloadComponent(ctx, id); err != nil && !errors.Is(err, errors.ErrUnknownComponent) {
			errs = append(errs, err)
		}
		w.target.Withdraw(id)
	}

	for _, id := range d.Reloaded {
		e, _ := next.Entry(id)
		if err := w.provide(e); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := w.target.ReloadByKey(ctx, e.ReloadKey); err != nil {
			errs = append(errs, err)
		}
	}

	for _, id := range loadOrder(next, append(slices.Clone(d.Added), d.Replaced...)) {
		e, _ := next.Entry(id)
		if err := w.provide(e); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := w.target.LoadComponent(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (w *Watcher) provide(e Entry) error {
	spec, err := w.catalog.Spec(e)
	if err != nil {
		return err
	}
	w.target.Provide(spec)
	return nil
}

func (w *Watcher) publish(d Diff, err error) {
	if w.bus == nil {
		return
	}
	changed := append(slices.Clone(d.Replaced), d.Reloaded...)
	w.bus.Publish(event.NewManifestChangedEvent(w.path, d.Added, d.Removed, changed, err))
}

// loadOrder orders ids by the dependencies declared in m.
func loadOrder(m *Manifest, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	enabled := m.Enabled()
	items := make([]resolve.Item, len(enabled))
	for i, e := range enabled {
		items[i] = resolve.Item{ID: e.ID, Deps: e.DependsOn}
	}

	out := make([]string, 0, len(ids))
	for _, id := range resolve.Resolve(items).IDs(items) {
		if want[id] {
			out = append(out, id)
			delete(want, id)
		}
	}
	return out
}
