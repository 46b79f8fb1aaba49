package orchestrator

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/errors"
	"github.com/Iron-Ham/modhost/internal/event"
	"github.com/Iron-Ham/modhost/internal/gate"
	"github.com/Iron-Ham/modhost/internal/lifecycle"
	"github.com/Iron-Ham/modhost/internal/logging"
	"github.com/Iron-Ham/modhost/internal/registry"
	"github.com/Iron-Ham/modhost/internal/tick"
)

// Orchestrator loads, unloads and reloads components on behalf of a host.
type Orchestrator struct {
	logger    *logging.Logger
	bus       *event.Bus
	registry  *registry.Registry
	exec      *lifecycle.Executor
	propagate bool

	mu      sync.Mutex
	catalog map[string]component.Spec
	specIDs []string
	// loadOrder lists types in the order they last loaded successfully.
	loadOrder []string
}

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	logger      *logging.Logger
	bus         *event.Bus
	propagate   bool
	lockTimeout time.Duration
	gate        gate.Gate
	gateTimeout time.Duration
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBus shares an existing event bus instead of creating one.
func WithBus(b *event.Bus) Option {
	return func(o *options) { o.bus = b }
}

// WithPropagateErrors makes single operations return component failures
// instead of only logging them.
func WithPropagateErrors(propagate bool) Option {
	return func(o *options) { o.propagate = propagate }
}

// WithLockTimeout bounds the wait for a component's lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

// WithGate sets the readiness gate that gated components wait on.
func WithGate(g gate.Gate) Option {
	return func(o *options) { o.gate = g }
}

// WithGateTimeout bounds the readiness gate wait. Zero waits for ctx.
func WithGateTimeout(d time.Duration) Option {
	return func(o *options) { o.gateTimeout = d }
}

// New creates an Orchestrator with an empty registry.
func New(opts ...Option) *Orchestrator {
	cfg := options{lockTimeout: lifecycle.DefaultLockTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}
	if cfg.bus == nil {
		cfg.bus = event.NewBus(cfg.logger)
	}

	exec := lifecycle.NewExecutor(cfg.logger, cfg.bus)
	exec.SetLockTimeout(cfg.lockTimeout)
	exec.SetGate(cfg.gate)
	exec.SetGateTimeout(cfg.gateTimeout)

	return &Orchestrator{
		logger:    cfg.logger,
		bus:       cfg.bus,
		registry:  registry.New(),
		exec:      exec,
		propagate: cfg.propagate,
		catalog:   make(map[string]component.Spec),
	}
}

// Bus returns the event bus lifecycle events are published on.
func (o *Orchestrator) Bus() *event.Bus { return o.bus }

// Provide adds specs to the catalog used by LoadComponent and Start. A spec
// for a type already in the catalog replaces it; the loaded instance is not
// touched until the type is loaded again.
func (o *Orchestrator) Provide(specs ...component.Spec) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range specs {
		if _, ok := o.catalog[s.TypeID]; !ok {
			o.specIDs = append(o.specIDs, s.TypeID)
		}
		o.catalog[s.TypeID] = s
	}
}

// Withdraw removes a type from the catalog. It reports whether it was there.
func (o *Orchestrator) Withdraw(typeID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.catalog[typeID]; !ok {
		return false
	}
	delete(o.catalog, typeID)
	o.specIDs = slices.DeleteFunc(o.specIDs, func(id string) bool { return id == typeID })
	return true
}

// Spec returns the catalog entry for typeID.
func (o *Orchestrator) Spec(typeID string) (component.Spec, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.catalog[typeID]
	return s, ok
}

// Specs returns the catalog in the order types were first provided.
func (o *Orchestrator) Specs() []component.Spec {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]component.Spec, 0, len(o.specIDs))
	for _, id := range o.specIDs {
		out = append(out, o.catalog[id])
	}
	return out
}

// Register stores d and loads it. If the type is already registered, its
// loaded instance is unloaded first and d's instance takes its place in the
// existing descriptor.
func (o *Orchestrator) Register(ctx context.Context, d *component.Descriptor) (component.Component, error) {
	return o.register(ctx, d, o.propagate)
}

func (o *Orchestrator) register(ctx context.Context, d *component.Descriptor, propagate bool) (component.Component, error) {
	for {
		actual, existed := o.registry.Register(d)
		var (
			loaded bool
			err    error
		)
		if existed {
			loaded, err = o.exec.Replace(ctx, actual, d, propagate)
		} else {
			loaded, err = o.exec.Load(ctx, d, propagate)
		}
		// An explicit unload retired the entry we found; store d afresh.
		if existed && errors.Is(err, component.ErrRetired) {
			continue
		}
		if loaded {
			o.noteLoaded(actual.TypeID())
		}
		return result(actual, loaded, err)
	}
}

// LoadComponent loads typeID. A type in the catalog gets a fresh instance
// from its factory, replacing any loaded one; a type registered directly
// is loaded if it is not already.
func (o *Orchestrator) LoadComponent(ctx context.Context, typeID string) (component.Component, error) {
	spec, ok := o.Spec(typeID)
	if !ok {
		d, found := o.registry.Lookup(typeID)
		if !found {
			return nil, errors.NewUnknownComponentError(typeID)
		}
		loaded, err := o.exec.Load(ctx, d, o.propagate)
		if loaded {
			o.noteLoaded(typeID)
		}
		return result(d, loaded, err)
	}

	d, err := spec.Build()
	if err != nil {
		return nil, o.buildFailed(typeID, err, o.propagate)
	}
	return o.register(ctx, d, o.propagate)
}

// UnloadComponent unloads typeID and removes its descriptor. It reports
// whether an unload ran and succeeded.
func (o *Orchestrator) UnloadComponent(ctx context.Context, typeID string) (bool, error) {
	d, ok := o.registry.Lookup(typeID)
	if !ok {
		return false, errors.NewUnknownComponentError(typeID)
	}
	return o.exec.UnloadThen(ctx, d, o.propagate, func() {
		o.registry.Remove(d)
		d.Retire()
		o.forgetLoaded(typeID)
	})
}

// ReloadByKey reloads the component registered under key.
func (o *Orchestrator) ReloadByKey(ctx context.Context, key string) (component.Component, error) {
	d, ok := o.registry.FindByReloadKey(key)
	if !ok {
		return nil, errors.NewNotFoundError("reload key", key).WithCause(errors.ErrUnknownComponent)
	}
	loaded, err := o.exec.Reload(ctx, d, o.propagate)
	if loaded {
		o.noteReloaded(d.TypeID())
	}
	return result(d, loaded, err)
}

// ReloadAll reloads every loaded component that supports reload, in load
// order, and joins the failures. A reload that times out waiting for the
// component's lock is tried once more.
func (o *Orchestrator) ReloadAll(ctx context.Context) error {
	var errs []error
	for _, id := range o.LoadOrder() {
		d, ok := o.registry.Lookup(id)
		if !ok || !d.IsLoaded() || d.ReloadKey() == "" {
			continue
		}
		if _, ok := d.Instance().(component.Reloadable); !ok {
			continue
		}
		_, err := o.exec.Reload(ctx, d, true)
		if errors.IsRetryable(err) && ctx.Err() == nil {
			o.logger.WithComponent(id).Warn("reload lock busy, retrying once", "error", err.Error())
			_, err = o.exec.Reload(ctx, d, true)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetComponent returns the loaded instance of typeID, or nil.
func (o *Orchestrator) GetComponent(typeID string) component.Component {
	d, ok := o.registry.Lookup(typeID)
	if !ok || !d.IsLoaded() {
		return nil
	}
	return d.Instance()
}

// IsLoaded reports whether typeID is registered and loaded.
func (o *Orchestrator) IsLoaded(typeID string) bool {
	d, ok := o.registry.Lookup(typeID)
	return ok && d.IsLoaded()
}

// Components returns a snapshot of every registered descriptor.
func (o *Orchestrator) Components() []component.Snapshot {
	return o.registry.List()
}

// LoadOrder returns the types in the order they last loaded.
func (o *Orchestrator) LoadOrder() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.loadOrder)
}

// Tickers returns the loaded components implementing component.Ticker, in
// load order.
func (o *Orchestrator) Tickers() []tick.Target {
	var out []tick.Target
	for _, id := range o.LoadOrder() {
		d, ok := o.registry.Lookup(id)
		if !ok || !d.IsLoaded() {
			continue
		}
		if t, ok := d.Instance().(component.Ticker); ok {
			out = append(out, tick.Target{TypeID: id, Ticker: t})
		}
	}
	return out
}

func (o *Orchestrator) noteLoaded(typeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loadOrder = slices.DeleteFunc(o.loadOrder, func(id string) bool { return id == typeID })
	o.loadOrder = append(o.loadOrder, typeID)
}

// noteReloaded records a reload that turned into a first load.
func (o *Orchestrator) noteReloaded(typeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !slices.Contains(o.loadOrder, typeID) {
		o.loadOrder = append(o.loadOrder, typeID)
	}
}

func (o *Orchestrator) forgetLoaded(typeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loadOrder = slices.DeleteFunc(o.loadOrder, func(id string) bool { return id == typeID })
}

func (o *Orchestrator) buildFailed(typeID string, cause error, propagate bool) error {
	o.logger.WithComponent(typeID).WithOp(string(errors.OpLoad)).Error("component factory failed",
		"error", cause.Error(),
	)
	if !propagate {
		return nil
	}
	return errors.NewLifecycleError(errors.OpLoad, typeID, cause)
}

func result(d *component.Descriptor, loaded bool, err error) (component.Component, error) {
	if err != nil || !loaded {
		return nil, err
	}
	return d.Instance(), nil
}
