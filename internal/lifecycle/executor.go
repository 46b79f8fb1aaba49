package lifecycle

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/errors"
	"github.com/Iron-Ham/modhost/internal/event"
	"github.com/Iron-Ham/modhost/internal/gate"
	"github.com/Iron-Ham/modhost/internal/logging"
)

// DefaultLockTimeout bounds how long a transition waits for another one on
// the same component to finish.
const DefaultLockTimeout = 10 * time.Second

// Executor runs lifecycle transitions for individual components.
type Executor struct {
	logger *logging.Logger
	bus    *event.Bus

	mu          sync.RWMutex
	lockTimeout time.Duration
	gate        gate.Gate
	gateTimeout time.Duration

	outMu    sync.Mutex
	outboxes map[*component.Descriptor]*outbox
}

// outbox holds one descriptor's events that are waiting to be published.
// Only one goroutine drains an outbox at a time.
type outbox struct {
	pending  []event.LifecycleEvent
	draining bool
}

// NewExecutor creates an executor publishing to bus. Either argument may be
// nil.
func NewExecutor(logger *logging.Logger, bus *event.Bus) *Executor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Executor{
		logger:      logger,
		bus:         bus,
		lockTimeout: DefaultLockTimeout,
		gate:        gate.AlwaysReady(),
		outboxes:    make(map[*component.Descriptor]*outbox),
	}
}

// SetLockTimeout changes the lock wait bound. Non-positive values restore
// the default.
func (e *Executor) SetLockTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d <= 0 {
		d = DefaultLockTimeout
	}
	e.lockTimeout = d
}

// LockTimeout returns the current lock wait bound.
func (e *Executor) LockTimeout() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lockTimeout
}

// SetGate sets the readiness gate that gated components wait on. A nil
// gate means always ready.
func (e *Executor) SetGate(g gate.Gate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if g == nil {
		g = gate.AlwaysReady()
	}
	e.gate = g
}

// SetGateTimeout bounds the gate wait. Zero waits as long as ctx allows.
func (e *Executor) SetGateTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gateTimeout = d
}

func (e *Executor) settings() (time.Duration, gate.Gate, time.Duration) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lockTimeout, e.gate, e.gateTimeout
}

// Load brings d to Loaded. It reports whether the component is loaded
// afterwards. Loading an already loaded component is a no-op.
func (e *Executor) Load(ctx context.Context, d *component.Descriptor, propagate bool) (bool, error) {
	var events []event.LifecycleEvent
	if err := e.acquire(ctx, d, errors.OpLoad); err != nil {
		return false, err
	}
	defer e.release(d, &events)

	if d.Retired() {
		return false, component.ErrRetired
	}
	if d.IsLoaded() {
		return true, nil
	}
	return e.loadLocked(ctx, d, propagate, &events)
}

// Unload brings d to NotLoaded. It reports whether an unload ran and
// succeeded; unloading a component that is not loaded returns false, nil.
func (e *Executor) Unload(ctx context.Context, d *component.Descriptor, propagate bool) (bool, error) {
	return e.UnloadThen(ctx, d, propagate, nil)
}

// UnloadThen is Unload with a hook that runs after the transition but
// before the lock is released, so no other transition can observe the
// descriptor in between. The orchestrator uses it to drop the registry
// entry.
func (e *Executor) UnloadThen(ctx context.Context, d *component.Descriptor, propagate bool, then func()) (bool, error) {
	var events []event.LifecycleEvent
	if err := e.acquire(ctx, d, errors.OpUnload); err != nil {
		return false, err
	}
	defer e.release(d, &events)

	if d.Retired() {
		return false, nil
	}
	ok, err := e.unloadLocked(ctx, d, propagate, &events)
	if then != nil {
		then()
	}
	return ok, err
}

// Reload refreshes a loaded component in place, keeping its descriptor.
// Components without a reload key, or whose instance cannot reload, get
// errors.ErrUnsupportedReload and are left as they were. A reloadable
// component that is not loaded is loaded instead.
func (e *Executor) Reload(ctx context.Context, d *component.Descriptor, propagate bool) (bool, error) {
	if err := checkReloadable(d); err != nil {
		return false, err
	}

	var events []event.LifecycleEvent
	if err := e.acquire(ctx, d, errors.OpReload); err != nil {
		return false, err
	}
	defer e.release(d, &events)

	if d.Retired() {
		return false, component.ErrRetired
	}
	// The instance may have been replaced while we waited.
	if err := checkReloadable(d); err != nil {
		return false, err
	}
	if !d.IsLoaded() {
		return e.loadLocked(ctx, d, propagate, &events)
	}
	return e.reloadLocked(ctx, d, propagate, &events)
}

// Replace swaps next's instance and metadata into d under a single lock
// hold: the current instance is unloaded if loaded, then the new one is
// loaded. Unload failures do not stop the load.
func (e *Executor) Replace(ctx context.Context, d, next *component.Descriptor, propagate bool) (bool, error) {
	var events []event.LifecycleEvent
	if err := e.acquire(ctx, d, errors.OpLoad); err != nil {
		return false, err
	}
	defer e.release(d, &events)

	if d.Retired() {
		return false, component.ErrRetired
	}

	var unloadErr error
	if d.IsLoaded() {
		_, unloadErr = e.unloadLocked(ctx, d, propagate, &events)
	}
	d.Adopt(next)
	ok, err := e.loadLocked(ctx, d, propagate, &events)
	return ok, errors.Join(unloadErr, err)
}

func checkReloadable(d *component.Descriptor) error {
	if d.ReloadKey() == "" {
		return fmt.Errorf("%w: %s has no reload key", errors.ErrUnsupportedReload, d.TypeID())
	}
	if _, ok := d.Instance().(component.Reloadable); !ok {
		return fmt.Errorf("%w: %s does not implement Reload", errors.ErrUnsupportedReload, d.TypeID())
	}
	return nil
}

// acquire takes d's lock within the configured bound.
func (e *Executor) acquire(ctx context.Context, d *component.Descriptor, op errors.Op) error {
	timeout, _, _ := e.settings()
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.Acquire(lockCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lerr := errors.NewLockTimeoutError(op, d.TypeID(), timeout).WithCause(err)
		e.logger.WithComponent(d.TypeID()).WithOp(string(op)).Warn("lock wait timed out",
			"timeout", timeout.String(),
			"state", d.State().String(),
		)
		return lerr
	}
	return nil
}

func (e *Executor) loadLocked(ctx context.Context, d *component.Descriptor, propagate bool, events *[]event.LifecycleEvent) (bool, error) {
	log := e.logger.WithComponent(d.TypeID()).WithOp(string(errors.OpLoad))
	inst := d.Instance()

	if d.RequiresGate() {
		if err := e.waitGate(ctx, log); err != nil {
			*events = append(*events, event.NewLifecycleEvent(event.KindLoaded, d.TypeID(), inst, err))
			return false, e.fail(errors.OpLoad, d.TypeID(), err, propagate)
		}
	}

	if err := d.Transition(component.Loading); err != nil {
		return false, err
	}
	start := time.Now()
	err := e.invoke(d.TypeID(), errors.OpLoad, func() error { return inst.Load(ctx) })
	if err != nil {
		if terr := d.Transition(component.NotLoaded); terr != nil {
			return false, terr
		}
		*events = append(*events, event.NewLifecycleEvent(event.KindLoaded, d.TypeID(), inst, err))
		return false, e.fail(errors.OpLoad, d.TypeID(), err, propagate)
	}
	if err := d.Transition(component.Loaded); err != nil {
		return false, err
	}
	log.Info("component loaded", "duration_ms", time.Since(start).Milliseconds())
	*events = append(*events, event.NewLifecycleEvent(event.KindLoaded, d.TypeID(), inst, nil))
	return true, nil
}

func (e *Executor) unloadLocked(ctx context.Context, d *component.Descriptor, propagate bool, events *[]event.LifecycleEvent) (bool, error) {
	if !d.IsLoaded() {
		return false, nil
	}
	log := e.logger.WithComponent(d.TypeID()).WithOp(string(errors.OpUnload))
	inst := d.Instance()

	if err := d.Transition(component.Unloading); err != nil {
		return false, err
	}
	err := e.invoke(d.TypeID(), errors.OpUnload, func() error { return inst.Unload(ctx) })
	if closer, ok := inst.(io.Closer); ok {
		if cerr := e.invoke(d.TypeID(), errors.OpUnload, closer.Close); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close: %w", cerr))
		}
	}
	// Failure still ends in NotLoaded.
	if terr := d.Transition(component.NotLoaded); terr != nil {
		return false, terr
	}
	*events = append(*events, event.NewLifecycleEvent(event.KindUnloaded, d.TypeID(), inst, err))
	if err != nil {
		return false, e.fail(errors.OpUnload, d.TypeID(), err, propagate)
	}
	log.Info("component unloaded")
	return true, nil
}

func (e *Executor) reloadLocked(ctx context.Context, d *component.Descriptor, propagate bool, events *[]event.LifecycleEvent) (bool, error) {
	log := e.logger.WithComponent(d.TypeID()).WithOp(string(errors.OpReload))
	inst := d.Instance()
	r := inst.(component.Reloadable)

	for _, s := range []component.State{component.Unloading, component.NotLoaded, component.Loading} {
		if err := d.Transition(s); err != nil {
			return false, err
		}
	}
	err := e.invoke(d.TypeID(), errors.OpReload, func() error { return r.Reload(ctx) })
	if err != nil {
		if terr := d.Transition(component.NotLoaded); terr != nil {
			return false, terr
		}
		*events = append(*events, event.NewLifecycleEvent(event.KindReloaded, d.TypeID(), inst, err))
		return false, e.fail(errors.OpReload, d.TypeID(), err, propagate)
	}
	if err := d.Transition(component.Loaded); err != nil {
		return false, err
	}
	log.Info("component reloaded", "reload_key", d.ReloadKey())
	*events = append(*events, event.NewLifecycleEvent(event.KindReloaded, d.TypeID(), inst, nil))
	return true, nil
}

func (e *Executor) waitGate(ctx context.Context, log *logging.Logger) error {
	_, g, timeout := e.settings()
	if g.Ready() {
		return nil
	}
	log.Info("waiting for readiness gate")

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := g.Wait(waitCtx); err != nil {
		if ctx.Err() == nil && timeout > 0 {
			return errors.NewTimeoutError("readiness gate", timeout).WithCause(err)
		}
		return err
	}
	return nil
}

// invoke runs a component routine, turning a panic into an error.
func (e *Executor) invoke(typeID string, op errors.Op, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithComponent(typeID).WithOp(string(op)).Error("component panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w: %v", errors.ErrComponentPanicked, r)
		}
	}()
	return fn()
}

// fail logs a component failure at the severity of its cause and returns
// it only when propagating.
func (e *Executor) fail(op errors.Op, typeID string, cause error, propagate bool) error {
	log := e.logger.WithComponent(typeID).WithOp(string(op))
	msg := "component " + string(op) + " failed"
	args := []any{"error", cause.Error(), "propagated", propagate}
	switch errors.GetSeverity(cause) {
	case errors.SeverityDebug:
		log.Debug(msg, args...)
	case errors.SeverityInfo:
		log.Info(msg, args...)
	case errors.SeverityWarning:
		log.Warn(msg, args...)
	default:
		log.Error(msg, args...)
	}
	if !propagate {
		return nil
	}
	return errors.NewLifecycleError(op, typeID, cause)
}

// release queues the events of a transition while d is still locked, then
// unlocks d and publishes. Events for one descriptor reach subscribers in the
// order their transitions ran.
func (e *Executor) release(d *component.Descriptor, events *[]event.LifecycleEvent) {
	if e.bus == nil || len(*events) == 0 {
		d.Release()
		return
	}
	e.outMu.Lock()
	ob := e.outboxes[d]
	if ob == nil {
		ob = &outbox{}
		e.outboxes[d] = ob
	}
	ob.pending = append(ob.pending, *events...)
	e.outMu.Unlock()

	d.Release()
	e.drain(d)
}

// drain publishes d's queued events. If another goroutine is already
// draining d, the events are left to it. A subscriber that triggers a
// transition on the same component therefore returns at once and its
// events follow the ones being delivered.
func (e *Executor) drain(d *component.Descriptor) {
	e.outMu.Lock()
	ob := e.outboxes[d]
	if ob == nil || ob.draining {
		e.outMu.Unlock()
		return
	}
	ob.draining = true
	for len(ob.pending) > 0 {
		batch := ob.pending
		ob.pending = nil
		e.outMu.Unlock()
		for _, ev := range batch {
			e.bus.Publish(ev)
		}
		e.outMu.Lock()
	}
	delete(e.outboxes, d)
	e.outMu.Unlock()
}
