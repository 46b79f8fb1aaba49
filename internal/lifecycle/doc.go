// Package lifecycle drives a single component through its load, unload and
// reload transitions.
//
// The Executor serializes transitions per component with the descriptor's
// lock, acquired with a bounded wait. Contention past the bound yields a
// LockTimeoutError and leaves the component untouched. While the lock is
// held the executor waits on the readiness gate if the component asks for
// it, runs the component's routine, moves the descriptor through its state
// machine and, once the lock is released, publishes one lifecycle event per
// settled transition.
//
// Usage:
//
//	exec := lifecycle.NewExecutor(logger, bus)
//	exec.SetLockTimeout(5 * time.Second)
//	exec.SetGate(worldReady)
//
//	if _, err := exec.Load(ctx, desc, true); err != nil {
//	    return err
//	}
//	defer exec.Unload(ctx, desc, false)
//
// A panicking component routine is recovered and treated as a failure of
// that transition. With propagate=false, component failures are logged and
// swallowed; lock timeouts, retired descriptors and unsupported reloads are
// always returned.
package lifecycle
