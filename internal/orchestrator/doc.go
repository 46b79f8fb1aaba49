// Package orchestrator is the host-facing API of modhost.
//
// An Orchestrator owns the component registry, a lifecycle executor and the
// event bus. Hosts either register descriptors directly or provide
// component specs (a factory plus metadata) and refer to components by type
// ID afterwards.
//
// # Single Operations
//
//   - [Orchestrator.LoadComponent] builds the provided spec and loads it,
//     replacing any loaded instance of the same type
//   - [Orchestrator.UnloadComponent] unloads a type and drops its descriptor
//   - [Orchestrator.ReloadByKey] reloads the component registered under a
//     reload key, keeping its descriptor
//
// Component failures in single operations are returned only when the
// orchestrator was built with [WithPropagateErrors]; otherwise they are
// logged and the call reports a nil component or false. Lock timeouts,
// unknown types and unsupported reloads are always returned.
//
// # Batches
//
// [Orchestrator.LoadAll] orders a batch by its declared dependencies,
// logs any cycles and loads each component in turn, continuing past
// failures. [Orchestrator.UnloadAll] unloads everything in reverse load
// order. Both report every failure through a joined error.
//
// # Events
//
// [Orchestrator.OnLoaded], [Orchestrator.OnUnloaded] and
// [Orchestrator.OnReloaded] register callbacks that receive the component
// and whether the transition succeeded. The underlying [event.Bus] is
// available through [Orchestrator.Bus] for the other event types.
package orchestrator
