// Package event provides a pub-sub event bus for lifecycle notifications in
// modhost.
//
// The lifecycle executor publishes one event each time a component
// transition settles, after the new state is visible to readers. Host code
// subscribes to react to loads, unloads and reloads without the executor
// knowing about it.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Component Lifecycle:
//   - [LifecycleEvent]: a load, unload or reload finished, with its outcome
//
// Orchestration:
//   - [CycleDetectedEvent]: batch resolution found a circular dependency
//   - [BatchCompletedEvent]: LoadAll or UnloadAll finished
//   - [ManifestChangedEvent]: the manifest watcher applied a new manifest
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publisher's goroutine and protected against panics:
// a panicking handler is logged and the remaining handlers still run.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.TypeComponentLoaded, func(e event.Event) {
//	    le := e.(event.LifecycleEvent)
//	    log.Printf("%s loaded: %v", le.TypeID, le.Success)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	id := bus.Subscribe(event.TypeComponentReloaded, handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - component.loaded, component.unloaded, component.reloaded
//   - dependency.cycle
//   - batch.completed
//   - manifest.changed
package event
