package orchestrator

import (
	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/event"
)

// Callback receives the component a transition ran on and whether it
// succeeded.
type Callback func(c component.Component, success bool)

// OnLoaded registers fn for every settled load. It returns a subscription
// ID for Unsubscribe. Callbacks for one component run in the order its
// transitions ran.
func (o *Orchestrator) OnLoaded(fn Callback) string {
	return o.on(event.KindLoaded, fn)
}

// OnUnloaded registers fn for every settled unload.
func (o *Orchestrator) OnUnloaded(fn Callback) string {
	return o.on(event.KindUnloaded, fn)
}

// OnReloaded registers fn for every settled reload.
func (o *Orchestrator) OnReloaded(fn Callback) string {
	return o.on(event.KindReloaded, fn)
}

// Unsubscribe removes a callback registered through OnLoaded, OnUnloaded
// or OnReloaded.
func (o *Orchestrator) Unsubscribe(id string) bool {
	return o.bus.Unsubscribe(id)
}

func (o *Orchestrator) on(kind event.Kind, fn Callback) string {
	return o.bus.Subscribe(kind.EventType(), func(e event.Event) {
		le, ok := e.(event.LifecycleEvent)
		if !ok {
			return
		}
		fn(le.Component, le.Success)
	})
}
