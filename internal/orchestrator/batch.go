package orchestrator

import (
	"context"
	"slices"
	"strings"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/errors"
	"github.com/Iron-Ham/modhost/internal/event"
	"github.com/Iron-Ham/modhost/internal/resolve"
)

// Plan resolves the load order for descs without loading anything.
func Plan(descs []*component.Descriptor) ([]string, []errors.CircularDependency) {
	items := itemsOf(descs)
	res := resolve.Resolve(items)
	return res.IDs(items), res.Cycles
}

func itemsOf(descs []*component.Descriptor) []resolve.Item {
	items := make([]resolve.Item, len(descs))
	for i, d := range descs {
		items[i] = resolve.Item{ID: d.TypeID(), Deps: d.Dependencies()}
	}
	return items
}

// LoadAll loads a batch in dependency order and returns the types that
// ended up loaded, in the order they loaded. Cycles are logged and
// published, never fatal. Loading continues past failed components; every
// failure is included in the returned error. Types that are already loaded
// are replaced.
func (o *Orchestrator) LoadAll(ctx context.Context, descs []*component.Descriptor) ([]string, error) {
	items := itemsOf(descs)
	res := resolve.Resolve(items)

	for _, c := range res.Cycles {
		o.logger.Warn("dependency cycle detected, loading in best-effort order",
			"chain", strings.Join(c.Chain, " -> "),
		)
		o.bus.Publish(event.NewCycleDetectedEvent(c.Chain))
	}

	attempted := make([]string, 0, len(res.Order))
	var (
		loaded []string
		errs   []error
		failed []string
	)
	for _, idx := range res.Order {
		d := descs[idx]
		attempted = append(attempted, d.TypeID())

		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			failed = append(failed, d.TypeID())
			continue
		}
		inst, err := o.register(ctx, d, true)
		if err != nil {
			errs = append(errs, err)
		}
		if inst == nil {
			failed = append(failed, d.TypeID())
			continue
		}
		loaded = append(loaded, d.TypeID())
	}

	o.logger.Info("batch load finished",
		"order", strings.Join(attempted, ","),
		"loaded", len(loaded),
		"failed", len(failed),
	)
	o.bus.Publish(event.NewBatchCompletedEvent("load", attempted, failed))
	return loaded, errors.Join(errs...)
}

// UnloadAll unloads every loaded component in reverse load order.
// Descriptors stay registered. It returns nil only if every unload
// succeeded.
func (o *Orchestrator) UnloadAll(ctx context.Context) error {
	order := o.LoadOrder()
	slices.Reverse(order)

	var (
		errs      []error
		failed    []string
		processed []string
	)
	for _, id := range order {
		d, ok := o.registry.Lookup(id)
		if !ok || !d.IsLoaded() {
			continue
		}
		processed = append(processed, id)
		if _, err := o.exec.Unload(ctx, d, true); err != nil {
			errs = append(errs, err)
			failed = append(failed, id)
		}
		if !d.IsLoaded() {
			o.forgetLoaded(id)
		}
	}

	o.logger.Info("batch unload finished",
		"order", strings.Join(processed, ","),
		"failed", len(failed),
	)
	o.bus.Publish(event.NewBatchCompletedEvent("unload", processed, failed))
	return errors.Join(errs...)
}

// Start builds every provided spec and loads them as one batch, returning
// the types that loaded. Specs whose factory fails are reported and
// skipped.
func (o *Orchestrator) Start(ctx context.Context) ([]string, error) {
	specs := o.Specs()
	descs := make([]*component.Descriptor, 0, len(specs))
	var errs []error
	for _, s := range specs {
		d, err := s.Build()
		if err != nil {
			errs = append(errs, o.buildFailed(s.TypeID, err, true))
			continue
		}
		descs = append(descs, d)
	}

	order, err := o.LoadAll(ctx, descs)
	return order, errors.Join(append(errs, err)...)
}

// Stop unloads everything. It is UnloadAll under the name hosts pair with
// Start.
func (o *Orchestrator) Stop(ctx context.Context) error {
	return o.UnloadAll(ctx)
}
