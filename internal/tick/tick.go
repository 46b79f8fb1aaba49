// Package tick drives periodic updates for loaded components that implement
// component.Ticker. It is independent of the lifecycle: a tick never starts
// or stops a component, and a panicking Tick only affects that call.
package tick

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/logging"
)

// Target is a ticker together with the component type it belongs to.
type Target struct {
	TypeID string
	Ticker component.Ticker
}

// Source returns the targets to tick on each frame, in tick order.
type Source func() []Target

// Loop calls Tick on every target from its source at a fixed interval.
type Loop struct {
	interval time.Duration
	source   Source
	logger   *logging.Logger
}

// NewLoop creates a loop. A non-positive interval disables periodic ticks;
// Step can still be called directly.
func NewLoop(interval time.Duration, source Source, logger *logging.Logger) *Loop {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Loop{
		interval: interval,
		source:   source,
		logger:   logger,
	}
}

// Run ticks until ctx ends. dt is the wall time since the previous frame.
func (l *Loop) Run(ctx context.Context) {
	if l.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Step(ctx, now.Sub(last))
			last = now
		}
	}
}

// Step runs one frame and returns how many targets ticked without
// panicking.
func (l *Loop) Step(ctx context.Context, dt time.Duration) int {
	ok := 0
	for _, t := range l.source() {
		if l.safeTick(ctx, t, dt) {
			ok++
		}
	}
	return ok
}

func (l *Loop) safeTick(ctx context.Context, t Target, dt time.Duration) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.WithComponent(t.TypeID).Error("tick panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			ok = false
		}
	}()
	t.Ticker.Tick(ctx, dt)
	return true
}
