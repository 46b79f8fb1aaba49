package builtin

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/modhost/internal/logging"
)

// ClockSettings configures a Clock.
type ClockSettings struct {
	// MaxStep caps the dt accepted from a single frame. Zero means no cap.
	MaxStep time.Duration `mapstructure:"max_step"`
}

// Clock accumulates frame time while it is loaded.
type Clock struct {
	settings ClockSettings
	logger   *logging.Logger

	running atomic.Bool
	frames  atomic.Int64
	elapsed atomic.Int64 // nanoseconds
}

// NewClock creates a clock from manifest settings.
func NewClock(settings map[string]any, logger *logging.Logger) (*Clock, error) {
	var s ClockSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Clock{settings: s, logger: logger}, nil
}

// Load resets the counters and starts accepting ticks.
func (c *Clock) Load(context.Context) error {
	c.frames.Store(0)
	c.elapsed.Store(0)
	c.running.Store(true)
	c.logger.Info("clock started")
	return nil
}

// Unload stops accepting ticks.
func (c *Clock) Unload(context.Context) error {
	c.running.Store(false)
	c.logger.Info("clock stopped", "frames", c.Frames(), "elapsed", c.Elapsed().String())
	return nil
}

// Tick advances the clock by dt.
func (c *Clock) Tick(_ context.Context, dt time.Duration) {
	if !c.running.Load() || dt < 0 {
		return
	}
	if c.settings.MaxStep > 0 && dt > c.settings.MaxStep {
		dt = c.settings.MaxStep
	}
	c.frames.Add(1)
	c.elapsed.Add(int64(dt))
}

// Frames returns the number of ticks since Load.
func (c *Clock) Frames() int64 { return c.frames.Load() }

// Elapsed returns the accumulated tick time since Load.
func (c *Clock) Elapsed() time.Duration { return time.Duration(c.elapsed.Load()) }
