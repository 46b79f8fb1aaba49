package builtin

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/modhost/internal/logging"
)

// DefaultHeartbeatPeriod is used when the settings leave every unset.
const DefaultHeartbeatPeriod = time.Second

// HeartbeatSettings configures a Heartbeat.
type HeartbeatSettings struct {
	Every time.Duration `mapstructure:"every"`
}

// Heartbeat logs a beat each time Every worth of ticks has passed.
type Heartbeat struct {
	every  time.Duration
	logger *logging.Logger

	mu      sync.Mutex
	pending time.Duration
	running bool

	beats atomic.Int64
}

// NewHeartbeat creates a heartbeat from manifest settings.
func NewHeartbeat(settings map[string]any, logger *logging.Logger) (*Heartbeat, error) {
	var s HeartbeatSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	if s.Every < 0 {
		return nil, fmt.Errorf("heartbeat period must not be negative, got %s", s.Every)
	}
	if s.Every == 0 {
		s.Every = DefaultHeartbeatPeriod
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Heartbeat{every: s.Every, logger: logger}, nil
}

// Load starts the heartbeat.
func (h *Heartbeat) Load(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = 0
	h.running = true
	h.beats.Store(0)
	return nil
}

// Unload stops the heartbeat.
func (h *Heartbeat) Unload(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
	return nil
}

// Tick counts dt toward the next beat. A long frame may produce several.
func (h *Heartbeat) Tick(_ context.Context, dt time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running || dt <= 0 {
		return
	}
	h.pending += dt
	for h.pending >= h.every {
		h.pending -= h.every
		n := h.beats.Add(1)
		h.logger.Debug("heartbeat", "beat", n)
	}
}

// Beats returns the number of beats since Load.
func (h *Heartbeat) Beats() int64 { return h.beats.Load() }

// Period returns the configured beat period.
func (h *Heartbeat) Period() time.Duration { return h.every }
