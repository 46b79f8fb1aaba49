package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/modhost/internal/builtin"
	"github.com/Iron-Ham/modhost/internal/config"
	"github.com/Iron-Ham/modhost/internal/gate"
	"github.com/Iron-Ham/modhost/internal/logging"
	"github.com/Iron-Ham/modhost/internal/manifest"
	"github.com/Iron-Ham/modhost/internal/orchestrator"
)

// host bundles what the run command wires together.
type host struct {
	cfg     *config.Config
	logger  *logging.Logger
	catalog *manifest.Catalog
	gate    *gate.Flag
	orch    *orchestrator.Orchestrator
}

func newHost(cfg *config.Config, logger *logging.Logger) (*host, error) {
	cat, err := newCatalog(logger)
	if err != nil {
		return nil, err
	}

	gates := gate.NewSet()
	world := gates.Get(cfg.Lifecycle.Gate)

	orch := orchestrator.New(
		orchestrator.WithLogger(logger),
		orchestrator.WithPropagateErrors(cfg.Lifecycle.PropagateErrors),
		orchestrator.WithLockTimeout(cfg.Lifecycle.LockTimeout()),
		orchestrator.WithGate(world),
		orchestrator.WithGateTimeout(cfg.Lifecycle.GateTimeout()),
	)

	return &host{
		cfg:     cfg,
		logger:  logger,
		catalog: cat,
		gate:    world,
		orch:    orch,
	}, nil
}

func newCatalog(logger *logging.Logger) (*manifest.Catalog, error) {
	cat := manifest.NewCatalog()
	if err := builtin.Register(cat, logger); err != nil {
		return nil, fmt.Errorf("register builtin components: %w", err)
	}
	return cat, nil
}

// loadManifest reads the manifest and checks it against the catalog.
func loadManifest(path string, cat *manifest.Catalog) (*manifest.Manifest, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(cat); err != nil {
		return nil, err
	}
	return m, nil
}

// newLogger writes JSON logs to the configured directory when file logging
// is enabled, and to stderr otherwise.
func newLogger(cfg *config.Config, stderr io.Writer) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewLoggerWithOptions(logging.Options{
			Level:  cfg.Logging.Level,
			Writer: stderr,
		})
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return logging.NewLoggerWithOptions(logging.Options{
		Dir:   cfg.Logging.ResolveDir(cwd),
		Level: cfg.Logging.Level,
		Rotation: logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		},
	})
}
