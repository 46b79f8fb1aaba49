package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/config"
	"github.com/Iron-Ham/modhost/internal/gate"
	"github.com/Iron-Ham/modhost/internal/manifest"
	"github.com/Iron-Ham/modhost/internal/tick"
)

// shutdownTimeout bounds the final UnloadAll after a signal.
const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load the manifest and host its components until interrupted",
	Long: `Load every enabled component in the manifest in dependency order and
keep them running.

  SIGINT, SIGTERM  unload everything in reverse load order and exit
  SIGHUP           reload every reloadable component in place

With --watch, edits to the manifest are applied while running: new entries
are loaded, removed entries unloaded, and changed entries replaced.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("watch", false, "apply manifest edits while running")
	_ = viper.BindPFlag("manifest.watch", runCmd.Flags().Lookup("watch"))
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger = logger.With("run_id", runID.String())
	logger.Info("starting", "manifest", cfg.Manifest.Path, "watch", cfg.Manifest.Watch)

	h, err := newHost(cfg, logger)
	if err != nil {
		return err
	}
	m, err := loadManifest(cfg.Manifest.Path, h.catalog)
	if err != nil {
		return err
	}
	specs, err := m.Specs(h.catalog)
	if err != nil {
		return err
	}
	h.orch.Provide(specs...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg conc.WaitGroup
	wg.Go(func() { openGateAfter(ctx, h.gate, cfg.Lifecycle) })

	order, startErr := h.orch.Start(ctx)
	printStartup(cmd.OutOrStdout(), order, h.orch.Components(), startErr)
	if startErr != nil {
		logger.Warn("some components failed to start", "error", startErr.Error())
	}

	loop := tick.NewLoop(cfg.Tick.Interval(), h.orch.Tickers, logger.WithOp("tick"))
	wg.Go(func() { loop.Run(ctx) })

	if cfg.Manifest.Watch {
		w, err := manifest.NewWatcher(cfg.Manifest.Path, m, h.catalog, h.orch, manifest.WatcherConfig{
			Bus:      h.orch.Bus(),
			Logger:   logger,
			Debounce: cfg.Manifest.Debounce(),
		})
		if err != nil {
			return err
		}
		wg.Go(func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("manifest watcher stopped", "error", err.Error())
			}
		})
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	wg.Go(func() { reloadOnSignal(ctx, hup, h) })

	<-ctx.Done()
	logger.Info("shutting down")

	if r := wg.WaitAndRecover(); r != nil {
		logger.Error("background task panicked", "panic", r.String())
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.orch.Stop(stopCtx); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("shutdown finished with errors"))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("all components unloaded"))
	return nil
}

// openGateAfter opens g once the configured delay has passed. A negative
// delay leaves it closed.
func openGateAfter(ctx context.Context, g *gate.Flag, cfg config.LifecycleConfig) {
	delay, ok := cfg.GateOpenAfter()
	if !ok {
		return
	}
	if delay <= 0 {
		g.Open()
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
		g.Open()
	}
}

func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, h *host) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			h.logger.Info("reload requested")
			if err := h.orch.ReloadAll(ctx); err != nil {
				h.logger.Warn("reload finished with errors", "error", err.Error())
			}
		}
	}
}

func printStartup(w io.Writer, order []string, snaps []component.Snapshot, err error) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("modhost: %d component(s)", len(order))))
	for i, id := range order {
		fmt.Fprintf(w, "%s %s %s\n", indexStyle.Render(fmt.Sprintf("%d.", i+1)), id, successStyle.Render("loaded"))
	}
	for _, s := range snaps {
		if s.State != component.Loaded && !slices.Contains(order, s.TypeID) {
			fmt.Fprintf(w, "%s %s %s\n", indexStyle.Render("-"), s.TypeID, errorStyle.Render("failed"))
		}
	}
	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintln(w, errorStyle.Render("  "+line))
		}
	}
}
