package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/modhost/internal/component"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(ctx context.Context, root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.ExecuteContext(ctx)
	return buf.String(), err
}

// setupFiles writes a config file and a manifest into a temp dir and
// returns their paths.
func setupFiles(t *testing.T, cfg, manifest string) (cfgPath, manifestPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgPath = filepath.Join(dir, "config.yaml")
	manifestPath = filepath.Join(dir, "modhost.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, manifestPath
}

const quietConfig = `
logging:
  level: error
tick:
  interval_ms: 10
`

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "modhost" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "modhost")
	}

	expectedCmds := []string{"run", "order", "validate"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}

	for _, flag := range []string{"config", "manifest"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s not defined", flag)
		}
	}
}

func TestOrderCommand(t *testing.T) {
	cfg, path := setupFiles(t, quietConfig, `
components:
  - id: app
    depends_on: [db, cache]
  - id: db
    depends_on: [config]
  - id: cache
  - id: config
  - id: x
    depends_on: [y]
  - id: y
    depends_on: [x]
  - id: off
    enabled: false
`)

	out, err := executeCommand(context.Background(), rootCmd, "order", "-c", cfg, "-m", path)
	if err != nil {
		t.Fatalf("order error = %v\n%s", err, out)
	}

	want := []string{"config", "db", "cache", "app", "y", "x"}
	last := -1
	for i, id := range want {
		idx := strings.Index(out, ". "+id)
		if idx < 0 {
			t.Fatalf("%s missing from output:\n%s", id, out)
		}
		if idx < last {
			t.Errorf("%s printed out of order (position %d):\n%s", id, i, out)
		}
		last = idx
	}
	if strings.Contains(out, ". off") {
		t.Errorf("disabled component listed:\n%s", out)
	}
	if !strings.Contains(out, "Load order (6)") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "1 circular dependency") || !strings.Contains(out, "x -> y -> x") {
		t.Errorf("cycle warning missing:\n%s", out)
	}
}

func TestOrderCommand_MissingManifest(t *testing.T) {
	cfg, _ := setupFiles(t, quietConfig, "")
	_, err := executeCommand(context.Background(), rootCmd, "order", "-c", cfg, "-m", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("order should fail for a missing manifest")
	}
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name     string
		cfg      string
		manifest string
		wantErr  bool
		wantOut  []string
	}{
		{
			name: "valid",
			cfg:  quietConfig,
			manifest: `
components:
  - id: clock
  - id: store
    factory: kv
  - id: spare
    factory: kv
    enabled: false
`,
			wantOut: []string{"config: ok", "manifest: ok (2 enabled of 3)"},
		},
		{
			name:     "unknown factory",
			cfg:      quietConfig,
			manifest: "components:\n  - id: db\n",
			wantErr:  true,
			wantOut:  []string{"config: ok", "manifest: invalid", "unknown factory"},
		},
		{
			name:     "invalid config still checks the manifest",
			cfg:      "lifecycle:\n  lock_timeout_ms: -5\n",
			manifest: "components:\n  - id: clock\n",
			wantErr:  true,
			wantOut:  []string{"config: invalid", "manifest: ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, path := setupFiles(t, tt.cfg, tt.manifest)
			out, err := executeCommand(context.Background(), rootCmd, "validate", "-c", cfg, "-m", path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate error = %v, wantErr %v\n%s", err, tt.wantErr, out)
			}
			for _, s := range tt.wantOut {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestRunCommand_StopsWhenContextEnds(t *testing.T) {
	cfg, path := setupFiles(t, quietConfig, `
components:
  - id: heartbeat
    depends_on: [clock]
    requires_gate: true
    settings:
      every: 20ms
  - id: clock
`)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := executeCommand(ctx, rootCmd, "run", "-c", cfg, "-m", path)
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}

	for _, s := range []string{"modhost: 2 component(s)", "1. clock loaded", "2. heartbeat loaded", "all components unloaded"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestPrintStartup_ListsFailedSeparately(t *testing.T) {
	var buf bytes.Buffer
	snaps := []component.Snapshot{
		{TypeID: "clock", State: component.Loaded},
		{TypeID: "db", State: component.NotLoaded},
	}
	printStartup(&buf, []string{"clock"}, snaps, errors.New("load failed [component=db]: refused"))

	out := buf.String()
	for _, s := range []string{"modhost: 1 component(s)", "1. clock loaded", "- db failed", "refused"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
	if strings.Contains(out, "2.") {
		t.Errorf("failed components must not be numbered:\n%s", out)
	}
}

func TestRunCommand_InvalidManifest(t *testing.T) {
	cfg, path := setupFiles(t, quietConfig, "components:\n  - id: clock\n  - id: clock\n")
	_, err := executeCommand(context.Background(), rootCmd, "run", "-c", cfg, "-m", path)
	if err == nil {
		t.Error("run should refuse a manifest with duplicate ids")
	}
}
