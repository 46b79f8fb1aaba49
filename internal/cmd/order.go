package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/modhost/internal/config"
	"github.com/Iron-Ham/modhost/internal/errors"
	"github.com/Iron-Ham/modhost/internal/manifest"
	"github.com/Iron-Ham/modhost/internal/resolve"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the load order resolved from the manifest",
	Long: `Print the order in which run would load the manifest's enabled
components. Circular dependencies are listed as warnings; the components
involved are still placed, exactly as run would place them.`,
	Args: cobra.NoArgs,
	RunE: runOrder,
}

func init() {
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	m, err := manifest.Load(cfg.Manifest.Path)
	if err != nil {
		return err
	}
	// Factories are not needed to compute an order.
	if err := m.Validate(nil); err != nil {
		return err
	}

	enabled := m.Enabled()
	items := make([]resolve.Item, len(enabled))
	for i, e := range enabled {
		items[i] = resolve.Item{ID: e.ID, Deps: e.DependsOn}
	}
	res := resolve.Resolve(items)

	printOrder(cmd.OutOrStdout(), items, res)
	return nil
}

func printOrder(w io.Writer, items []resolve.Item, res resolve.Result) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Load order (%d)", len(res.Order))))
	for i, idx := range res.Order {
		it := items[idx]
		line := fmt.Sprintf("%s %s", indexStyle.Render(fmt.Sprintf("%d.", i+1)), it.ID)
		if len(it.Deps) > 0 {
			line += " " + mutedStyle.Render("after "+strings.Join(it.Deps, ", "))
		}
		fmt.Fprintln(w, line)
	}
	printCycles(w, res.Cycles)
}

func printCycles(w io.Writer, cycles []errors.CircularDependency) {
	if len(cycles) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d circular dependenc%s", len(cycles), plural(len(cycles), "y", "ies"))))
	for _, c := range cycles {
		fmt.Fprintln(w, warningStyle.Render("  "+strings.Join(c.Chain, " -> ")))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
