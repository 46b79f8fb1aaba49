package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/modhost/internal/config"
	"github.com/Iron-Ham/modhost/internal/errors"
	"github.com/Iron-Ham/modhost/internal/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the manifest",
	Long: `Check the configuration and the component manifest without loading
anything. Every problem found is reported; the command fails if there is
at least one.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var errs []error

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("config: invalid"))
		fmt.Fprintln(out, mutedStyle.Render("  "+err.Error()))
		errs = append(errs, err)
		// The manifest can still be checked with default settings.
		cfg = config.Default()
		if p := viper.GetString("manifest.path"); p != "" {
			cfg.Manifest.Path = p
		}
	} else {
		source := viper.ConfigFileUsed()
		if source == "" {
			source = "defaults"
		}
		fmt.Fprintln(out, successStyle.Render("config: ok")+" "+mutedStyle.Render("("+source+")"))
	}

	cat, err := newCatalog(logging.NopLogger())
	if err != nil {
		return err
	}
	m, err := loadManifest(cfg.Manifest.Path, cat)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("manifest: invalid"))
		fmt.Fprintln(out, mutedStyle.Render("  "+err.Error()))
		errs = append(errs, err)
	} else {
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("manifest: ok (%d enabled of %d)",
			len(m.Enabled()), len(m.Components)))+" "+mutedStyle.Render("("+cfg.Manifest.Path+")"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}
