package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/modhost/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "modhost",
	Short: "Host and orchestrate stateful components in one process",
	Long: `modhost loads the components declared in a manifest, in dependency
order, and keeps them running until it is interrupted. Components can be
reloaded in place with SIGHUP or by editing the manifest while it is watched.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/modhost/config.yaml)")
	rootCmd.PersistentFlags().StringP("manifest", "m", "", "component manifest (default is ./modhost.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("manifest.path", rootCmd.PersistentFlags().Lookup("manifest"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MODHOST")
	// e.g. MODHOST_LIFECYCLE_LOCK_TIMEOUT_MS for lifecycle.lock_timeout_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
