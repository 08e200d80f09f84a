package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/mkarvon/lotline/cmd/config"
	"github.com/mkarvon/lotline/cmd/consolidate"
	"github.com/mkarvon/lotline/cmd/discrepancies"
	"github.com/mkarvon/lotline/cmd/ingest"
	"github.com/mkarvon/lotline/cmd/report"
	"github.com/mkarvon/lotline/cmd/validate"
	"github.com/mkarvon/lotline/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lotline",
		Short: "LotLine CLI",
		Long:  `LotLine reconciles production, quality, and shipping feeds into a unified view keyed by manufacturing lot.`,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		ingest.Command(settings),
		consolidate.Command(settings),
		validate.Command(settings),
		discrepancies.Command(settings),
		report.Command(settings),
		configcmd.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Sync the settings struct with viper's values so command-line
		// arguments take precedence over the config file
		settings.Debug = viper.GetBool("debug")
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
