// Package config implements configuration management commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkarvon/lotline/internal/conf"
)

// Command creates the config command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(saveCommand(settings))
	return cmd
}

func saveCommand(settings *conf.Settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to the config file",
		Long: `Persist the currently effective settings, including command-line
overrides, back to the configuration file. Comments in the existing file are
not preserved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := output
			if configPath == "" {
				paths, err := conf.GetDefaultConfigPaths()
				if err != nil {
					return err
				}
				configPath = filepath.Join(paths[0], "config.yaml")
			}

			if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
				return err
			}
			if err := conf.SaveYAMLConfig(configPath, settings); err != nil {
				return err
			}
			fmt.Printf("Configuration written to %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead of the default config file")
	return cmd
}
