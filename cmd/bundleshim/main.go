// Package main provides the bundleshim CLI for inspecting, upgrading, and
// running legacy session-bundle exports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/bundleshim/internal/logger"
)

const version = "v0.1.0"

var (
	// Global flags
	configPath string
	jsonLogs   bool
	logLevel   string

	log *zap.Logger
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "bundleshim",
		Short: "Work with legacy session-bundle exports",
		Long: `bundleshim inspects, upgrades, and runs legacy session-bundle exports.

An export directory holds an export.meta graph file and sharded variable
files (export-?????-of-?????). The upgrade path converts the export's legacy
signatures into signature defs under the "serving_default" key.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(configPath); err != nil {
				return err
			}
			var err error
			log, err = logger.New(jsonLogs, logLevel)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bundleshim %s\n", version)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit JSON logs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
