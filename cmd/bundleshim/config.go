package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the global flags; flags set on the command line win
// over file values.
type fileConfig struct {
	JSONLogs bool   `yaml:"json_logs"`
	LogLevel string `yaml:"log_level"`
}

// loadConfig merges a YAML config file into the global flag variables. An
// empty path is a no-op.
func loadConfig(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from the user's own flag
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if !rootCmd.PersistentFlags().Changed("json-logs") {
		jsonLogs = cfg.JSONLogs
	}
	if !rootCmd.PersistentFlags().Changed("log-level") && cfg.LogLevel != "" {
		logLevel = cfg.LogLevel
	}
	return nil
}
