// Package cli implements the operator command line.
package cli

import (
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "smartsuite-mcp",
	Short: "SmartSuite MCP server with a local query cache",
	Long: `A stateful mediator between an AI assistant and SmartSuite.

Read tools are served from a single-file SQLite cache with per-table
schemas synthesized from SmartSuite field metadata; write tools forward
upstream and invalidate the affected cache scope.`,
	Version: "1.0.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFileName, "config file path")
}

// loadConfig loads the configured or default configuration.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.LoadDefaultConfig()
	}
	return cfg
}

// cliLogger builds a quiet logger for one-shot commands.
func cliLogger(cfg *config.Config) (zerolog.Logger, error) {
	quiet := *cfg
	quiet.Log.Console = false
	return config.SetupLogger(&quiet)
}
