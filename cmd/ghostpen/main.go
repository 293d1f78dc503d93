// Package main provides the ghostpen CLI: dataset tooling, profiling,
// generation and the REST API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/config"
	"github.com/jonathan/ghostpen/internal/observability"
)

var (
	configPath string
	logLevel   string

	appConfig *config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ghostpen",
	Short: "Write social media posts in an author's style",
	Long: `GhostPen builds style profiles from an author's post history and writes
new posts that imitate them, scoring each result against the profile.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		l, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		appConfig = cfg
		logger = l
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
