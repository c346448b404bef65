// Package cmd contains the khetrent CLI. main.go stays a minimal entry
// point; all command wiring lives here.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/khetrent/khetrent/internal/config"
	"github.com/khetrent/khetrent/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "khetrent",
	Short: "KhetRent assistant backend",
	Long: `KhetRent keeps the farm-equipment marketplace searchable by the AI
assistant: it embeds equipment, labour, user, review and booking data
into PostgreSQL (pgvector) and serves grounded context over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	initLogger()
	return rootCmd.Execute()
}

// initLogger installs the default structured logger. DEBUG in the
// environment switches to debug level.
func initLogger() {
	cfg := log.Config{Level: slog.LevelInfo, JSON: true}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
		cfg.AddSource = true
	}
	slog.SetDefault(log.New(cfg))
}

// loadConfig loads and validates configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// checkRequiredEnv verifies the Gemini API key is present before any
// command that talks to the embedding provider.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "KhetRent requires a Gemini API key to create embeddings.")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}
