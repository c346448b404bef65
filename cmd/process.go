package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khetrent/khetrent/internal/app"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Drain one batch from the embedding queue",
	Long: `Process fetches up to 100 pending items from the embedding queue,
embeds each changed entity and upserts it into the knowledge index.
Failed items stay queued for the next run. Intended for cron.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	report, err := a.Processor.ProcessBatch(ctx)
	if err != nil {
		return fmt.Errorf("processing embedding queue: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
