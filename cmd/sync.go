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
	"github.com/khetrent/khetrent/internal/knowledge"
)

var syncType string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Re-embed all source entities into the knowledge index",
	Long: `Sync walks every marketplace entity and re-embeds it, bypassing the
queue. Use after schema changes, embedder model changes or to backfill
a fresh index. With --type only that source type is synced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync()
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncType, "type", "", "source type to sync (equipment, labour, user, review, booking)")
	rootCmd.AddCommand(syncCmd)
}

func runSync() error {
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

	reports := make(map[knowledge.SourceType]knowledge.SyncReport)
	if syncType != "" {
		sourceType := knowledge.SourceType(syncType)
		if !sourceType.Valid() {
			return fmt.Errorf("unknown source type: %q", syncType)
		}
		reports[sourceType] = a.Syncer.SyncType(ctx, sourceType)
	} else {
		reports = a.Syncer.SyncAll(ctx)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
