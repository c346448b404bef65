package knowledge

// sync.go rebuilds knowledge entries from scratch, bypassing the queue.
// Used for initial backfills and recovery after schema changes; normal
// freshness comes from the queue processor.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/khetrent/khetrent/internal/embedding"
)

// Lister extends SourceReader with ID enumeration for full resyncs.
type Lister interface {
	SourceReader
	ListIDs(ctx context.Context, sourceType SourceType) ([]string, error)
}

// SyncReport aggregates one source type's resync.
type SyncReport struct {
	Synced int      `json:"synced"`
	Errors []string `json:"errors"`
}

// Syncer re-embeds every source entity of each type.
type Syncer struct {
	store  EntryStore
	source Lister
	client embedding.Client
	logger *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(store EntryStore, source Lister, client embedding.Client, logger *slog.Logger) (*Syncer, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if source == nil {
		return nil, fmt.Errorf("source lister is required")
	}
	if client == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, source: source, client: client, logger: logger}, nil
}

// SyncAll resyncs every source type. Per-entity failures are aggregated
// per type; one bad record never aborts the rest.
func (s *Syncer) SyncAll(ctx context.Context) map[SourceType]SyncReport {
	reports := make(map[SourceType]SyncReport, len(SourceTypes))
	for _, st := range SourceTypes {
		reports[st] = s.SyncType(ctx, st)
	}
	return reports
}

// SyncType resyncs one source type.
func (s *Syncer) SyncType(ctx context.Context, sourceType SourceType) SyncReport {
	report := SyncReport{Errors: []string{}}

	ids, err := s.source.ListIDs(ctx, sourceType)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("listing %s: %v", sourceType, err))
		return report
	}

	for _, id := range ids {
		if err := s.syncOne(ctx, sourceType, id); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("syncing %s/%s: %v", sourceType, id, err))
			continue
		}
		report.Synced++
	}

	s.logger.Info("resynced source type",
		"source_type", sourceType, "synced", report.Synced, "errors", len(report.Errors))
	return report
}

// syncOne fetches, embeds and upserts a single entity. An entity that
// vanished between listing and fetching is skipped silently.
func (s *Syncer) syncOne(ctx context.Context, sourceType SourceType, sourceID string) error {
	record, err := s.source.Fetch(ctx, sourceType, sourceID)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	vec, err := s.client.Embed(ctx, record.Content)
	if err != nil {
		return fmt.Errorf("generating embedding: %w", err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding returned")
	}

	return s.store.Upsert(ctx, Entry{
		SourceType: sourceType,
		SourceID:   sourceID,
		Content:    record.Content,
		Metadata:   record.Metadata,
		Embedding:  vec,
	})
}
