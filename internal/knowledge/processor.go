package knowledge

// processor.go drains the embedding queue: for each pending change it
// fetches current source data, formats it, generates an embedding and
// upserts (or deletes) the knowledge entry. Failures are isolated per
// item; a failed item stays unprocessed and is retried on the next run.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/khetrent/khetrent/internal/embedding"
)

// BatchLimit is the maximum number of queue items one run processes.
const BatchLimit = 100

// EntryStore is the slice of the knowledge store the processor needs.
type EntryStore interface {
	Upsert(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, sourceType SourceType, sourceID string) error
}

// Queue is the slice of the queue store the processor needs.
type Queue interface {
	FetchUnprocessed(ctx context.Context, limit int32) ([]QueueItem, error)
	MarkProcessed(ctx context.Context, itemID string) error
}

// Report aggregates one ProcessBatch run. Partial success (some items
// processed, some errored) is a valid, reportable outcome; overall success
// is len(Errors) == 0.
type Report struct {
	Processed int      `json:"processed"`
	Upserted  int      `json:"upserted"`
	Deleted   int      `json:"deleted"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// Processor drains the embedding queue in bounded batches.
//
// Processor holds no cross-invocation state: every run re-reads the queue,
// and all writes are idempotent, so concurrent invocations are tolerated.
type Processor struct {
	queue  Queue
	store  EntryStore
	source SourceReader
	client embedding.Client
	logger *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(queue Queue, store EntryStore, source SourceReader, client embedding.Client, logger *slog.Logger) (*Processor, error) {
	if queue == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if source == nil {
		return nil, fmt.Errorf("source reader is required")
	}
	if client == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{queue: queue, store: store, source: source, client: client, logger: logger}, nil
}

// ProcessBatch drains up to BatchLimit unprocessed items, oldest first.
//
// An empty queue is success with an all-zero report. A failure fetching
// the batch itself is fatal for the run and returned as an error with an
// empty report; per-item failures are recorded in Report.Errors and the
// batch continues. Items that fail are left unprocessed so the next run
// retries them naturally.
func (p *Processor) ProcessBatch(ctx context.Context) (Report, error) {
	report := Report{Errors: []string{}}

	items, err := p.queue.FetchUnprocessed(ctx, BatchLimit)
	if err != nil {
		return report, fmt.Errorf("fetching queue batch: %w", err)
	}
	if len(items) == 0 {
		return report, nil
	}

	for _, item := range items {
		p.processItem(ctx, item, &report)
	}

	p.logger.Info("processed embedding queue batch",
		"fetched", len(items),
		"processed", report.Processed,
		"upserted", report.Upserted,
		"deleted", report.Deleted,
		"skipped", report.Skipped,
		"errors", len(report.Errors))

	return report, nil
}

// processItem handles one queue item; any failure is recorded on the
// report and leaves the item unprocessed for the next run.
func (p *Processor) processItem(ctx context.Context, item QueueItem, report *Report) {
	if item.Action == ActionDelete {
		if err := p.store.Delete(ctx, item.SourceType, item.SourceID); err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("deleting %s/%s: %v", item.SourceType, item.SourceID, err))
			return
		}
		if err := p.queue.MarkProcessed(ctx, item.ID); err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("marking %s/%s (delete) processed: %v", item.SourceType, item.SourceID, err))
			return
		}
		report.Deleted++
		report.Processed++
		return
	}

	record, err := p.source.Fetch(ctx, item.SourceType, item.SourceID)
	if err != nil {
		report.Errors = append(report.Errors,
			fmt.Sprintf("fetching %s/%s: %v", item.SourceType, item.SourceID, err))
		return
	}
	if record == nil {
		// The entity was deleted after the queue entry was created.
		// Benign skip: mark processed so the queue never jams on it.
		if err := p.queue.MarkProcessed(ctx, item.ID); err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("marking %s/%s (skip) processed: %v", item.SourceType, item.SourceID, err))
			return
		}
		report.Skipped++
		report.Processed++
		return
	}

	vec, err := p.client.Embed(ctx, record.Content)
	if err == nil && len(vec) == 0 {
		err = errors.New("empty embedding returned")
	}
	if err != nil {
		// Leave unprocessed so the next run retries the embedding.
		report.Errors = append(report.Errors,
			fmt.Sprintf("generating embedding for %s/%s: %v", item.SourceType, item.SourceID, err))
		return
	}

	entry := Entry{
		SourceType: item.SourceType,
		SourceID:   item.SourceID,
		Content:    record.Content,
		Metadata:   record.Metadata,
		Embedding:  vec,
	}
	if err := p.store.Upsert(ctx, entry); err != nil {
		report.Errors = append(report.Errors,
			fmt.Sprintf("upserting %s/%s: %v", item.SourceType, item.SourceID, err))
		return
	}
	if err := p.queue.MarkProcessed(ctx, item.ID); err != nil {
		report.Errors = append(report.Errors,
			fmt.Sprintf("marking %s/%s processed: %v", item.SourceType, item.SourceID, err))
		return
	}
	report.Upserted++
	report.Processed++
}
