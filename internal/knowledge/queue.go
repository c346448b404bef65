package knowledge

// queue.go persists the durable embedding change queue. The queue table is
// shared process-wide state: every read is treated as potentially stale and
// every write is idempotent, so overlapping processor invocations are safe
// without distributed locking.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueueStore drains and closes embedding queue items.
//
// QueueStore is safe for concurrent use by multiple goroutines.
type QueueStore struct {
	db     querier
	logger *slog.Logger
}

// NewQueueStore creates a QueueStore backed by the given pool.
func NewQueueStore(pool *pgxpool.Pool, logger *slog.Logger) (*QueueStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueStore{db: pool, logger: logger}, nil
}

// FetchUnprocessed returns up to limit unprocessed items, oldest first.
func (q *QueueStore) FetchUnprocessed(ctx context.Context, limit int32) ([]QueueItem, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := q.db.Query(ctx,
		`SELECT id, source_type, source_id, action, created_at, processed
		 FROM embedding_queue
		 WHERE processed = false
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching embedding queue: %w", err)
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		var item QueueItem
		var sourceType, action string
		if err := rows.Scan(&item.ID, &sourceType, &item.SourceID, &action, &item.CreatedAt, &item.Processed); err != nil {
			return nil, fmt.Errorf("scanning queue item: %w", err)
		}
		item.SourceType = SourceType(sourceType)
		item.Action = Action(action)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading queue items: %w", err)
	}
	return items, nil
}

// MarkProcessed closes a queue item. Marking an already-processed item is
// a no-op, so at-least-once double-processing across overlapping runs is
// harmless.
func (q *QueueStore) MarkProcessed(ctx context.Context, itemID string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE embedding_queue SET processed = true WHERE id = $1`,
		itemID,
	)
	if err != nil {
		return fmt.Errorf("marking queue item %s processed: %w", itemID, err)
	}
	return nil
}

// CountPending returns the number of unprocessed queue items.
func (q *QueueStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM embedding_queue WHERE processed = false`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending queue items: %w", err)
	}
	return count, nil
}

// Enqueue appends a change notification. Entity-mutation hooks normally
// do this via database triggers; Enqueue exists for backfills and tests.
func (q *QueueStore) Enqueue(ctx context.Context, sourceType SourceType, sourceID string, action Action) (string, error) {
	if !sourceType.Valid() {
		return "", fmt.Errorf("invalid source type: %q", sourceType)
	}
	if sourceID == "" {
		return "", fmt.Errorf("source ID is required")
	}

	id := uuid.New().String()
	_, err := q.db.Exec(ctx,
		`INSERT INTO embedding_queue (id, source_type, source_id, action, created_at, processed)
		 VALUES ($1, $2, $3, $4, now(), false)`,
		id, string(sourceType), sourceID, string(action),
	)
	if err != nil {
		return "", fmt.Errorf("enqueuing %s/%s: %w", sourceType, sourceID, err)
	}

	q.logger.Debug("enqueued embedding change",
		"source_type", sourceType, "source_id", sourceID, "action", action)
	return id, nil
}
