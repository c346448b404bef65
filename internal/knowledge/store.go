package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// searchTimeout bounds a vector similarity query.
const searchTimeout = 10 * time.Second

// Store persists knowledge entries in PostgreSQL + pgvector and serves
// nearest-neighbor search over them.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     querier
	logger *slog.Logger
}

// NewStore creates a knowledge Store backed by the given pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: pool, logger: logger}, nil
}

// Upsert inserts or replaces the entry keyed by (source_type, source_id).
// Content, metadata and embedding are replaced atomically, so concurrent
// double-processing of the same queue item is safe.
func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	if !entry.SourceType.Valid() {
		return fmt.Errorf("invalid source type: %q", entry.SourceType)
	}
	if entry.SourceID == "" {
		return fmt.Errorf("source ID is required")
	}
	if len(entry.Embedding) == 0 {
		return fmt.Errorf("embedding is required for %s/%s", entry.SourceType, entry.SourceID)
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata for %s/%s: %w", entry.SourceType, entry.SourceID, err)
	}

	vec := pgvector.NewVector(entry.Embedding)
	_, err = s.db.Exec(ctx,
		`INSERT INTO knowledge_embeddings (source_type, source_id, content, metadata, embedding, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (source_type, source_id) DO UPDATE
		 SET content = EXCLUDED.content,
		     metadata = EXCLUDED.metadata,
		     embedding = EXCLUDED.embedding,
		     updated_at = now()`,
		string(entry.SourceType), entry.SourceID, entry.Content, metadataJSON, vec,
	)
	if err != nil {
		return fmt.Errorf("upserting embedding for %s/%s: %w", entry.SourceType, entry.SourceID, err)
	}

	s.logger.Debug("upserted knowledge entry",
		"source_type", entry.SourceType, "source_id", entry.SourceID,
		"content_length", len(entry.Content))
	return nil
}

// Delete removes the entry keyed by (source_type, source_id). Deleting a
// non-existent entry is not an error; delete is idempotent by contract.
func (s *Store) Delete(ctx context.Context, sourceType SourceType, sourceID string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM knowledge_embeddings WHERE source_type = $1 AND source_id = $2`,
		string(sourceType), sourceID,
	)
	if err != nil {
		return fmt.Errorf("deleting embedding for %s/%s: %w", sourceType, sourceID, err)
	}

	s.logger.Debug("deleted knowledge entry", "source_type", sourceType, "source_id", sourceID)
	return nil
}

// Search returns the entries most similar to the query embedding, ordered
// by descending cosine similarity, keeping only entries at or above
// threshold and at most limit rows.
func (s *Store) Search(ctx context.Context, queryEmbedding []float32, threshold float64, limit int32) ([]SearchResult, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	vec := pgvector.NewVector(queryEmbedding)
	rows, err := s.db.Query(queryCtx,
		`SELECT source_type, source_id, content, metadata, 1 - (embedding <=> $1) AS similarity
		 FROM knowledge_embeddings
		 WHERE 1 - (embedding <=> $1) >= $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge embeddings: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			sourceType   string
			sourceID     string
			content      string
			metadataJSON []byte
			similarity   float64
		)
		if err := rows.Scan(&sourceType, &sourceID, &content, &metadataJSON, &similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}

		var metadata map[string]any
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			s.logger.Warn("failed to parse entry metadata",
				"source_type", sourceType, "source_id", sourceID, "error", err)
			metadata = map[string]any{}
		}

		results = append(results, SearchResult{
			Entry: Entry{
				SourceType: SourceType(sourceType),
				SourceID:   sourceID,
				Content:    content,
				Metadata:   metadata,
			},
			Similarity: similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	return results, nil
}

// Count returns the number of stored entries, optionally filtered by
// source type (empty string counts everything).
func (s *Store) Count(ctx context.Context, sourceType SourceType) (int64, error) {
	var count int64
	var err error
	if sourceType == "" {
		err = s.db.QueryRow(ctx, `SELECT count(*) FROM knowledge_embeddings`).Scan(&count)
	} else {
		err = s.db.QueryRow(ctx,
			`SELECT count(*) FROM knowledge_embeddings WHERE source_type = $1`,
			string(sourceType)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting knowledge entries: %w", err)
	}
	return count, nil
}
