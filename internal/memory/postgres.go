package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
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

// PGRepository is the PostgreSQL-backed Repository over ai_chat_context.
//
// PGRepository is safe for concurrent use by multiple goroutines.
type PGRepository struct {
	db     querier
	logger *slog.Logger
}

// NewPGRepository creates a PGRepository backed by the given pool.
func NewPGRepository(pool *pgxpool.Pool, logger *slog.Logger) (*PGRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PGRepository{db: pool, logger: logger}, nil
}

// Fetch loads a conversation context. Returns nil, nil when no row exists.
func (r *PGRepository) Fetch(ctx context.Context, conversationID string) (*ConversationContext, error) {
	var (
		row          ConversationContext
		userID       *uuid.UUID
		embeddingVec *pgvector.Vector
	)
	err := r.db.QueryRow(ctx,
		`SELECT conversation_id, user_id, rolling_summary, message_count, embedding, last_updated
		 FROM ai_chat_context
		 WHERE conversation_id = $1`,
		conversationID,
	).Scan(&row.ConversationID, &userID, &row.RollingSummary, &row.MessageCount, &embeddingVec, &row.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching conversation context %s: %w", conversationID, err)
	}

	row.UserID = userID
	if embeddingVec != nil {
		row.Embedding = embeddingVec.Slice()
	}
	return &row, nil
}

// Upsert writes a conversation context in a single statement keyed by
// conversation_id, so concurrent writers cannot corrupt the row. A nil
// embedding leaves the stored vector untouched.
func (r *PGRepository) Upsert(ctx context.Context, row ConversationContext) error {
	var vec *pgvector.Vector
	if len(row.Embedding) > 0 {
		v := pgvector.NewVector(row.Embedding)
		vec = &v
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_chat_context (conversation_id, user_id, rolling_summary, message_count, embedding, last_updated)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (conversation_id) DO UPDATE
		 SET user_id = EXCLUDED.user_id,
		     rolling_summary = EXCLUDED.rolling_summary,
		     message_count = EXCLUDED.message_count,
		     embedding = coalesce(EXCLUDED.embedding, ai_chat_context.embedding),
		     last_updated = now()`,
		row.ConversationID, row.UserID, row.RollingSummary, row.MessageCount, vec,
	)
	if err != nil {
		return fmt.Errorf("upserting conversation context %s: %w", row.ConversationID, err)
	}

	r.logger.Debug("upserted conversation context",
		"conversation_id", row.ConversationID,
		"message_count", row.MessageCount,
		"summary_length", len(row.RollingSummary))
	return nil
}
