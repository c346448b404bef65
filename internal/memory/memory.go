// Package memory maintains a bounded, PII-scrubbed rolling summary per
// conversation, re-embedded on every update for future retrieval.
//
// Memory is best-effort throughout: a chat turn must always receive a
// response even when memory maintenance fails, so storage and embedding
// errors here are logged and swallowed, never propagated.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/khetrent/khetrent/internal/embedding"
	"github.com/khetrent/khetrent/internal/pii"
)

// Repository persists conversation contexts. Upsert must be a single
// idempotent write keyed by conversation_id, not a read-then-write pair.
type Repository interface {
	Fetch(ctx context.Context, conversationID string) (*ConversationContext, error)
	Upsert(ctx context.Context, row ConversationContext) error
}

// Service wraps the repository with scrubbing, windowing and best-effort
// re-embedding.
//
// Service is safe for concurrent use across conversations. Within one
// conversation, concurrent turns are not serialized; a later upsert can
// overwrite an earlier one's summary. Callers needing strict per-turn
// ordering must serialize turns themselves.
type Service struct {
	repo   Repository
	client embedding.Client
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(repo Repository, client embedding.Client, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if client == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, client: client, logger: logger}, nil
}

// FetchContext returns the conversation's context. A missing row yields a
// zero-value context, not an error; fetch failures degrade the same way.
func (s *Service) FetchContext(ctx context.Context, conversationID string) ConversationContext {
	row, err := s.repo.Fetch(ctx, conversationID)
	if err != nil {
		s.logger.Warn("fetching conversation context failed",
			"conversation_id", conversationID, "error", err)
		return ConversationContext{ConversationID: conversationID}
	}
	if row == nil {
		return ConversationContext{ConversationID: conversationID}
	}
	return *row
}

// RecordTurn appends one user/assistant exchange to the conversation's
// rolling summary. Both turns are scrubbed of PII before anything is
// persisted or logged. Failures are logged and swallowed.
func (s *Service) RecordTurn(ctx context.Context, conversationID string, userID *uuid.UUID, userTurn, assistantTurn string) {
	cleanUser := pii.Scrub(userTurn).Scrubbed
	cleanAssistant := pii.Scrub(assistantTurn).Scrubbed

	existing := s.FetchContext(ctx, conversationID)

	appended := existing.RollingSummary +
		"\nUser: " + clipTurn(cleanUser) +
		"\nAssistant: " + clipTurn(cleanAssistant)

	summary := appended
	if len(summary) > MaxSummaryChars {
		summary = summary[len(summary)-MaxSummaryChars:]
		// The window edge may have landed mid-rune; drop the partial rune.
		for len(summary) > 0 && !utf8.RuneStart(summary[0]) {
			summary = summary[1:]
		}
	}

	// Re-embedding the summary is best-effort; a failed embed keeps the
	// previous vector rather than failing the turn.
	vec := existing.Embedding
	prefix := summary
	if len(prefix) > embedPrefixChars {
		prefix = cutAtRune(prefix, embedPrefixChars)
	}
	if newVec, err := s.client.Embed(ctx, prefix); err == nil && len(newVec) > 0 {
		vec = newVec
	} else {
		s.logger.Warn("conversation summary embedding failed",
			"conversation_id", conversationID, "error", err)
	}

	row := ConversationContext{
		ConversationID: conversationID,
		UserID:         userID,
		RollingSummary: summary,
		MessageCount:   existing.MessageCount + 1,
		Embedding:      vec,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		s.logger.Error("conversation context upsert failed",
			"conversation_id", conversationID, "error", err)
	}
}

// FormatMemory wraps the rolling summary in explicit start/end markers for
// prompt injection. Returns "" when the summary is empty or whitespace so
// callers can omit the memory block entirely.
func FormatMemory(ctx ConversationContext) string {
	summary := strings.TrimSpace(ctx.RollingSummary)
	if summary == "" {
		return ""
	}
	return fmt.Sprintf("=== CONVERSATION MEMORY (last %d turns) ===\n%s\n=== END MEMORY ===",
		ctx.MessageCount, summary)
}

// clipTurn truncates a turn to maxTurnChars before it enters the summary.
func clipTurn(s string) string {
	if len(s) <= maxTurnChars {
		return s
	}
	return cutAtRune(s, maxTurnChars)
}

// cutAtRune cuts s to at most n bytes without splitting a rune.
func cutAtRune(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
