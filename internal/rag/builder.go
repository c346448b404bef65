// Package rag assembles a ranked, budget-bounded textual context from the
// knowledge store for grounding the marketplace assistant's responses.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/khetrent/khetrent/internal/embedding"
	"github.com/khetrent/khetrent/internal/knowledge"
)

// Default retrieval parameters.
const (
	DefaultMaxTokens  = 2000
	DefaultThreshold  = 0.7
	DefaultMaxResults = int32(10)
)

// Searcher is the slice of the knowledge store the builder needs.
type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float32, threshold float64, limit int32) ([]knowledge.SearchResult, error)
}

// Options overrides the default retrieval parameters. Zero values fall
// back to the defaults.
type Options struct {
	MaxTokens  int
	Threshold  float64
	MaxResults int32
}

// Retrieved is one knowledge entry that survived the similarity filter.
type Retrieved struct {
	SourceType knowledge.SourceType `json:"sourceType"`
	SourceID   string               `json:"sourceId"`
	Content    string               `json:"content"`
	Similarity float64              `json:"similarity"`
	Metadata   map[string]any       `json:"metadata"`
}

// Result is the assembled context. HasContext is true iff at least one
// result survived the threshold filter; an empty-but-successful search is
// a valid outcome, distinct from an embedding failure (both yield
// HasContext == false, neither is an error).
type Result struct {
	Context    string      `json:"context"`
	Sources    []Retrieved `json:"sources"`
	HasContext bool        `json:"hasContext"`
}

// Builder embeds queries and turns similarity search results into a
// prompt-ready context string.
//
// Builder is stateless per request and safe for concurrent use.
type Builder struct {
	client embedding.Client
	store  Searcher
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(client embedding.Client, store Searcher, logger *slog.Logger) (*Builder, error) {
	if client == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{client: client, store: store, logger: logger}, nil
}

// BuildContext embeds the query, retrieves similar knowledge entries and
// formats them into a token-budgeted context string.
//
// Embedding and search failures degrade to an empty Result rather than an
// error: callers must be able to answer without grounding.
func (b *Builder) BuildContext(ctx context.Context, query string, opts Options) Result {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	queryVec, err := b.client.Embed(ctx, query)
	if err != nil || len(queryVec) == 0 {
		b.logger.Warn("query embedding unavailable, answering ungrounded", "error", err)
		return Result{Sources: []Retrieved{}}
	}

	results, err := b.store.Search(ctx, queryVec, threshold, maxResults)
	if err != nil {
		b.logger.Warn("knowledge search failed, answering ungrounded", "error", err)
		return Result{Sources: []Retrieved{}}
	}

	// Preserve the store's descending-similarity order; no re-sort.
	sources := make([]Retrieved, 0, len(results))
	for _, r := range results {
		sources = append(sources, Retrieved{
			SourceType: r.SourceType,
			SourceID:   r.SourceID,
			Content:    r.Content,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		})
	}

	formatted := truncateContext(formatContext(sources), maxTokens)

	return Result{
		Context:    formatted,
		Sources:    sources,
		HasContext: len(sources) > 0,
	}
}
