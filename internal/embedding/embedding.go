// Package embedding wraps the embedding-generation API behind a small
// client interface. Callers treat an error and an empty vector identically:
// "no embedding available".
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// VectorDimension is the fixed length of every embedding vector stored in
// knowledge_embeddings and ai_chat_context. The Gemini embedder truncates
// its native output to this dimensionality (Matryoshka Representation
// Learning), matching the pgvector column definition.
const VectorDimension int32 = 768

// EmbedTimeout bounds a single embedding call. Embedding is a fallible
// network operation; no caller may block on it indefinitely.
const EmbedTimeout = 30 * time.Second

// Client turns text into a fixed-length vector.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenkitClient implements Client on top of a Genkit ai.Embedder.
//
// GenkitClient is safe for concurrent use by multiple goroutines.
type GenkitClient struct {
	embedder ai.Embedder
}

// NewClient creates a Client backed by the given Genkit embedder.
func NewClient(embedder ai.Embedder) (*GenkitClient, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	return &GenkitClient{embedder: embedder}, nil
}

// Embed generates an embedding for text, truncated to VectorDimension.
func (c *GenkitClient) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := VectorDimension

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	resp, err := c.embedder.Embed(embedCtx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0].Embedding, nil
}
