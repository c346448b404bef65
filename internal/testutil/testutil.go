// Package testutil provides shared testing utilities for the khetrent
// project: a deterministic embedding client and a quiet logger.
package testutil

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// DiscardLogger returns a slog.Logger that discards all output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// MockEmbedder is a deterministic embedding.Client for unit tests. Each
// text embeds to a fixed-size vector derived from its bytes, unless a
// vector or error is pinned for it.
//
// MockEmbedder is safe for concurrent use.
type MockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	errs    map[string]error
	calls   []string

	// Err, when set, fails every Embed call.
	Err error
	// Dim is the vector size. Zero defaults to 768.
	Dim int
}

// NewMockEmbedder creates a MockEmbedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		vectors: make(map[string][]float32),
		errs:    make(map[string]error),
	}
}

// SetVector pins the vector returned for an exact text.
func (m *MockEmbedder) SetVector(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vec
}

// SetError pins an error returned for an exact text.
func (m *MockEmbedder) SetError(text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[text] = err
}

// Calls returns the texts embedded so far, in order.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Embed implements embedding.Client.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)

	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.errs[text]; ok {
		return nil, err
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}

	dim := m.Dim
	if dim <= 0 {
		dim = 768
	}
	vec := make([]float32, dim)
	for i, b := range []byte(text) {
		vec[i%dim] += float32(b) / 255
	}
	return vec, nil
}

// ErrEmbedderDown is a reusable failure for pinning embed errors.
var ErrEmbedderDown = errors.New("embedding provider unavailable")
