package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/khetrent/khetrent/internal/knowledge"
	"github.com/khetrent/khetrent/internal/testutil"
)

// mockSearcher returns canned results or a canned error.
type mockSearcher struct {
	results []knowledge.SearchResult
	err     error

	gotThreshold float64
	gotLimit     int32
}

func (m *mockSearcher) Search(_ context.Context, _ []float32, threshold float64, limit int32) ([]knowledge.SearchResult, error) {
	m.gotThreshold = threshold
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func TestNewBuilder(t *testing.T) {
	embedder := testutil.NewMockEmbedder()
	store := &mockSearcher{}

	if _, err := NewBuilder(nil, store, nil); err == nil {
		t.Error("NewBuilder(nil client) should fail")
	}
	if _, err := NewBuilder(embedder, nil, nil); err == nil {
		t.Error("NewBuilder(nil searcher) should fail")
	}
	if _, err := NewBuilder(embedder, store, nil); err != nil {
		t.Errorf("NewBuilder() error = %v", err)
	}
}

func TestBuildContextDefaults(t *testing.T) {
	store := &mockSearcher{}
	b, err := NewBuilder(testutil.NewMockEmbedder(), store, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	b.BuildContext(context.Background(), "tractor near me", Options{})

	if store.gotThreshold != DefaultThreshold {
		t.Errorf("threshold = %v, want default %v", store.gotThreshold, DefaultThreshold)
	}
	if store.gotLimit != DefaultMaxResults {
		t.Errorf("limit = %d, want default %d", store.gotLimit, DefaultMaxResults)
	}
}

func TestBuildContextOverrides(t *testing.T) {
	store := &mockSearcher{}
	b, _ := NewBuilder(testutil.NewMockEmbedder(), store, testutil.DiscardLogger())

	b.BuildContext(context.Background(), "tractor", Options{Threshold: 0.5, MaxResults: 3})

	if store.gotThreshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", store.gotThreshold)
	}
	if store.gotLimit != 3 {
		t.Errorf("limit = %d, want 3", store.gotLimit)
	}
}

func TestBuildContextWithResults(t *testing.T) {
	store := &mockSearcher{
		results: []knowledge.SearchResult{
			{
				Entry: knowledge.Entry{
					SourceType: knowledge.SourceTypeEquipment,
					SourceID:   "eq-1",
					Content:    "John Deere 5050D - Tractor",
					Metadata:   map[string]any{"name": "John Deere 5050D"},
				},
				Similarity: 0.91,
			},
			{
				Entry: knowledge.Entry{
					SourceType: knowledge.SourceTypeReview,
					SourceID:   "rv-1",
					Content:    "Solid and reliable",
					Metadata:   map[string]any{"equipment_name": "John Deere 5050D", "rating": float64(5)},
				},
				Similarity: 0.74,
			},
		},
	}
	b, _ := NewBuilder(testutil.NewMockEmbedder(), store, testutil.DiscardLogger())

	result := b.BuildContext(context.Background(), "good tractor", Options{})

	if !result.HasContext {
		t.Fatal("HasContext = false, want true")
	}
	if len(result.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(result.Sources))
	}
	// Store order (descending similarity) is preserved.
	if result.Sources[0].SourceID != "eq-1" || result.Sources[1].SourceID != "rv-1" {
		t.Errorf("source order = %s, %s; want eq-1, rv-1", result.Sources[0].SourceID, result.Sources[1].SourceID)
	}
	if !strings.Contains(result.Context, "--- EQUIPMENT LISTINGS ---") {
		t.Errorf("Context missing equipment section:\n%s", result.Context)
	}
	if !strings.Contains(result.Context, "--- REVIEWS ---") {
		t.Errorf("Context missing review section:\n%s", result.Context)
	}
}

func TestBuildContextNoMatches(t *testing.T) {
	b, _ := NewBuilder(testutil.NewMockEmbedder(), &mockSearcher{}, testutil.DiscardLogger())

	result := b.BuildContext(context.Background(), "unrelated query", Options{})

	if result.HasContext {
		t.Error("HasContext = true with no results")
	}
	if result.Context != "" {
		t.Errorf("Context = %q, want empty", result.Context)
	}
	if result.Sources == nil {
		t.Error("Sources should be an empty slice, not nil")
	}
}

func TestBuildContextEmbedFailure(t *testing.T) {
	embedder := testutil.NewMockEmbedder()
	embedder.Err = testutil.ErrEmbedderDown
	store := &mockSearcher{results: []knowledge.SearchResult{{}}}
	b, _ := NewBuilder(embedder, store, testutil.DiscardLogger())

	result := b.BuildContext(context.Background(), "tractor", Options{})

	if result.HasContext {
		t.Error("embed failure must degrade to no context, not error out")
	}
	if result.Context != "" {
		t.Errorf("Context = %q, want empty on embed failure", result.Context)
	}
}

func TestBuildContextSearchFailure(t *testing.T) {
	store := &mockSearcher{err: errors.New("connection refused")}
	b, _ := NewBuilder(testutil.NewMockEmbedder(), store, testutil.DiscardLogger())

	result := b.BuildContext(context.Background(), "tractor", Options{})

	if result.HasContext || result.Context != "" {
		t.Error("search failure must degrade to empty result")
	}
}

func TestBuildContextTruncates(t *testing.T) {
	store := &mockSearcher{
		results: []knowledge.SearchResult{{
			Entry: knowledge.Entry{
				SourceType: knowledge.SourceTypeEquipment,
				SourceID:   "eq-1",
				Content:    strings.Repeat("very long description ", 200),
				Metadata:   map[string]any{"name": "Harvester"},
			},
			Similarity: 0.9,
		}},
	}
	b, _ := NewBuilder(testutil.NewMockEmbedder(), store, testutil.DiscardLogger())

	result := b.BuildContext(context.Background(), "harvester", Options{MaxTokens: 50})

	if !strings.Contains(result.Context, "[Context truncated due to length limits]") {
		t.Errorf("over-budget context missing truncation marker:\n%s", result.Context)
	}
}
