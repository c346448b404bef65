//go:build integration

package memory_test

import (
	"context"
	"testing"

	"github.com/khetrent/khetrent/internal/memory"
	"github.com/khetrent/khetrent/internal/testutil"
)

func TestPGRepositoryRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	repo, err := memory.NewPGRepository(db.Pool, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("NewPGRepository() error = %v", err)
	}

	// Missing row is nil, nil.
	row, err := repo.Fetch(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if row != nil {
		t.Fatalf("Fetch() missing row = %+v, want nil", row)
	}

	vec := make([]float32, 768)
	vec[3] = 0.5
	if err := repo.Upsert(ctx, memory.ConversationContext{
		ConversationID: "conv-1",
		RollingSummary: "\nUser: hello\nAssistant: hi",
		MessageCount:   1,
		Embedding:      vec,
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	row, err = repo.Fetch(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if row == nil {
		t.Fatal("Fetch() returned nil after upsert")
	}
	if row.MessageCount != 1 || row.RollingSummary == "" {
		t.Errorf("row = %+v", row)
	}
	if len(row.Embedding) != 768 {
		t.Errorf("embedding length = %d, want 768", len(row.Embedding))
	}

	// A nil embedding on update keeps the stored vector.
	if err := repo.Upsert(ctx, memory.ConversationContext{
		ConversationID: "conv-1",
		RollingSummary: "\nUser: hello\nAssistant: hi\nUser: more\nAssistant: sure",
		MessageCount:   2,
		Embedding:      nil,
	}); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	row, err = repo.Fetch(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if row.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", row.MessageCount)
	}
	if len(row.Embedding) != 768 {
		t.Errorf("nil embedding update must keep the stored vector, got length %d", len(row.Embedding))
	}
}
