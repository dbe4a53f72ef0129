package pgvector

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/skillsync/skillsync/internal/store"
)

// Requires a Postgres server with the vector extension available.
func newTestIndex(t *testing.T) *Index {
	t.Helper()
	dsn := os.Getenv("SKILLSYNC_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SKILLSYNC_TEST_POSTGRES_DSN not set")
	}
	idx, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(idx.Close)
	return idx
}

func TestIndexRanksLatestVersions(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	// Unique owner ids keep reruns against the same database independent.
	internship := uuid.NewString()
	near, far := uuid.NewString(), uuid.NewString()

	mustSave := func(ownerType, ownerID string, vectors ...[]float32) {
		t.Helper()
		chunks := make([]string, len(vectors))
		if err := idx.SaveEmbeddings(ctx, ownerType, ownerID, chunks, vectors); err != nil {
			t.Fatalf("SaveEmbeddings: %v", err)
		}
	}

	mustSave(store.OwnerInternship, internship, []float32{1, 0, 0})
	mustSave(store.OwnerStudent, near, []float32{0, 1, 0})
	mustSave(store.OwnerStudent, near, []float32{1, 0.1, 0})
	mustSave(store.OwnerStudent, far, []float32{0, 0, 1})

	ranked, err := idx.RankStudents(ctx, internship, 0)
	if err != nil {
		t.Fatalf("RankStudents: %v", err)
	}

	scores := map[string]float64{}
	for _, r := range ranked {
		scores[r.ID] = r.Score
	}
	if scores[near] < 0.99 {
		t.Fatalf("expected the latest resume version to score high, got %v", scores[near])
	}
	if math.Abs(scores[far]) > 1e-6 {
		t.Fatalf("expected an orthogonal resume to score 0, got %v", scores[far])
	}

	back, err := idx.RankInternships(ctx, near, 1)
	if err != nil || len(back) != 1 {
		t.Fatalf("RankInternships: %+v, %v", back, err)
	}
}

func TestIndexRejectsMismatchedCounts(t *testing.T) {
	idx := &Index{}
	if err := idx.SaveEmbeddings(context.Background(), store.OwnerStudent, "s", []string{"a"}, nil); err == nil {
		t.Fatalf("expected an error")
	}
}
