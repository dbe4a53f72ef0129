package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/skillsync/skillsync/internal/embedding"
)

// VectorWriter stores chunk embeddings for an owner.
type VectorWriter interface {
	SaveEmbeddings(ctx context.Context, ownerType, ownerID string, chunks []string, vectors [][]float32) error
}

// IndexSettings control how text is chunked and embedded.
type IndexSettings struct {
	ChunkSize int
	Embed     embedding.Options
}

// indexText chunks text, embeds every chunk and saves a new embedding
// version for the owner. It returns the number of chunks stored.
func indexText(ctx context.Context, e embedding.Embedder, w VectorWriter, settings IndexSettings, ownerType, ownerID, text string) (int, error) {
	chunks := embedding.SplitChunks(text, settings.ChunkSize)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := embedding.EmbedAll(ctx, e, chunks, settings.Embed)
	if err != nil {
		return 0, err
	}
	if err := w.SaveEmbeddings(ctx, ownerType, ownerID, chunks, vectors); err != nil {
		return 0, fmt.Errorf("failed to save embeddings: %w", err)
	}
	return len(chunks), nil
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
