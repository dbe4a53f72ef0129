package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/skillsync/skillsync/internal/utils"
)

// VectorIndex stores chunk embeddings and ranks owners by similarity.
type VectorIndex interface {
	SaveEmbeddings(ctx context.Context, ownerType, ownerID string, chunks []string, vectors [][]float32) error
	RankStudents(ctx context.Context, internshipID string, limit int) ([]RankedID, error)
	RankInternships(ctx context.Context, studentID string, limit int) ([]RankedID, error)
}

// SaveEmbeddings inserts a new version of an owner's chunk embeddings. Older
// versions are kept but no longer ranked.
func (s *SQLiteStore) SaveEmbeddings(ctx context.Context, ownerType, ownerID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk and vector counts differ: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO embeddings (owner_type, owner_id, chunk_index, content, embedding_json, version, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare embedding insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	version := now.UnixNano()
	for i, chunk := range chunks {
		embeddingBytes, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, ownerType, ownerID, i, chunk, string(embeddingBytes), version, now); err != nil {
			return fmt.Errorf("failed to execute embedding insert: %w", err)
		}
	}
	return tx.Commit()
}

// RankStudents scores every student with a resume against the internship's
// description chunks.
func (s *SQLiteStore) RankStudents(ctx context.Context, internshipID string, limit int) ([]RankedID, error) {
	return s.rank(ctx, OwnerInternship, internshipID, OwnerStudent, limit)
}

// RankInternships scores every internship against the student's resume chunks.
func (s *SQLiteStore) RankInternships(ctx context.Context, studentID string, limit int) ([]RankedID, error) {
	return s.rank(ctx, OwnerStudent, studentID, OwnerInternship, limit)
}

// rank scores each target owner by the best cosine similarity between any of
// its chunks and any chunk of the query owner, using latest versions only.
// Scores are clamped to [0,1].
func (s *SQLiteStore) rank(ctx context.Context, queryType, queryID, targetType string, limit int) ([]RankedID, error) {
	query, err := s.latestVectors(ctx, queryType, queryID)
	if err != nil {
		return nil, err
	}
	if len(query) == 0 {
		return []RankedID{}, nil
	}

	targets, err := s.latestVectorsByOwner(ctx, targetType)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedID, 0, len(targets))
	for ownerID, vectors := range targets {
		score, ok := utils.MaxCosine(query, vectors)
		if !ok {
			continue
		}
		ranked = append(ranked, RankedID{ID: ownerID, Score: utils.SimilarityScore(score)})
	}
	slices.SortFunc(ranked, func(a, b RankedID) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *SQLiteStore) latestVectors(ctx context.Context, ownerType, ownerID string) ([][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT embedding_json FROM embeddings
        WHERE owner_type = ? AND owner_id = ?
          AND version = (SELECT MAX(version) FROM embeddings WHERE owner_type = ? AND owner_id = ?)
        ORDER BY chunk_index`, ownerType, ownerID, ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var out [][]float32
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding for %s %s: %w", ownerType, ownerID, err)
		}
		out = append(out, vec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) latestVectorsByOwner(ctx context.Context, ownerType string) (map[string][][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT e.owner_id, e.embedding_json
        FROM embeddings e
        JOIN (
            SELECT owner_id, MAX(version) AS version
            FROM embeddings WHERE owner_type = ? GROUP BY owner_id
        ) latest ON latest.owner_id = e.owner_id AND latest.version = e.version
        WHERE e.owner_type = ?`, ownerType, ownerType)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[string][][]float32)
	for rows.Next() {
		var ownerID, raw string
		if err := rows.Scan(&ownerID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding for %s %s: %w", ownerType, ownerID, err)
		}
		out[ownerID] = append(out[ownerID], vec)
	}
	return out, rows.Err()
}
