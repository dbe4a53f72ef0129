// Package pgvector keeps chunk embeddings in Postgres and ranks them with the
// pgvector extension.
package pgvector

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/skillsync/skillsync/internal/store"
)

//go:embed schema.sql
var schema string

// Index implements store.VectorIndex on Postgres.
type Index struct {
	pool *pgxpool.Pool
}

var _ store.VectorIndex = (*Index)(nil)

// New applies the schema and opens a connection pool. The vector type is
// registered on every pooled connection.
func New(ctx context.Context, dsn string) (*Index, error) {
	if err := migrate(ctx, dsn); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Index{pool: pool}, nil
}

// migrate runs on its own connection because the vector type must exist
// before pooled connections can register it.
func migrate(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply pgvector schema: %w", err)
	}
	return nil
}

func (i *Index) Close() {
	i.pool.Close()
}

func (i *Index) Ping(ctx context.Context) error {
	return i.pool.Ping(ctx)
}

func (i *Index) SaveEmbeddings(ctx context.Context, ownerType, ownerID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk and vector counts differ: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	version := now.UnixNano()

	batch := &pgx.Batch{}
	for idx, chunk := range chunks {
		batch.Queue(`
            INSERT INTO embeddings (owner_type, owner_id, chunk_index, content, embedding, version, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ownerType, ownerID, idx, chunk, pgv.NewVector(vectors[idx]), version, now)
	}

	return pgx.BeginFunc(ctx, i.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert embeddings: %w", err)
		}
		return nil
	})
}

func (i *Index) RankStudents(ctx context.Context, internshipID string, limit int) ([]store.RankedID, error) {
	return i.rank(ctx, "SELECT ranked_id, score FROM rank_students_for_internship($1, $2)", internshipID, limit)
}

func (i *Index) RankInternships(ctx context.Context, studentID string, limit int) ([]store.RankedID, error) {
	return i.rank(ctx, "SELECT ranked_id, score FROM rank_internships_for_student($1, $2)", studentID, limit)
}

func (i *Index) rank(ctx context.Context, query, ownerID string, limit int) ([]store.RankedID, error) {
	rows, err := i.pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank embeddings: %w", err)
	}
	ranked, err := pgx.CollectRows(rows, pgx.RowToStructByPos[store.RankedID])
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking: %w", err)
	}
	return ranked, nil
}
