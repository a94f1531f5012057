// Package postgres implements the vector store on PostgreSQL with the
// pgvector extension.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
)

// Store persists embedded chunks and serves nearest-neighbour queries.
type Store struct {
	pool      *pgxpool.Pool
	table     string
	dimension int
	logger    *zap.Logger
}

// Config holds the store settings.
type Config struct {
	URL       string
	Table     string
	Dimension int
	Logger    *zap.Logger
}

// New connects to PostgreSQL and registers the pgvector types on every
// connection in the pool.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Table == "" {
		cfg.Table = "docs"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", cfg.Dimension)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, table: cfg.Table, dimension: cfg.Dimension, logger: cfg.Logger}, nil
}

// Init creates the extension, the table and the HNSW index if they do
// not exist. Safe to call on every startup.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding VECTOR(%d)
		)`, s.table, s.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx
			ON %s USING hnsw (embedding vector_l2_ops)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	s.logger.Info("Vector store schema ready",
		zap.String("table", s.table),
		zap.Int("dimension", s.dimension))
	return nil
}

// Upsert inserts the chunk or replaces the row with the same id.
func (s *Store) Upsert(ctx context.Context, chunk domain.EmbeddedChunk) error {
	return s.upsert(ctx, s.pool, chunk)
}

// BatchUpsert writes all chunks in one transaction. Either every chunk
// is stored or none is.
func (s *Store) BatchUpsert(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, chunk := range chunks {
		if err := s.upsert(ctx, tx, chunk); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Store) upsert(ctx context.Context, q execer, chunk domain.EmbeddedChunk) error {
	if len(chunk.Embedding) != s.dimension {
		return fmt.Errorf("%w: got %d, store expects %d",
			domain.ErrVectorDimMismatch, len(chunk.Embedding), s.dimension)
	}

	meta, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if _, err := q.Exec(ctx, s.upsertSQL(), chunk.ID, chunk.Content, meta, pgvector.NewVector(chunk.Embedding)); err != nil {
		return fmt.Errorf("failed to upsert chunk %q: %w", chunk.ID, err)
	}
	return nil
}

// upsertSQL is the idempotent insert: a row with the same id is
// replaced, never duplicated.
func (s *Store) upsertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    metadata = EXCLUDED.metadata,
		    embedding = EXCLUDED.embedding`, s.table)
}

// QuerySimilar returns the k nearest chunks by L2 distance, ascending.
// The SQL orders by the distance operator alone so the HNSW index can
// serve the scan; ties within the returned rows are then broken by id
// client-side for deterministic output.
func (s *Store) QuerySimilar(ctx context.Context, embedding []float32, k int) ([]domain.SimilarMatch, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, store expects %d",
			domain.ErrVectorDimMismatch, len(embedding), s.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, s.similarSQL(), pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar chunks: %w", err)
	}
	defer rows.Close()

	var matches []domain.SimilarMatch
	for rows.Next() {
		var (
			m    domain.SimilarMatch
			meta []byte
		)
		if err := rows.Scan(&m.ID, &m.Content, &meta, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %q: %w", m.ID, err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}

	sortMatches(matches)
	return matches, nil
}

// similarSQL keeps ORDER BY on the bare distance operator; adding a
// secondary sort key there would force a sequential scan past the
// HNSW index.
func (s *Store) similarSQL() string {
	return fmt.Sprintf(`SELECT id, content, metadata, embedding <-> $1 AS distance
		FROM %s
		ORDER BY embedding <-> $1
		LIMIT $2`, s.table)
}

// sortMatches orders ascending by distance with id breaking ties, so
// equal-distance rows come back in a stable order regardless of how
// the index emitted them.
func sortMatches(matches []domain.SimilarMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
}

// Delete removes the chunk with the given id. Missing ids are not an
// error.
func (s *Store) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete chunk %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("Delete matched no rows", zap.String("id", id))
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
