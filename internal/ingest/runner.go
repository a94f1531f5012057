// Package ingest sequences the document pipeline: load, extract,
// clean, chunk, embed and store.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
	"github.com/Arthursca/multi-agent-medico/internal/ingest/chunker"
	"github.com/Arthursca/multi-agent-medico/internal/ingest/cleaner"
	"github.com/Arthursca/multi-agent-medico/internal/ingest/loader"
	"github.com/Arthursca/multi-agent-medico/internal/ingest/pdfextract"
	"github.com/Arthursca/multi-agent-medico/internal/metrics"
)

// Upserter is the persistence capability the runner needs from the
// vector store.
type Upserter interface {
	BatchUpsert(ctx context.Context, chunks []domain.EmbeddedChunk) error
}

// Runner drives one full ingestion sweep over a data directory.
type Runner struct {
	loader    *loader.Loader
	extractor *pdfextract.Extractor
	cleaner   *cleaner.Cleaner
	chunker   *chunker.Chunker
	embedder  domain.Embedder
	store     Upserter
	logger    *zap.Logger
}

// New wires the pipeline stages together.
func New(
	ld *loader.Loader,
	ex *pdfextract.Extractor,
	cl *cleaner.Cleaner,
	ch *chunker.Chunker,
	embedder domain.Embedder,
	store Upserter,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		loader:    ld,
		extractor: ex,
		cleaner:   cl,
		chunker:   ch,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// Summary reports what one sweep did.
type Summary struct {
	FilesLoaded   int
	Chunks        int
	ChunksStored  int
	ChunksSkipped int
}

// Run sweeps dir through the whole pipeline. A missing directory is
// fatal; individual file or chunk failures are logged and skipped.
func (r *Runner) Run(ctx context.Context, dir string) (Summary, error) {
	var sum Summary

	docs, err := r.loader.Load(ctx, dir)
	if err != nil {
		return sum, fmt.Errorf("failed to load documents: %w", err)
	}
	sum.FilesLoaded = len(docs)

	docs = r.expandPDFs(ctx, docs)

	docs, err = r.cleaner.Clean(ctx, docs)
	if err != nil {
		return sum, fmt.Errorf("failed to clean documents: %w", err)
	}

	chunks := r.chunker.Split(docs)
	sum.Chunks = len(chunks)

	embedded := make([]domain.EmbeddedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		vec, err := r.embedder.Embed(ctx, chunk.Content)
		if err != nil || len(vec) == 0 {
			metrics.IngestedChunksTotal.WithLabelValues("skipped").Inc()
			sum.ChunksSkipped++
			r.logger.Warn("Skipping chunk",
				zap.String("id", domain.ChunkID(chunk.Metadata)),
				zap.Error(err))
			continue
		}
		embedded = append(embedded, domain.EmbeddedChunk{
			ID:        domain.ChunkID(chunk.Metadata),
			Content:   chunk.Content,
			Metadata:  chunk.Metadata,
			Embedding: vec,
		})
	}

	if len(embedded) > 0 {
		if err := r.store.BatchUpsert(ctx, embedded); err != nil {
			return sum, fmt.Errorf("failed to store chunks: %w", err)
		}
	}
	for range embedded {
		metrics.IngestedChunksTotal.WithLabelValues("stored").Inc()
	}
	sum.ChunksStored = len(embedded)

	r.logger.Info("Ingestion finished",
		zap.Int("files", sum.FilesLoaded),
		zap.Int("chunks", sum.Chunks),
		zap.Int("stored", sum.ChunksStored),
		zap.Int("skipped", sum.ChunksSkipped))
	return sum, nil
}

// expandPDFs replaces each PDF document with the per-page text, table
// and image documents its file yields. A PDF that fails to parse is
// dropped with a warning.
func (r *Runner) expandPDFs(ctx context.Context, docs []domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if strings.ToLower(filepath.Ext(doc.Metadata.Path)) != ".pdf" {
			out = append(out, doc)
			continue
		}
		extracted, err := r.extractor.Extract(ctx, doc.Metadata.Path)
		if err != nil {
			r.logger.Warn("Dropping unreadable PDF",
				zap.String("path", doc.Metadata.Path),
				zap.Error(err))
			continue
		}
		out = append(out, extracted...)
	}
	return out
}
