// Package chunker splits cleaned documents into overlapping fixed-size
// rune windows, stamping each chunk with its ordinal and the parent's
// total chunk count.
package chunker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
)

// Chunker produces fixed-size overlapping chunks.
type Chunker struct {
	size    int
	overlap int
	logger  *zap.Logger
}

// New creates a chunker. overlap must be smaller than size.
func New(size, overlap int, logger *zap.Logger) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0,%d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap, logger: logger}, nil
}

// Split windows each document's content. Every chunk is a new Document
// inheriting the parent metadata plus chunk_index and chunk_count. A
// document with empty content contributes nothing; chunks are never merged
// across documents.
func (c *Chunker) Split(docs []domain.Document) []domain.Document {
	c.logger.Info("Starting chunking", zap.Int("total_documents", len(docs)))

	var out []domain.Document
	for _, doc := range docs {
		windows := c.windows(doc.Content)
		for i, w := range windows {
			out = append(out, domain.Document{
				Content:  w,
				Metadata: doc.Metadata.WithChunk(i, len(windows)),
			})
		}
		c.logger.Debug("Document chunked",
			zap.String("file", doc.Metadata.FileName),
			zap.Int("chunks_generated", len(windows)),
		)
	}

	c.logger.Info("Chunking finished", zap.Int("total_chunks", len(out)))
	return out
}

// windows slices text into rune windows of c.size, consecutive starts
// c.size-c.overlap apart, so coverage of the original is contiguous.
func (c *Chunker) windows(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
