// Package cleaner normalizes loaded items into a single textual
// representation and drops exact duplicates. A document with an unsupported
// or unreadable format is dropped alone; the batch always continues.
package cleaner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lu4p/cat"
	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
)

// Cleaner converts and deduplicates documents.
type Cleaner struct {
	logger *zap.Logger
}

// New creates a cleaner.
func New(logger *zap.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean resolves each item's source path, converts the content to text by
// extension and deduplicates by exact content match across the whole batch
// (first occurrence wins, even across different files). Original metadata
// is preserved.
func (c *Cleaner) Clean(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	c.logger.Info("Starting document cleaning", zap.Int("total_documents", len(docs)))

	cleaned := make([]domain.Document, 0, len(docs))
	seen := make(map[string]struct{})

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := doc.Metadata.Path
		if path == "" {
			c.logger.Warn("Skipping document without source path",
				zap.String("file_name", doc.Metadata.FileName))
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			c.logger.Warn("Skipping missing or invalid source file", zap.String("file", path))
			continue
		}

		text, err := c.convert(doc)
		if err != nil {
			c.logger.Warn("Failed to process document, dropping",
				zap.String("file", path), zap.Error(err))
			continue
		}

		if _, dup := seen[text]; dup {
			c.logger.Debug("Duplicate content, dropping", zap.String("file", path))
			continue
		}
		seen[text] = struct{}{}

		cleaned = append(cleaned, domain.Document{Content: text, Metadata: doc.Metadata})
		c.logger.Debug("Document cleaned",
			zap.String("file", path), zap.Int("length", len(text)))
	}

	c.logger.Info("Cleaning finished", zap.Int("cleaned_documents", len(cleaned)))
	return cleaned, nil
}

// convert dispatches on the source extension. PDF items arrive already
// extracted (text, table or base64 image payload) and pass through; image
// payloads are never re-read from disk.
func (c *Cleaner) convert(doc domain.Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.Metadata.Path))
	switch ext {
	case ".pdf":
		return doc.Content, nil
	case ".md", ".txt":
		raw, err := os.ReadFile(doc.Metadata.Path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", doc.Metadata.Path, err)
		}
		return sanitizeUTF8(string(raw)), nil
	case ".docx":
		text, err := cat.File(doc.Metadata.Path)
		if err != nil {
			return "", fmt.Errorf("convert docx %s: %w", doc.Metadata.Path, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%s: %w", ext, domain.ErrUnsupportedFormat)
	}
}

// sanitizeUTF8 degrades invalid byte sequences to the replacement rune.
// Stored content must stay valid UTF-8 or the whole batch insert fails.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}
