// Package loader is the first ingestion stage: it sweeps a directory and
// turns every file into a raw Document with file-level metadata. No
// cleaning or chunking happens here.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
)

// Loader enumerates and reads source files.
type Loader struct {
	logger *zap.Logger
}

// New creates a directory loader.
func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load walks dir recursively and returns one Document per readable file.
// A missing directory is fatal; unreadable or empty files are skipped with
// a warning and never fail the run.
func (l *Loader) Load(ctx context.Context, dir string) ([]domain.Document, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", base, domain.ErrDirectoryNotFound)
	}

	l.logger.Info("Starting document load", zap.String("data_dir", base))

	var docs []domain.Document
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			l.logger.Warn("Skipping unreadable entry",
				zap.String("path", path), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		doc, err := l.readFile(path)
		if err != nil {
			l.logger.Warn("Skipping unreadable file",
				zap.String("path", path), zap.Error(err))
			return nil
		}

		docs = append(docs, doc)
		l.logger.Debug("Loaded file",
			zap.String("path", doc.Metadata.Path),
			zap.Int64("size_bytes", doc.Metadata.SizeBytes),
			zap.String("modified_at", doc.Metadata.ModifiedAt),
		)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", base, err)
	}

	l.logger.Info("Completed document load", zap.Int("total_files", len(docs)))
	return docs, nil
}

// readFile reads path as UTF-8 text, substituting invalid sequences
// instead of failing. Empty files are rejected.
func (l *Loader) readFile(path string) (domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrEmptyFile)
	}

	content := decodeText(raw)

	stat, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}

	return domain.Document{
		Content: content,
		Metadata: domain.Metadata{
			FileName:   filepath.Base(path),
			Path:       path,
			SizeBytes:  int64(len(content)),
			ModifiedAt: stat.ModTime().Format(time.RFC3339),
		},
	}, nil
}

// decodeText degrades invalid UTF-8 to the replacement rune rather than
// erroring; a garbled document is still ingestable.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}
