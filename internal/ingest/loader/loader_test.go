package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
)

func TestLoad_MissingDirectory(t *testing.T) {
	l := New(zap.NewNop())

	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !errors.Is(err, domain.ErrDirectoryNotFound) {
		t.Errorf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestLoad_FileInsteadOfDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	writeFile(t, file, "content")

	l := New(zap.NewNop())
	if _, err := l.Load(context.Background(), file); !errors.Is(err, domain.ErrDirectoryNotFound) {
		t.Errorf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestLoad_ReadsFilesRecursively(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "plano básico")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(sub, "b.md"), "# cobertura")

	l := New(zap.NewNop())
	docs, err := l.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	byName := map[string]domain.Document{}
	for _, d := range docs {
		byName[d.Metadata.FileName] = d
	}
	a, ok := byName["a.txt"]
	if !ok {
		t.Fatal("a.txt not loaded")
	}
	if a.Content != "plano básico" {
		t.Errorf("content = %q", a.Content)
	}
	if a.Metadata.Path == "" || a.Metadata.SizeBytes == 0 {
		t.Error("file metadata incomplete")
	}
	if _, err := time.Parse(time.RFC3339, a.Metadata.ModifiedAt); err != nil {
		t.Errorf("modified_at not RFC3339: %q", a.Metadata.ModifiedAt)
	}
	if _, ok := byName["b.md"]; !ok {
		t.Error("nested b.md not loaded")
	}
}

func TestLoad_SkipsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.txt"), "")
	writeFile(t, filepath.Join(dir, "full.txt"), "conteúdo")

	l := New(zap.NewNop())
	docs, err := l.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected empty file to be skipped, got %d documents", len(docs))
	}
	if docs[0].Metadata.FileName != "full.txt" {
		t.Errorf("wrong survivor: %s", docs[0].Metadata.FileName)
	}
}

func TestLoad_InvalidUTF8Degrades(t *testing.T) {
	dir := t.TempDir()
	raw := []byte{'o', 'k', 0xff, 0xfe, '!'}
	if err := os.WriteFile(filepath.Join(dir, "bad.txt"), raw, 0o600); err != nil {
		t.Fatal(err)
	}

	l := New(zap.NewNop())
	docs, err := l.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatal("invalid UTF-8 file should still load")
	}
	for _, r := range docs[0].Content {
		if r == 0xff || r == 0xfe {
			t.Error("invalid bytes survived decoding")
		}
	}
}

func TestLoad_UnreadableSubdirectorySkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "legível")
	locked := filepath.Join(dir, "locked")
	if err := os.Mkdir(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	l := New(zap.NewNop())
	docs, err := l.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("unreadable subdirectory must not fail the sweep: %v", err)
	}
	if len(docs) != 1 || docs[0].Metadata.FileName != "a.txt" {
		t.Errorf("expected only the readable file, got %d documents", len(docs))
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(zap.NewNop())
	if _, err := l.Load(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
