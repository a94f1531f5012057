package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
)

func TestClean_TextAndMarkdownReadFromDisk(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "plano.txt", "cobertura ambulatorial")
	md := writeFile(t, dir, "regras.md", "# carência")

	c := New(zap.NewNop())
	out, err := c.Clean(context.Background(), []domain.Document{
		{Metadata: domain.Metadata{Path: txt, FileName: "plano.txt"}},
		{Metadata: domain.Metadata{Path: md, FileName: "regras.md"}},
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(out))
	}
	if out[0].Content != "cobertura ambulatorial" {
		t.Errorf("txt content = %q", out[0].Content)
	}
	if out[1].Content != "# carência" {
		t.Errorf("md content = %q", out[1].Content)
	}
}

func TestClean_PDFItemsPassThrough(t *testing.T) {
	dir := t.TempDir()
	// the path only needs to exist; extracted PDF content is never re-read
	pdf := writeFile(t, dir, "plano.pdf", "%PDF-1.4 binary")

	c := New(zap.NewNop())
	out, err := c.Clean(context.Background(), []domain.Document{
		{
			Content:  "texto extraído da página 1",
			Metadata: domain.Metadata{Path: pdf, Kind: domain.KindText, PageNumber: 1},
		},
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 document, got %d", len(out))
	}
	if out[0].Content != "texto extraído da página 1" {
		t.Errorf("PDF content was not passed through: %q", out[0].Content)
	}
	if out[0].Metadata.Kind != domain.KindText {
		t.Error("metadata not preserved")
	}
}

func TestClean_UnsupportedFormatDroppedAlone(t *testing.T) {
	dir := t.TempDir()
	csv := writeFile(t, dir, "tabela.csv", "a,b")
	txt := writeFile(t, dir, "ok.txt", "sobrevive")

	c := New(zap.NewNop())
	out, err := c.Clean(context.Background(), []domain.Document{
		{Metadata: domain.Metadata{Path: csv}},
		{Metadata: domain.Metadata{Path: txt}},
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected unsupported file dropped, got %d documents", len(out))
	}
	if out[0].Content != "sobrevive" {
		t.Errorf("wrong survivor: %q", out[0].Content)
	}
}

func TestClean_MissingSourceSkipped(t *testing.T) {
	c := New(zap.NewNop())
	out, err := c.Clean(context.Background(), []domain.Document{
		{Metadata: domain.Metadata{Path: filepath.Join(t.TempDir(), "gone.txt")}},
		{Metadata: domain.Metadata{FileName: "no-path"}},
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected all documents skipped, got %d", len(out))
	}
}

func TestClean_InvalidUTF8Degrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(path, []byte{'o', 'k', 0xff, 0xfe, '!'}, 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(zap.NewNop())
	out, err := c.Clean(context.Background(), []domain.Document{
		{Metadata: domain.Metadata{Path: path, FileName: "bad.txt"}},
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected the file to survive, got %d documents", len(out))
	}
	if !utf8.ValidString(out[0].Content) {
		t.Errorf("cleaned content is not valid UTF-8: %q", out[0].Content)
	}
	if !strings.Contains(out[0].Content, "ok") || !strings.Contains(out[0].Content, "!") {
		t.Errorf("valid bytes lost during substitution: %q", out[0].Content)
	}
}

func TestClean_DeduplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "mesmo conteúdo")
	b := writeFile(t, dir, "b.txt", "mesmo conteúdo")

	c := New(zap.NewNop())
	out, err := c.Clean(context.Background(), []domain.Document{
		{Metadata: domain.Metadata{Path: a, FileName: "a.txt"}},
		{Metadata: domain.Metadata{Path: b, FileName: "b.txt"}},
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving document, got %d", len(out))
	}
	// first occurrence wins
	if out[0].Metadata.FileName != "a.txt" {
		t.Errorf("expected first file to survive, got %s", out[0].Metadata.FileName)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
