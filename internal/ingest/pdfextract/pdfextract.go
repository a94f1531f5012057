// Package pdfextract pulls multimodal items out of PDF files: per page it
// emits the raw text, every detected table as delimited text, and every
// embedded raster image as a base64 payload. Items carry page, table and
// image provenance so chunk identity survives re-ingestion.
package pdfextract

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
)

// pageTimeout bounds text extraction of a single page; some malformed PDFs
// make the parser spin.
const pageTimeout = 10 * time.Second

// Extractor reads PDFs into Document items.
type Extractor struct {
	logger *zap.Logger
}

// New creates a PDF extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns every text, table and image item of the PDF at path,
// in page order. Within a page text precedes tables precedes images.
// Table and image failures are logged and skipped; only a file that cannot
// be opened at all fails the call.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Document, error) {
	e.logger.Info("Extracting multimodal PDF", zap.String("file", path))

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	imagesByPage := e.extractImages(path)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	var items []domain.Document
	numPages := reader.NumPage()
	for pageNo := 1; pageNo <= numPages; pageNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		base := domain.Metadata{
			FileName:   filepath.Base(path),
			Path:       abs,
			PageNumber: pageNo,
		}

		page := reader.Page(pageNo)
		if page.V.IsNull() {
			continue
		}

		// 1. Page text
		text, err := extractPageText(page)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.String("file", path), zap.Int("page", pageNo), zap.Error(err))
		} else if trimmed := strings.TrimSpace(text); trimmed != "" {
			meta := base
			meta.Kind = domain.KindText
			items = append(items, domain.Document{Content: trimmed, Metadata: meta})
		}

		// 2. Tables
		tables, err := extractTables(page)
		if err != nil {
			e.logger.Warn("Failed to extract tables",
				zap.String("file", path), zap.Int("page", pageNo), zap.Error(err))
		}
		for idx, table := range tables {
			items = append(items, domain.Document{
				Content:  table,
				Metadata: base.WithTable(idx),
			})
		}

		// 3. Images
		for idx, img := range imagesByPage[pageNo] {
			items = append(items, domain.Document{
				Content:  img.payload,
				Metadata: base.WithImage(idx, img.xref),
			})
		}
	}

	e.logger.Info("Multimodal extraction finished",
		zap.String("file", path), zap.Int("items_extracted", len(items)))
	return items, nil
}

// extractPageText runs GetPlainText under a deadline.
func extractPageText(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resCh := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resCh <- result{content, err}
	}()

	select {
	case r := <-resCh:
		return r.content, r.err
	case <-time.After(pageTimeout):
		return "", errors.New("page text extraction timed out")
	}
}

// extractTables reconstructs tables from the page's positioned text rows.
// Fragments on one row are split into cells wherever the horizontal gap
// exceeds the font size; a run of two or more consecutive multi-cell rows
// is emitted as one table, cells joined with " | ".
func extractTables(page pdf.Page) ([]string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}

	var tables []string
	var current []string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, strings.Join(current, "\n"))
		}
		current = nil
	}

	for _, row := range rows {
		cells := splitCells(row.Content)
		if len(cells) >= 2 {
			current = append(current, strings.Join(cells, " | "))
		} else {
			flush()
		}
	}
	flush()

	return tables, nil
}

// splitCells groups a row's text fragments into cells by horizontal gaps.
func splitCells(frags []pdf.Text) []string {
	var cells []string
	var cell strings.Builder
	var prevEnd float64

	for i, frag := range frags {
		gap := frag.FontSize
		if gap <= 0 {
			gap = 10
		}
		if i > 0 && frag.X-prevEnd > gap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(frag.S)
		prevEnd = frag.X + frag.W
	}
	if cell.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}

	out := cells[:0]
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

type pageImage struct {
	xref    int
	payload string
}

// extractImages collects the embedded raster images of the whole file,
// grouped by page and ordered by object number. Failures only cost the
// images, never the file.
func (e *Extractor) extractImages(path string) map[int][]pageImage {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Warn("Failed to open pdf for image extraction",
			zap.String("file", path), zap.Error(err))
		return nil
	}
	defer f.Close()

	pages, err := api.ExtractImagesRaw(f, nil, model.NewDefaultConfiguration())
	if err != nil {
		e.logger.Warn("Failed to extract images",
			zap.String("file", path), zap.Error(err))
		return nil
	}

	byPage := make(map[int][]pageImage)
	for _, imgs := range pages {
		xrefs := make([]int, 0, len(imgs))
		for objNr := range imgs {
			xrefs = append(xrefs, objNr)
		}
		sort.Ints(xrefs)

		for _, objNr := range xrefs {
			img := imgs[objNr]
			raw, err := io.ReadAll(img)
			if err != nil {
				e.logger.Warn("Failed to read image object",
					zap.String("file", path), zap.Int("page", img.PageNr),
					zap.Int("xref", objNr), zap.Error(err))
				continue
			}
			byPage[img.PageNr] = append(byPage[img.PageNr], pageImage{
				xref:    objNr,
				payload: base64.StdEncoding.EncodeToString(raw),
			})
		}
	}
	return byPage
}
