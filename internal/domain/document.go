package domain

import "fmt"

// Kind tags the content variant of an extracted item. Exhaustive handling of
// the three variants is what the Cleaner dispatches on.
type Kind string

const (
	KindText  Kind = "text"
	KindTable Kind = "table"
	KindImage Kind = "image"
)

// Metadata carries the provenance of a document item. Path is stable across
// every item derived from one source file and is the basis of chunk identity.
// Optional fields use pointers so the stored JSON only contains the keys
// that apply to the item's kind.
type Metadata struct {
	FileName   string `json:"file_name"`
	Path       string `json:"path"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Kind       Kind   `json:"type,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
	TableIndex *int   `json:"table_index,omitempty"`
	ImageIndex *int   `json:"image_index,omitempty"`
	XRef       *int   `json:"xref,omitempty"`
	ChunkIndex *int   `json:"chunk_index,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

// WithTable returns a copy tagged as the index-th table of the page.
func (m Metadata) WithTable(index int) Metadata {
	m.Kind = KindTable
	m.TableIndex = &index
	return m
}

// WithImage returns a copy tagged as the index-th image of the page,
// keeping the PDF cross-reference id of the image object.
func (m Metadata) WithImage(index, xref int) Metadata {
	m.Kind = KindImage
	m.ImageIndex = &index
	m.XRef = &xref
	return m
}

// WithChunk returns a copy stamped with the chunk ordinal and the total
// chunk count of the parent document.
func (m Metadata) WithChunk(index, count int) Metadata {
	m.ChunkIndex = &index
	m.ChunkCount = count
	return m
}

// Document is a unit of source content flowing through the ingestion
// pipeline: loaded, extracted, cleaned, then chunked.
type Document struct {
	Content  string
	Metadata Metadata
}

// EmbeddedChunk is a chunk plus its vector, ready for the vector store.
// Once persisted the store owns it; no other component keeps a copy.
type EmbeddedChunk struct {
	ID        string
	Content   string
	Metadata  Metadata
	Embedding []float32
}

// SimilarMatch is a nearest-neighbor hit returned by the vector store,
// ordered ascending by Distance.
type SimilarMatch struct {
	ID       string
	Content  string
	Metadata Metadata
	Distance float64
}

// ChunkID derives the deterministic upsert identity of a document:
// "{path}_chunk_{chunk_index}" when chunk metadata exists, else the path.
// Re-ingesting the same file therefore overwrites instead of duplicating.
func ChunkID(m Metadata) string {
	if m.ChunkIndex != nil && m.Path != "" {
		return fmt.Sprintf("%s_chunk_%d", m.Path, *m.ChunkIndex)
	}
	return m.Path
}
