package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChunkID(t *testing.T) {
	two := 2

	tests := []struct {
		name string
		meta Metadata
		want string
	}{
		{
			name: "chunked document",
			meta: Metadata{Path: "/data/plano.pdf", ChunkIndex: &two},
			want: "/data/plano.pdf_chunk_2",
		},
		{
			name: "unchunked document falls back to path",
			meta: Metadata{Path: "/data/plano.pdf"},
			want: "/data/plano.pdf",
		},
		{
			name: "chunk index without path",
			meta: Metadata{ChunkIndex: &two},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChunkID(tt.meta); got != tt.want {
				t.Errorf("ChunkID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkID_StableAcrossRuns(t *testing.T) {
	for i := 0; i < 3; i++ {
		idx := i
		m := Metadata{Path: "P"}.WithChunk(idx, 3)
		want := "P_chunk_" + string(rune('0'+i))
		if got := ChunkID(m); got != want {
			t.Errorf("chunk %d: got %q, want %q", i, got, want)
		}
	}
}

func TestMetadataJSON_OmitsUnsetOptionalFields(t *testing.T) {
	m := Metadata{FileName: "a.txt", Path: "/data/a.txt"}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"table_index", "image_index", "xref", "chunk_index", "chunk_count", "page_number"} {
		if strings.Contains(string(data), key) {
			t.Errorf("expected %q to be omitted, got %s", key, data)
		}
	}
}

func TestMetadataJSON_KeepsZeroIndexes(t *testing.T) {
	m := Metadata{FileName: "a.pdf", Path: "/data/a.pdf", PageNumber: 1}.
		WithTable(0).
		WithChunk(0, 4)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"table_index":0`, `"chunk_index":0`, `"chunk_count":4`, `"type":"table"`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}

	var back Metadata
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.TableIndex == nil || *back.TableIndex != 0 {
		t.Error("table index lost in round trip")
	}
	if back.ChunkIndex == nil || *back.ChunkIndex != 0 {
		t.Error("chunk index lost in round trip")
	}
}

func TestWithImage(t *testing.T) {
	m := Metadata{Path: "/data/a.pdf", PageNumber: 3}.WithImage(1, 42)
	if m.Kind != KindImage {
		t.Errorf("expected image kind, got %q", m.Kind)
	}
	if m.ImageIndex == nil || *m.ImageIndex != 1 {
		t.Error("image index not set")
	}
	if m.XRef == nil || *m.XRef != 42 {
		t.Error("xref not set")
	}
}
