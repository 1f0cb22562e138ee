package models

import "time"

// Page is one ordinal section of a document's extracted text. For markup
// formats a page maps to a heading section, for plain text to a fixed
// word window.
type Page struct {
	Index int
	Label string
	Text  string
}

// Chunk is a contiguous span of a document's extracted text, the unit of
// embedding and retrieval. Start and End are rune offsets into the text
// of the owning page.
type Chunk struct {
	ID    string
	DocID string
	Seq   int
	Page  int
	Start int
	End   int
	Text  string
}

// Document is a loaded source file. It is owned by the session manager:
// created on successful ingestion, destroyed on deletion or clear.
type Document struct {
	ID         string
	Name       string
	Format     string
	Path       string
	Pages      []Page
	Chunks     []Chunk
	TextLen    int
	IngestedAt time.Time
	Cursor     int
}

// Extracted is the raw output of a format extractor, before chunking.
type Extracted struct {
	Title  string
	Format string
	Pages  []Page
}

// RetrievedChunk is a search hit resolved back to its text and source
// document, so answers can cite origin.
type RetrievedChunk struct {
	Chunk
	DocName string
	Score   float64
}

// SummarySample is a per-document text sample used when summarizing "all",
// taken in registry order so every loaded document contributes.
type SummarySample struct {
	DocID   string
	DocName string
	Text    string
}

// Match is a literal text search hit with surrounding context.
type Match struct {
	DocID   string
	DocName string
	Page    int
	Label   string
	Snippet string
}

// Snapshot captures registry and index state for checkpointing. A reloaded
// snapshot must reconstruct the identical document-to-chunk mapping.
type Snapshot struct {
	Dimension int
	Documents []Document
	Vectors   map[string][]float32
}
