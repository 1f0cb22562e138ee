package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/voxdoc/voxdoc/internal/models"
)

// Entry is one indexed chunk embedding, keyed by its owning document so
// a whole document can be removed exactly.
type Entry struct {
	ChunkID string
	DocID   string
	Seq     int
	Page    int
	Vector  []float32
}

// Hit is a ranked search result.
type Hit struct {
	ChunkID string
	DocID   string
	Score   float64
}

// Index is an in-memory vector index with per-document buckets and
// brute-force cosine search. The embedding dimension is pinned by the
// first write and enforced for the lifetime of the index.
type Index struct {
	mu   sync.RWMutex
	dim  int
	docs map[string][]Entry
}

func New() *Index {
	return &Index{docs: make(map[string][]Entry)}
}

// NewWithDimension pins the embedding dimension up front.
func NewWithDimension(dim int) *Index {
	idx := New()
	idx.dim = dim
	return idx
}

// Upsert adds entries owned by docID. All vectors are validated before
// any mutation, so a rejected write leaves the index unchanged.
func (idx *Index) Upsert(docID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	dim := idx.dim
	if dim == 0 {
		dim = len(entries[0].Vector)
	}
	for _, e := range entries {
		if len(e.Vector) != dim {
			return &models.IndexWriteError{
				DocID:  docID,
				Reason: fmt.Sprintf("embedding dimension %d does not match index dimension %d", len(e.Vector), dim),
			}
		}
		if e.DocID != docID {
			return &models.IndexWriteError{
				DocID:  docID,
				Reason: fmt.Sprintf("entry %s owned by %s", e.ChunkID, e.DocID),
			}
		}
	}

	idx.dim = dim
	idx.docs[docID] = append(idx.docs[docID], entries...)
	return nil
}

// Remove deletes every entry owned by docID. Removing an absent
// identifier is a no-op.
func (idx *Index) Remove(docID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.docs, docID)
}

// Search returns the top-k entries by cosine similarity. When
// restrictDocID is set only that document's entries participate. Ties
// break by chunk identifier so ranking is deterministic.
func (idx *Index) Search(query []float32, k int, restrictDocID string) []Hit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(query) == 0 || len(query) != idx.dim {
		return nil
	}

	var hits []Hit
	scan := func(entries []Entry) {
		for _, e := range entries {
			hits = append(hits, Hit{ChunkID: e.ChunkID, DocID: e.DocID, Score: cosine(query, e.Vector)})
		}
	}

	if restrictDocID != "" {
		scan(idx.docs[restrictDocID])
	} else {
		for _, entries := range idx.docs {
			scan(entries)
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

// Clear drops all entries unconditionally. The pinned dimension survives
// so a session keeps a stable embedding space.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = make(map[string][]Entry)
}

// Len is the total entry count across all documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := 0
	for _, entries := range idx.docs {
		n += len(entries)
	}
	return n
}

// DocLen is the entry count owned by one document.
func (idx *Index) DocLen(docID string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs[docID])
}

func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dim
}

// Vectors copies out every stored embedding keyed by chunk identifier,
// for checkpointing.
func (idx *Index) Vectors() map[string][]float32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string][]float32, len(idx.docs))
	for _, entries := range idx.docs {
		for _, e := range entries {
			v := make([]float32, len(e.Vector))
			copy(v, e.Vector)
			out[e.ChunkID] = v
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
