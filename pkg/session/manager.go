package session

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/voxdoc/voxdoc/internal/models"
	"github.com/voxdoc/voxdoc/internal/types"
	"github.com/voxdoc/voxdoc/pkg/chunker"
	"github.com/voxdoc/voxdoc/pkg/index"
	"github.com/voxdoc/voxdoc/pkg/intent"
	"github.com/voxdoc/voxdoc/pkg/logger"
)

// Config holds session policy.
type Config struct {
	// OnDuplicate is "reject" or "replace".
	OnDuplicate string
	// SummaryChunks is how many chunks are sampled per document when
	// summarizing.
	SummaryChunks int
	// SummaryCharBudget bounds the total text handed to the synthesizer.
	SummaryCharBudget int
}

// Manager owns the session: the insertion-ordered registry of loaded
// documents and the vector index built over them. All mutations go
// through one mutex so registry and index stay transactionally
// consistent; readers see either the pre- or post-mutation state.
type Manager struct {
	mu       sync.RWMutex
	config   Config
	extract  types.Extractor
	chunk    chunker.Chunker
	embed    types.Embedder
	idx      *index.Index
	resolver *intent.Dispatcher

	docs  map[string]*models.Document
	order []string
}

func NewManager(config Config, extract types.Extractor, chunk chunker.Chunker, embed types.Embedder, idx *index.Index, resolver *intent.Dispatcher) *Manager {
	if config.OnDuplicate == "" {
		config.OnDuplicate = "reject"
	}
	if config.SummaryChunks == 0 {
		config.SummaryChunks = 3
	}
	if config.SummaryCharBudget == 0 {
		config.SummaryCharBudget = 10000
	}
	return &Manager{
		config:   config,
		extract:  extract,
		chunk:    chunk,
		embed:    embed,
		idx:      idx,
		resolver: resolver,
		docs:     make(map[string]*models.Document),
	}
}

var idSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// DocumentID derives the stable session identifier from a file name.
func DocumentID(name string) string {
	id := idSeparators.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(id, "-")
}

// Ingest loads a file end to end: extract, chunk, embed, index, register.
// Extraction and embedding run outside the write lock; the registry and
// index mutate together under it, so a failure at any step leaves no
// partial document behind.
func (m *Manager) Ingest(ctx context.Context, path string) (models.Document, error) {
	name := filepath.Base(path)
	id := DocumentID(name)
	if id == "" {
		return models.Document{}, fmt.Errorf("cannot derive document id from %q", path)
	}

	// Reject duplicates before paying for extraction and embeddings.
	// The policy is re-checked under the write lock.
	m.mu.RLock()
	_, exists := m.docs[id]
	m.mu.RUnlock()
	if exists && m.config.OnDuplicate != "replace" {
		return models.Document{}, &models.DuplicateDocumentError{ID: id, Name: name}
	}

	extracted, err := m.extract.Extract(ctx, path)
	if err != nil {
		return models.Document{}, err
	}

	var chunks []models.Chunk
	var texts []string
	textLen := 0
	for _, page := range extracted.Pages {
		textLen += len(page.Text)
		for _, span := range m.chunk.Chunk(page.Text) {
			seq := len(chunks)
			chunks = append(chunks, models.Chunk{
				ID:    fmt.Sprintf("%s:%d", id, seq),
				DocID: id,
				Seq:   seq,
				Page:  page.Index,
				Start: span.Start,
				End:   span.End,
				Text:  span.Text,
			})
			texts = append(texts, span.Text)
		}
	}

	var entries []index.Entry
	if len(texts) > 0 {
		vectors, err := m.embed.CreateEmbedding(ctx, texts)
		if err != nil {
			return models.Document{}, fmt.Errorf("embedding failed for %s: %w", name, err)
		}
		if len(vectors) != len(chunks) {
			return models.Document{}, fmt.Errorf("embedder returned %d vectors for %d chunks of %s", len(vectors), len(chunks), name)
		}
		entries = make([]index.Entry, len(chunks))
		for i, c := range chunks {
			entries[i] = index.Entry{ChunkID: c.ID, DocID: id, Seq: c.Seq, Page: c.Page, Vector: vectors[i]}
		}
	}

	doc := models.Document{
		ID:         id,
		Name:       name,
		Format:     extracted.Format,
		Path:       path,
		Pages:      extracted.Pages,
		Chunks:     chunks,
		TextLen:    textLen,
		IngestedAt: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	replacing := false
	if _, exists := m.docs[id]; exists {
		if m.config.OnDuplicate != "replace" {
			return models.Document{}, &models.DuplicateDocumentError{ID: id, Name: name}
		}
		replacing = true
	}

	// Validate dimensions before touching anything so a rejected write
	// cannot strand a half-replaced document.
	if dim := m.idx.Dimension(); dim != 0 {
		for _, e := range entries {
			if len(e.Vector) != dim {
				return models.Document{}, &models.IndexWriteError{
					DocID:  id,
					Reason: fmt.Sprintf("embedding dimension %d does not match index dimension %d", len(e.Vector), dim),
				}
			}
		}
	}

	if replacing {
		m.idx.Remove(id)
		m.dropFromOrder(id)
		delete(m.docs, id)
	}
	if err := m.idx.Upsert(id, entries); err != nil {
		return models.Document{}, err
	}
	m.docs[id] = &doc
	m.order = append(m.order, id)

	logger.Infow("document ingested", "id", id, "name", name, "pages", len(doc.Pages), "chunks", len(chunks))
	return doc, nil
}

// Delete removes one document and every index entry it owns. Remaining
// documents and their chunks are untouched.
func (m *Manager) Delete(id string) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(id)
}

func (m *Manager) deleteLocked(id string) (models.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return models.Document{}, &models.DocumentNotFoundError{ID: id}
	}
	m.idx.Remove(id)
	delete(m.docs, id)
	m.dropFromOrder(id)
	logger.Infow("document deleted", "id", id, "name", doc.Name)
	return *doc, nil
}

// DeleteByName resolves a spoken name with the destructive confidence
// policy and deletes the match. Sub-threshold or near-equal candidates
// come back as AmbiguousTargetError so the caller can ask instead of
// guessing.
func (m *Manager) DeleteByName(spoken string) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, err := m.resolver.Resolve(spoken, m.listingLocked(), true)
	if err != nil {
		return models.Document{}, err
	}
	return m.deleteLocked(match.ID)
}

// Clear removes every document unconditionally.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idx.Clear()
	m.docs = make(map[string]*models.Document)
	m.order = nil
	logger.Infof("session cleared")
}

// Documents returns an insertion-ordered snapshot of the registry.
func (m *Manager) Documents() []models.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Document, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.docs[id])
	}
	return out
}

// Len is the number of loaded documents.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// ChunkCount is the sum of chunk counts across loaded documents; it must
// always equal the index cardinality.
func (m *Manager) ChunkCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, doc := range m.docs {
		n += len(doc.Chunks)
	}
	return n
}

// Listing exposes the registry to the intent dispatcher for fuzzy name
// resolution.
func (m *Manager) Listing() []intent.Candidate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listingLocked()
}

func (m *Manager) listingLocked() []intent.Candidate {
	out := make([]intent.Candidate, 0, len(m.order))
	for _, id := range m.order {
		doc := m.docs[id]
		out = append(out, intent.Candidate{ID: doc.ID, Name: doc.Name, IngestedAt: doc.IngestedAt})
	}
	return out
}

// SearchChunks runs a ranked index search and resolves hits back to
// chunk text and source metadata under one read lock, so results never
// mix pre- and post-mutation state.
func (m *Manager) SearchChunks(embedding []float32, k int, restrictDocID string) ([]models.RetrievedChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := m.idx.Search(embedding, k, restrictDocID)
	out := make([]models.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		doc, ok := m.docs[hit.DocID]
		if !ok {
			return nil, fmt.Errorf("index entry %s references unknown document %s", hit.ChunkID, hit.DocID)
		}
		for _, c := range doc.Chunks {
			if c.ID == hit.ChunkID {
				out = append(out, models.RetrievedChunk{Chunk: c, DocName: doc.Name, Score: hit.Score})
				break
			}
		}
	}
	return out, nil
}

// SummarySamples collects per-document text samples in registry order.
// An empty docID means every loaded document; each then contributes at
// least one chunk regardless of any ranking bias.
func (m *Manager) SummarySamples(docID string) ([]models.SummarySample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.order
	if docID != "" {
		if _, ok := m.docs[docID]; !ok {
			return nil, &models.DocumentNotFoundError{ID: docID}
		}
		ids = []string{docID}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	perDocBudget := m.config.SummaryCharBudget / len(ids)
	out := make([]models.SummarySample, 0, len(ids))
	for _, id := range ids {
		doc := m.docs[id]
		text := sampleText(doc, m.config.SummaryChunks, perDocBudget)
		out = append(out, models.SummarySample{DocID: doc.ID, DocName: doc.Name, Text: text})
	}
	return out, nil
}

// sampleText picks up to n chunks spread evenly across the document and
// joins them, truncated to the budget.
func sampleText(doc *models.Document, n, budget int) string {
	if len(doc.Chunks) == 0 {
		// Unchunked documents (very short text) fall back to page text.
		var b strings.Builder
		for _, p := range doc.Pages {
			b.WriteString(p.Text)
			b.WriteString("\n")
		}
		return truncate(strings.TrimSpace(b.String()), budget)
	}

	if n > len(doc.Chunks) {
		n = len(doc.Chunks)
	}
	step := len(doc.Chunks) / n
	if step == 0 {
		step = 1
	}
	var parts []string
	for i := 0; i < n; i++ {
		parts = append(parts, doc.Chunks[i*step].Text)
	}
	return truncate(strings.Join(parts, "\n...\n"), budget)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (m *Manager) dropFromOrder(id string) {
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
