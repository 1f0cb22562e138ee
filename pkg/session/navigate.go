package session

import (
	"fmt"
	"strings"

	"github.com/voxdoc/voxdoc/internal/models"
)

// GoToPage moves a document's read cursor to the given spoken page
// number (1-indexed) and returns that page.
func (m *Manager) GoToPage(docID string, page int) (models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[docID]
	if !ok {
		return models.Page{}, &models.DocumentNotFoundError{ID: docID}
	}
	idx := page - 1
	if idx < 0 || idx >= len(doc.Pages) {
		return models.Page{}, fmt.Errorf("page %d is out of range, %s has %d pages", page, doc.Name, len(doc.Pages))
	}
	doc.Cursor = idx
	return doc.Pages[idx], nil
}

// Advance moves the read cursor by delta pages and returns the page it
// lands on. Moving past either end is reported, not wrapped.
func (m *Manager) Advance(docID string, delta int) (models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[docID]
	if !ok {
		return models.Page{}, &models.DocumentNotFoundError{ID: docID}
	}
	idx := doc.Cursor + delta
	if idx < 0 {
		return models.Page{}, fmt.Errorf("already at the beginning of %s", doc.Name)
	}
	if idx >= len(doc.Pages) {
		return models.Page{}, fmt.Errorf("already at the end of %s", doc.Name)
	}
	doc.Cursor = idx
	return doc.Pages[idx], nil
}

// CurrentPage returns the page under the read cursor.
func (m *Manager) CurrentPage(docID string) (models.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[docID]
	if !ok {
		return models.Page{}, &models.DocumentNotFoundError{ID: docID}
	}
	if len(doc.Pages) == 0 {
		return models.Page{}, fmt.Errorf("%s has no readable pages", doc.Name)
	}
	return doc.Pages[doc.Cursor], nil
}

// NextDocument returns the document after the given one in registry
// order, wrapping around. An empty afterID returns the first document.
func (m *Manager) NextDocument(afterID string) (models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.order) == 0 {
		return models.Document{}, &models.DocumentNotFoundError{Name: "any"}
	}
	if afterID == "" {
		return *m.docs[m.order[0]], nil
	}
	for i, id := range m.order {
		if id == afterID {
			next := m.order[(i+1)%len(m.order)]
			return *m.docs[next], nil
		}
	}
	return *m.docs[m.order[0]], nil
}

// Find runs a literal case-insensitive search across all loaded pages
// and returns matches with surrounding snippets.
func (m *Manager) Find(query string) []models.Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	if q == "" {
		return nil
	}
	var out []models.Match
	for _, id := range m.order {
		doc := m.docs[id]
		for _, page := range doc.Pages {
			pos := strings.Index(strings.ToLower(page.Text), q)
			if pos < 0 {
				continue
			}
			start := pos - 60
			if start < 0 {
				start = 0
			}
			end := pos + 120
			if end > len(page.Text) {
				end = len(page.Text)
			}
			out = append(out, models.Match{
				DocID:   doc.ID,
				DocName: doc.Name,
				Page:    page.Index,
				Label:   page.Label,
				Snippet: page.Text[start:end],
			})
		}
	}
	return out
}
