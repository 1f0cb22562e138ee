package session

import (
	"fmt"

	"github.com/voxdoc/voxdoc/internal/models"
	"github.com/voxdoc/voxdoc/pkg/index"
)

// Snapshot captures the registry and index for checkpointing.
func (m *Manager) Snapshot() models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]models.Document, 0, len(m.order))
	for _, id := range m.order {
		docs = append(docs, *m.docs[id])
	}
	return models.Snapshot{
		Dimension: m.idx.Dimension(),
		Documents: docs,
		Vectors:   m.idx.Vectors(),
	}
}

// Restore replaces the session with a previously saved snapshot. Every
// document must reload with exactly the chunk set that was saved; a
// snapshot missing any vector is rejected before anything is replaced.
func (m *Manager) Restore(snap models.Snapshot) error {
	entriesByDoc := make(map[string][]index.Entry, len(snap.Documents))
	for _, doc := range snap.Documents {
		entries := make([]index.Entry, 0, len(doc.Chunks))
		for _, c := range doc.Chunks {
			vec, ok := snap.Vectors[c.ID]
			if !ok {
				return fmt.Errorf("snapshot is missing the vector for chunk %s of %s", c.ID, doc.Name)
			}
			if snap.Dimension != 0 && len(vec) != snap.Dimension {
				return fmt.Errorf("snapshot vector for chunk %s has dimension %d, want %d", c.ID, len(vec), snap.Dimension)
			}
			entries = append(entries, index.Entry{ChunkID: c.ID, DocID: doc.ID, Seq: c.Seq, Page: c.Page, Vector: vec})
		}
		entriesByDoc[doc.ID] = entries
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.idx.Clear()
	m.docs = make(map[string]*models.Document, len(snap.Documents))
	m.order = m.order[:0]
	for i := range snap.Documents {
		doc := snap.Documents[i]
		if err := m.idx.Upsert(doc.ID, entriesByDoc[doc.ID]); err != nil {
			return err
		}
		m.docs[doc.ID] = &doc
		m.order = append(m.order, doc.ID)
	}
	return nil
}
