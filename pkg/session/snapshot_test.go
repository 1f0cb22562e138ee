package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxdoc/voxdoc/pkg/session"
)

func TestManager_SnapshotRestoreRoundtrip(t *testing.T) {
	m, _ := newTestManager(t, session.Config{})
	ctx := context.Background()

	_, err := m.Ingest(ctx, "Chemistry_101.pdf")
	require.NoError(t, err)
	_, err = m.Ingest(ctx, "Biology.pdf")
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Len(t, snap.Documents, 2)
	assert.Len(t, snap.Vectors, 2)

	restored, _ := newTestManager(t, session.Config{})
	require.NoError(t, restored.Restore(snap))

	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, 2, restored.ChunkCount())

	// Registry order survives the roundtrip.
	docs := restored.Documents()
	assert.Equal(t, "chemistry-101-pdf", docs[0].ID)
	assert.Equal(t, "biology-pdf", docs[1].ID)

	// Search over the restored index behaves like the original.
	results, err := restored.SearchChunks([]float32{0, 0, 1}, 1, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "biology-pdf", results[0].DocID)
}

func TestManager_RestoreRejectsMissingVector(t *testing.T) {
	m, _ := newTestManager(t, session.Config{})
	_, err := m.Ingest(context.Background(), "Chemistry_101.pdf")
	require.NoError(t, err)

	snap := m.Snapshot()
	for id := range snap.Vectors {
		delete(snap.Vectors, id)
		break
	}

	restored, _ := newTestManager(t, session.Config{})
	_, err2 := restored.Ingest(context.Background(), "Biology.pdf")
	require.NoError(t, err2)

	err = restored.Restore(snap)
	require.Error(t, err)
	// A rejected snapshot leaves the existing session untouched.
	assert.Equal(t, 1, restored.Len())
	assert.Equal(t, 1, restored.ChunkCount())
}

func TestManager_SnapshotIsDetached(t *testing.T) {
	m, _ := newTestManager(t, session.Config{})
	_, err := m.Ingest(context.Background(), "Chemistry_101.pdf")
	require.NoError(t, err)

	snap := m.Snapshot()
	m.Clear()

	assert.Len(t, snap.Documents, 1, "snapshot survives a later clear")
	require.NoError(t, m.Restore(snap))
	assert.Equal(t, 1, m.Len())
}
