package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxdoc/voxdoc/internal/models"
	"github.com/voxdoc/voxdoc/pkg/index"
)

func entries(docID string, vectors ...[]float32) []index.Entry {
	out := make([]index.Entry, 0, len(vectors))
	for i, v := range vectors {
		out = append(out, index.Entry{
			ChunkID: docID + ":" + string(rune('a'+i)),
			DocID:   docID,
			Seq:     i,
			Vector:  v,
		})
	}
	return out
}

func TestIndex_UpsertAndSearch(t *testing.T) {
	idx := index.New()

	require.NoError(t, idx.Upsert("doc-a", entries("doc-a",
		[]float32{1, 0, 0},
		[]float32{0, 1, 0},
	)))
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 3, idx.Dimension())

	hits := idx.Search([]float32{1, 0, 0}, 1, "")
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-a:a", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestIndex_DimensionMismatchRejectedWhole(t *testing.T) {
	idx := index.New()
	require.NoError(t, idx.Upsert("doc-a", entries("doc-a", []float32{1, 0, 0})))

	// One bad vector in the batch rejects the entire write.
	err := idx.Upsert("doc-b", entries("doc-b",
		[]float32{0, 1, 0},
		[]float32{1, 0},
	))
	var writeErr *models.IndexWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "doc-b", writeErr.DocID)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 0, idx.DocLen("doc-b"))
}

func TestIndex_OwnershipMismatchRejected(t *testing.T) {
	idx := index.New()

	err := idx.Upsert("doc-a", []index.Entry{
		{ChunkID: "doc-b:a", DocID: "doc-b", Vector: []float32{1, 0}},
	})
	var writeErr *models.IndexWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_RemoveIsExactAndIdempotent(t *testing.T) {
	idx := index.New()
	require.NoError(t, idx.Upsert("doc-a", entries("doc-a", []float32{1, 0}, []float32{0, 1})))
	require.NoError(t, idx.Upsert("doc-b", entries("doc-b", []float32{1, 1})))

	idx.Remove("doc-a")
	assert.Equal(t, 0, idx.DocLen("doc-a"))
	assert.Equal(t, 1, idx.DocLen("doc-b"))

	// Removing again, or removing an unknown id, changes nothing.
	idx.Remove("doc-a")
	idx.Remove("never-added")
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_SearchRestrictedToDocument(t *testing.T) {
	idx := index.New()
	require.NoError(t, idx.Upsert("doc-a", entries("doc-a", []float32{1, 0})))
	require.NoError(t, idx.Upsert("doc-b", entries("doc-b", []float32{1, 0})))

	hits := idx.Search([]float32{1, 0}, 10, "doc-b")
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-b", hits[0].DocID)
}

func TestIndex_SearchDeterministicTieBreak(t *testing.T) {
	idx := index.New()
	// Identical vectors, so scores tie and ranking falls back to chunk id.
	require.NoError(t, idx.Upsert("doc-a", entries("doc-a", []float32{1, 0}, []float32{1, 0})))

	for i := 0; i < 5; i++ {
		hits := idx.Search([]float32{1, 0}, 2, "")
		require.Len(t, hits, 2)
		assert.Equal(t, "doc-a:a", hits[0].ChunkID)
		assert.Equal(t, "doc-a:b", hits[1].ChunkID)
	}
}

func TestIndex_SearchEdgeCases(t *testing.T) {
	idx := index.New()
	require.NoError(t, idx.Upsert("doc-a", entries("doc-a", []float32{1, 0})))

	assert.Nil(t, idx.Search([]float32{1, 0}, 0, ""))
	assert.Nil(t, idx.Search(nil, 5, ""))
	assert.Nil(t, idx.Search([]float32{1, 0, 0}, 5, ""), "query dimension mismatch yields nothing")

	hits := idx.Search([]float32{1, 0}, 100, "")
	assert.Len(t, hits, 1, "k beyond corpus size clamps")
}

func TestIndex_ClearKeepsDimension(t *testing.T) {
	idx := index.NewWithDimension(3)
	require.NoError(t, idx.Upsert("doc-a", entries("doc-a", []float32{1, 0, 0})))

	idx.Clear()
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 3, idx.Dimension())

	err := idx.Upsert("doc-a", entries("doc-a", []float32{1, 0}))
	var writeErr *models.IndexWriteError
	assert.ErrorAs(t, err, &writeErr, "dimension pinned across Clear")
}

func TestIndex_VectorsCopiesOut(t *testing.T) {
	idx := index.New()
	require.NoError(t, idx.Upsert("doc-a", entries("doc-a", []float32{1, 0})))

	vectors := idx.Vectors()
	require.Contains(t, vectors, "doc-a:a")
	vectors["doc-a:a"][0] = 99

	hits := idx.Search([]float32{1, 0}, 1, "")
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9, "mutating the copy must not touch the index")
}
