package types

import (
	"context"

	"github.com/voxdoc/voxdoc/internal/models"
)

// Extractor turns a source file into labeled pages of text.
// Implementations are format specific and registered by extension.
type Extractor interface {
	Extract(ctx context.Context, path string) (models.Extracted, error)
}

// Embedder converts texts into fixed-dimension vectors. The dimension must
// be stable for the lifetime of one vector index.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher serves ranked retrieval over the currently loaded documents,
// resolving hits back to chunk text and source metadata.
type Searcher interface {
	SearchChunks(embedding []float32, k int, restrictDocID string) ([]models.RetrievedChunk, error)
}

// Speaker renders a reply to the user and can be interrupted.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}
