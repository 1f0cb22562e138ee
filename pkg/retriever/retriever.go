package retriever

import (
	"context"
	"fmt"

	"github.com/voxdoc/voxdoc/internal/models"
	"github.com/voxdoc/voxdoc/internal/types"
)

// Retriever embeds a query and returns the top-ranked chunks across the
// loaded documents, resolved to full text and source metadata.
type Retriever struct {
	embed  types.Embedder
	search types.Searcher
	topK   int
}

func New(embed types.Embedder, search types.Searcher, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embed: embed, search: search, topK: topK}
}

// Retrieve returns up to k ranked chunks for the query, restricted to
// one document when restrictDocID is set. An empty index yields an empty
// result, never an error; the caller decides how to surface "nothing
// loaded".
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, restrictDocID string) ([]models.RetrievedChunk, error) {
	if k <= 0 {
		k = r.topK
	}
	embeddings, err := r.embed.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	return r.search.SearchChunks(embeddings[0], k, restrictDocID)
}
