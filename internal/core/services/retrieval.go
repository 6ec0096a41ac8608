package services

import (
	"context"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
)

// Retriever runs nearest-neighbour queries against the vector store
// and normalizes distances into similarity scores.
type Retriever struct {
	store driven.VectorStore
}

// NewRetriever creates a new retriever over the given store.
func NewRetriever(store driven.VectorStore) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns up to k chunks nearest to vector, optionally
// restricted to one document. Results keep the store's distance order;
// an empty result is valid.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, k int, documentID string) ([]domain.ScoredChunk, error) {
	var filter driven.Filter
	if documentID != "" {
		filter = driven.Filter{"document_id": documentID}
	}

	hits, err := r.store.Query(ctx, vector, k, filter)
	if err != nil {
		return nil, err
	}

	scored := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		scored = append(scored, domain.ScoredChunk{
			RecordID:   hit.ID,
			Text:       hit.Text,
			Metadata:   hit.Metadata,
			Distance:   hit.Distance,
			Similarity: distanceToSimilarity(hit.Distance),
		})
	}
	return scored, nil
}

// distanceToSimilarity maps a cosine distance in [0, 2] to a
// similarity in [0, 1]. Out-of-range distances clamp rather than
// propagate.
func distanceToSimilarity(distance float64) float64 {
	similarity := 1.0 - distance/2.0
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}
