// Package hashing provides a local, deterministic embedding service
// based on token feature hashing. It needs no external model or
// network access, which makes it the default backend and the one used
// in tests. Vectors are L2-normalised so cosine distance behaves the
// same as with learned embeddings.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 256

const modelName = "feature-hashing"

// EmbeddingService maps texts to fixed-size vectors by hashing word
// and bigram features into buckets.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder with the given
// vector size. Non-positive sizes fall back to DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dimensions)

	tokens := tokenize(text)
	for i, tok := range tokens {
		addFeature(vec, tok)
		if i > 0 {
			// Bigrams capture a little word order.
			addFeature(vec, tokens[i-1]+" "+tok)
		}
	}

	normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts, preserving
// input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return modelName
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// addFeature hashes a token into a bucket. The second hash bit picks
// the sign so collisions tend to cancel rather than accumulate.
func addFeature(vec []float32, token string) {
	h := fnv.New64a()
	h.Write([]byte(token))
	sum := h.Sum64()

	bucket := int(sum % uint64(len(vec)))
	if (sum>>63)&1 == 1 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}

// tokenize lowercases and splits on anything that is not a letter or
// digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize scales vec to unit length in place. The zero vector is
// left untouched.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
