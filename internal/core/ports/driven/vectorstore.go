package driven

import "context"

// Record is the unit stored by a VectorStore.
type Record struct {
	// ID is assigned by the store at insert time, globally unique,
	// never reused.
	ID string

	// Vector is the embedding, always of the store's configured dimension.
	Vector []float32

	// Text is the chunk content.
	Text string

	// Metadata is a flat mapping of scalar values. Non-scalar values are
	// coerced to strings at insert time. Always includes document_id,
	// filename, chunk_index, file_size and text_length.
	Metadata map[string]any
}

// Filter restricts store operations to records whose metadata matches
// every key/value pair exactly.
type Filter map[string]any

// Hit is a single nearest-neighbour query result.
type Hit struct {
	// ID is the matched record.
	ID string

	// Text is the matched record's content.
	Text string

	// Metadata is the matched record's metadata.
	Metadata map[string]any

	// Distance is the store-native cosine distance (lower is closer,
	// range [0, 2]). Callers normalize to similarity.
	Distance float64
}

// VectorStore is a persistent collection of (vector, text, metadata)
// records supporting metadata-filtered nearest-neighbour search.
//
// All operations report an unreachable backing storage by wrapping
// domain.ErrStoreUnavailable. Concurrent readers never observe a
// partially inserted batch.
type VectorStore interface {
	// Insert adds a batch of records atomically: afterwards either every
	// record is visible or none is. Record IDs are assigned by the store;
	// any vector of the wrong length fails the whole batch with a
	// domain.DimensionMismatchError.
	Insert(ctx context.Context, records []Record) ([]string, error)

	// Query returns up to k records nearest to vector, optionally
	// restricted by filter, ordered by increasing distance with ties
	// broken by insertion order (earlier record wins). k <= 0 fails with
	// domain.ErrInvalidArgument. An empty store returns an empty slice.
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error)

	// GetByFilter returns all records matching filter. Matching nothing
	// returns an empty slice, not an error.
	GetByFilter(ctx context.Context, filter Filter) ([]Record, error)

	// DeleteByFilter removes all records matching filter and returns the
	// number deleted. Matching nothing returns zero, not an error.
	DeleteByFilter(ctx context.Context, filter Filter) (int, error)

	// ListDocuments aggregates records by document_id.
	ListDocuments(ctx context.Context) ([]DocumentAggregate, error)

	// Stats returns collection-wide counters.
	Stats(ctx context.Context) (StoreStats, error)

	// Reset destroys all records irrevocably.
	Reset(ctx context.Context) error

	// Dimensions returns the configured vector dimension.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// DocumentAggregate is the grouped view of one document's records.
type DocumentAggregate struct {
	DocumentID string
	Filename   string
	ChunkCount int
	FileSize   int64
}

// StoreStats are collection-wide counters.
type StoreStats struct {
	TotalChunks    int
	TotalDocuments int
}
