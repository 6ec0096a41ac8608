// Package memory provides an in-memory implementation of
// driven.VectorStore using brute-force cosine distance.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// record is a stored entry plus its insertion sequence number,
// which breaks distance ties (earlier record wins).
type record struct {
	driven.Record
	seq uint64
}

// Store is an in-memory vector store. Inserts are atomic per batch:
// the batch is validated and materialised before the write lock is
// taken, so concurrent readers never observe a partial insert.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   []record
	nextSeq   uint64
}

// NewStore creates a store for vectors of the given dimension.
func NewStore(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidArgument, dimension)
	}
	return &Store{dimension: dimension}, nil
}

// Insert adds a batch of records atomically and returns the assigned IDs.
func (s *Store) Insert(_ context.Context, records []driven.Record) ([]string, error) {
	// Validate and copy outside the lock; nothing becomes visible
	// unless the whole batch is good.
	prepared := make([]record, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return nil, domain.NewDimensionMismatchError(s.dimension, len(r.Vector))
		}

		id := uuid.New().String()
		ids = append(ids, id)
		prepared = append(prepared, record{
			Record: driven.Record{
				ID:       id,
				Vector:   append([]float32(nil), r.Vector...),
				Text:     r.Text,
				Metadata: coerceMetadata(r.Metadata, id),
			},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range prepared {
		prepared[i].seq = s.nextSeq
		s.nextSeq++
	}
	s.records = append(s.records, prepared...)

	return ids, nil
}

// Query returns up to k nearest records by cosine distance.
func (s *Store) Query(_ context.Context, vector []float32, k int, filter driven.Filter) ([]driven.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(vector) != s.dimension {
		return nil, domain.NewDimensionMismatchError(s.dimension, len(vector))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec      *record
		distance float64
	}
	candidates := make([]scored, 0, len(s.records))
	for i := range s.records {
		rec := &s.records[i]
		if !matches(rec.Metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{rec: rec, distance: cosineDistance(vector, rec.Vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].rec.seq < candidates[j].rec.seq
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	hits := make([]driven.Hit, 0, k)
	for _, c := range candidates[:k] {
		hits = append(hits, driven.Hit{
			ID:       c.rec.ID,
			Text:     c.rec.Text,
			Metadata: copyMetadata(c.rec.Metadata),
			Distance: c.distance,
		})
	}
	return hits, nil
}

// GetByFilter returns all records matching filter.
func (s *Store) GetByFilter(_ context.Context, filter driven.Filter) ([]driven.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]driven.Record, 0)
	for i := range s.records {
		if matches(s.records[i].Metadata, filter) {
			rec := s.records[i].Record
			rec.Metadata = copyMetadata(rec.Metadata)
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// DeleteByFilter removes all records matching filter.
func (s *Store) DeleteByFilter(_ context.Context, filter driven.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	deleted := 0
	for _, rec := range s.records {
		if matches(rec.Metadata, filter) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// ListDocuments aggregates records by document_id.
func (s *Store) ListDocuments(_ context.Context) ([]driven.DocumentAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]*driven.DocumentAggregate)
	order := make([]string, 0)
	for i := range s.records {
		meta := s.records[i].Metadata
		docID, _ := meta["document_id"].(string)
		if docID == "" {
			continue
		}
		agg, ok := byID[docID]
		if !ok {
			agg = &driven.DocumentAggregate{
				DocumentID: docID,
				Filename:   metaString(meta, "filename", "Unknown"),
				FileSize:   metaInt64(meta, "file_size"),
			}
			byID[docID] = agg
			order = append(order, docID)
		}
		agg.ChunkCount++
	}

	aggregates := make([]driven.DocumentAggregate, 0, len(order))
	for _, id := range order {
		aggregates = append(aggregates, *byID[id])
	}
	return aggregates, nil
}

// Stats returns collection-wide counters.
func (s *Store) Stats(ctx context.Context) (driven.StoreStats, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return driven.StoreStats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return driven.StoreStats{
		TotalChunks:    len(s.records),
		TotalDocuments: len(docs),
	}, nil
}

// Reset destroys all records.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

// Dimensions returns the configured vector dimension.
func (s *Store) Dimensions() int {
	return s.dimension
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// matches reports whether metadata satisfies every equality predicate
// in filter. A nil or empty filter matches everything.
func matches(metadata map[string]any, filter driven.Filter) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

// coerceMetadata copies metadata, coercing non-scalar values to strings
// and stamping the record's own ID under "record_id".
func coerceMetadata(metadata map[string]any, recordID string) map[string]any {
	coerced := make(map[string]any, len(metadata)+1)
	for key, value := range metadata {
		switch value.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			coerced[key] = value
		default:
			coerced[key] = fmt.Sprintf("%v", value)
		}
	}
	coerced["record_id"] = recordID
	return coerced
}

func copyMetadata(metadata map[string]any) map[string]any {
	c := make(map[string]any, len(metadata))
	for k, v := range metadata {
		c[k] = v
	}
	return c
}

func metaString(metadata map[string]any, key, fallback string) string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func metaInt64(metadata map[string]any, key string) int64 {
	switch v := metadata[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// cosineDistance returns 1 - cosine similarity, in [0, 2].
// Zero vectors are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
