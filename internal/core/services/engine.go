package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumina-labs/askdoc-cli/internal/chunker"
	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driving"
	"github.com/lumina-labs/askdoc-cli/internal/embedcache"
	"github.com/lumina-labs/askdoc-cli/internal/logger"
)

// Ensure EngineService implements the interface.
var _ driving.EngineService = (*EngineService)(nil)

// Engine tunables.
const (
	// DefaultMaxChunks is how many chunks a question retrieves when the
	// caller does not say.
	DefaultMaxChunks = 5

	// DefaultBatchSize is how many chunk texts go into one embedding
	// request.
	DefaultBatchSize = 32

	// DefaultEmbedWorkers bounds how many embedding batches run
	// concurrently.
	DefaultEmbedWorkers = 4
)

// EngineConfig holds engine tunables. The zero value selects defaults.
type EngineConfig struct {
	// MaxChunks is the default retrieval depth for questions.
	MaxChunks int

	// BatchSize is the embedding request batch size.
	BatchSize int

	// EmbedWorkers bounds concurrent embedding batches.
	EmbedWorkers int

	// StorePath is reported in stats; informational only.
	StorePath string
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.MaxChunks <= 0 {
		c.MaxChunks = DefaultMaxChunks
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.EmbedWorkers <= 0 {
		c.EmbedWorkers = DefaultEmbedWorkers
	}
	return c
}

// EngineService runs the indexing and question-answering pipeline:
// chunk, embed, store on the way in; embed, retrieve, synthesize on
// the way out. It also owns document lifecycle records.
type EngineService struct {
	splitter    *chunker.Splitter
	cache       *embedcache.Cache
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	metaStore   driven.MetadataStore
	retriever   *Retriever
	synthesizer *Synthesizer
	cfg         EngineConfig

	// mu guards inflight and serialises metadata read-modify-write.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewEngineService creates the engine over its collaborators.
func NewEngineService(
	splitter *chunker.Splitter,
	cache *embedcache.Cache,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	metaStore driven.MetadataStore,
	cfg EngineConfig,
) *EngineService {
	return &EngineService{
		splitter:    splitter,
		cache:       cache,
		embedder:    embedder,
		store:       store,
		metaStore:   metaStore,
		retriever:   NewRetriever(store),
		synthesizer: NewSynthesizer(),
		cfg:         cfg.withDefaults(),
	}
}

// Ingest chunks, embeds and indexes text under documentID. It is
// synchronous and never returns a pipeline error: failures resolve to
// a failed Document. The only error return is ErrConflict when the
// same document ID is already being ingested.
func (s *EngineService) Ingest(ctx context.Context, documentID, filename, text string, fileSize int64) (*domain.Document, error) {
	logger.Section("Document Ingestion")
	logger.Debug("Ingesting %q as document %s (%d bytes)", filename, documentID, fileSize)

	if err := s.beginIngest(ctx, documentID); err != nil {
		return nil, err
	}
	defer s.endIngest(documentID)

	doc := domain.Document{
		ID:         documentID,
		Filename:   filename,
		Status:     domain.StatusProcessing,
		FileSize:   fileSize,
		UploadedAt: time.Now(),
	}
	if err := s.saveDocument(ctx, doc); err != nil {
		return s.failDocument(ctx, doc, err), nil
	}

	chunks, err := s.splitter.Split(text)
	if err != nil {
		return s.failDocument(ctx, doc, err), nil
	}
	logger.Debug("Split into %d chunks", len(chunks))

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return s.failDocument(ctx, doc, err), nil
	}

	records := make([]driven.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = driven.Record{
			Vector: vectors[i],
			Text:   chunk.Text,
			Metadata: map[string]any{
				"document_id": documentID,
				"filename":    filename,
				"chunk_index": chunk.Index,
				"file_size":   fileSize,
				"text_length": chunk.Size,
			},
		}
	}

	if _, err := s.store.Insert(ctx, records); err != nil {
		return s.failDocument(ctx, doc, err), nil
	}

	doc.Status = domain.StatusCompleted
	doc.ChunkCount = len(chunks)
	if err := s.saveDocument(ctx, doc); err != nil {
		return s.failDocument(ctx, doc, err), nil
	}

	logger.Info("Indexed %q: %d chunks", filename, len(chunks))
	return &doc, nil
}

// beginIngest claims documentID for a single ingestion pipeline.
func (s *EngineService) beginIngest(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, active := s.inflight[documentID]; active {
		return fmt.Errorf("%w: %s", domain.ErrConflict, documentID)
	}

	// A persisted processing record from another process counts too.
	docs, err := s.metaStore.Load(ctx)
	if err == nil {
		if existing, ok := docs[documentID]; ok && existing.Status == domain.StatusProcessing {
			return fmt.Errorf("%w: %s", domain.ErrConflict, documentID)
		}
	}

	if s.inflight == nil {
		s.inflight = make(map[string]struct{})
	}
	s.inflight[documentID] = struct{}{}
	return nil
}

func (s *EngineService) endIngest(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, documentID)
}

// embedChunks produces one vector per chunk, cache first, misses in
// bounded-parallel batches. Result order matches chunk order.
func (s *EngineService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	var missIdx []int
	for i, chunk := range chunks {
		if vec, ok := s.cache.Get(chunk.Text); ok {
			vectors[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
	}
	logger.Debug("Embedding cache: %d hits, %d misses", len(chunks)-len(missIdx), len(missIdx))

	if len(missIdx) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedWorkers)

	var mu sync.Mutex
	for start := 0; start < len(missIdx); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(missIdx) {
			end = len(missIdx)
		}
		batch := missIdx[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, idx := range batch {
				texts[i] = chunks[idx].Text
			}

			embedded, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch: %w", err)
			}
			if len(embedded) != len(texts) {
				return fmt.Errorf("embed batch: got %d vectors for %d texts", len(embedded), len(texts))
			}

			mu.Lock()
			defer mu.Unlock()
			for i, idx := range batch {
				vectors[idx] = embedded[i]
				s.cache.Put(texts[i], embedded[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// failDocument records the failure cause on the lifecycle record.
// The write is best-effort; the failed document is returned either way.
func (s *EngineService) failDocument(ctx context.Context, doc domain.Document, cause error) *domain.Document {
	logger.Warn("Ingestion of %q failed: %v", doc.Filename, cause)
	doc.Status = domain.StatusFailed
	doc.ChunkCount = 0
	doc.ErrorMessage = cause.Error()
	if err := s.saveDocument(ctx, doc); err != nil {
		logger.Warn("Could not persist failure for document %s: %v", doc.ID, err)
	}
	return &doc
}

// saveDocument merges doc into the persisted snapshot.
func (s *EngineService) saveDocument(ctx context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.metaStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}
	docs[doc.ID] = doc
	if err := s.metaStore.Save(ctx, docs); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

// Ask answers a question from indexed content, optionally restricted
// to one document.
func (s *EngineService) Ask(ctx context.Context, question, documentID string, maxChunks int) (*domain.Answer, error) {
	logger.Section("Question Answering")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidArgument)
	}
	if maxChunks <= 0 {
		maxChunks = s.cfg.MaxChunks
	}
	logger.Debug("Question: %q (max chunks %d, document %q)", question, maxChunks, documentID)

	vector, err := s.embedQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	scored, err := s.retriever.Retrieve(ctx, vector, maxChunks, documentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("Retrieved %d chunks", len(scored))

	answer := s.synthesizer.Synthesize(question, scored)
	logger.Info("Answered with %d sources (confidence %.2f)", len(answer.Sources), answer.Confidence)
	return answer, nil
}

// embedQuestion embeds a question through the cache. Repeated
// questions skip the embedding service entirely.
func (s *EngineService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	if vec, ok := s.cache.Get(question); ok {
		logger.Debug("Question embedding served from cache")
		return vec, nil
	}
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	s.cache.Put(question, vec)
	return vec, nil
}

// ListDocuments merges vector store aggregation with lifecycle
// metadata. Documents with records but no lifecycle entry report
// status "unknown".
func (s *EngineService) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	aggregates, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	meta, err := s.metaStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	summaries := make([]domain.DocumentSummary, 0, len(aggregates))
	for _, agg := range aggregates {
		summary := domain.DocumentSummary{
			DocumentID: agg.DocumentID,
			Filename:   agg.Filename,
			ChunkCount: agg.ChunkCount,
			FileSize:   agg.FileSize,
			Status:     "unknown",
		}

		if doc, ok := meta[agg.DocumentID]; ok {
			if summary.Filename == "" {
				summary.Filename = doc.Filename
			}
			if summary.FileSize == 0 {
				summary.FileSize = doc.FileSize
			}
			summary.Status = string(doc.Status)
			summary.UploadedAt = doc.UploadedAt
		}
		if summary.Filename == "" {
			summary.Filename = "Unknown"
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetDocument returns the lifecycle record for a document.
func (s *EngineService) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	docs, err := s.metaStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	doc, ok := docs[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	return &doc, nil
}

// DeleteDocument removes a document from both stores. Each side is
// attempted regardless of the other; a one-sided failure comes back as
// a *domain.PartialDeleteError.
func (s *EngineService) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	deleted, vecErr := s.store.DeleteByFilter(ctx, driven.Filter{"document_id": documentID})
	removedRecords := vecErr == nil && deleted > 0

	metaErr := s.removeDocument(ctx, documentID)

	switch {
	case vecErr != nil && metaErr != nil:
		return false, fmt.Errorf("delete document %s: %w", documentID, vecErr)
	case vecErr != nil:
		return false, domain.NewPartialDeleteError(documentID, "vector", vecErr)
	case metaErr != nil:
		return removedRecords, domain.NewPartialDeleteError(documentID, "metadata", metaErr)
	}

	logger.Info("Deleted document %s (%d records)", documentID, deleted)
	return removedRecords, nil
}

func (s *EngineService) removeDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.metaStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}
	if _, ok := docs[documentID]; !ok {
		return nil
	}
	delete(docs, documentID)
	if err := s.metaStore.Save(ctx, docs); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

// Stats returns engine-wide counters.
func (s *EngineService) Stats(ctx context.Context) (*domain.EngineStats, error) {
	storeStats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}

	docs, err := s.metaStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	return &domain.EngineStats{
		TotalDocuments:     len(docs),
		TotalChunks:        storeStats.TotalChunks,
		EmbeddingModel:     s.embedder.ModelName(),
		EmbeddingDimension: s.embedder.Dimensions(),
		StorePath:          s.cfg.StorePath,
	}, nil
}

// Reset destroys all indexed records, lifecycle state and cached
// embeddings.
func (s *EngineService) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	s.mu.Lock()
	err := s.metaStore.Save(ctx, map[string]domain.Document{})
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("reset metadata: %w", err)
	}

	s.cache.Clear()
	logger.Info("Engine reset: all documents and cached embeddings removed")
	return nil
}
