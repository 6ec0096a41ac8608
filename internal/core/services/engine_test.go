package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/embedding/hashing"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/lumina-labs/askdoc-cli/internal/chunker"
	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/embedcache"
)

// --- Mock implementations ---

// mockMetaStore implements driven.MetadataStore in memory with
// injectable failures.
type mockMetaStore struct {
	mu      sync.Mutex
	docs    map[string]domain.Document
	loadErr error
	saveErr error
}

func newMockMetaStore() *mockMetaStore {
	return &mockMetaStore{docs: make(map[string]domain.Document)}
}

func (m *mockMetaStore) Load(_ context.Context) (map[string]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]domain.Document, len(m.docs))
	for k, v := range m.docs {
		out[k] = v
	}
	return out, nil
}

func (m *mockMetaStore) Save(_ context.Context, docs map[string]domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs = make(map[string]domain.Document, len(docs))
	for k, v := range docs {
		m.docs[k] = v
	}
	return nil
}

func (m *mockMetaStore) get(id string) (domain.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	return doc, ok
}

// mockEmbedder wraps the hashing embedder with call counting and
// injectable failures.
type mockEmbedder struct {
	inner *hashing.EmbeddingService

	mu         sync.Mutex
	embedCalls int
	batchCalls int
	embedErr   error
	batchErr   error
	gate       chan struct{} // when set, EmbedBatch blocks until closed
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{inner: hashing.NewEmbeddingService(dims)}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	err := m.embedErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.inner.Embed(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	err := m.batchErr
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return m.inner.EmbedBatch(ctx, texts)
}

func (m *mockEmbedder) Dimensions() int   { return m.inner.Dimensions() }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }
func (m *mockEmbedder) Close() error      { return nil }

// --- Test fixtures ---

type engineFixture struct {
	engine   *EngineService
	store    *memory.Store
	meta     *mockMetaStore
	embedder *mockEmbedder
	cache    *embedcache.Cache
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	store, err := memory.NewStore(64)
	require.NoError(t, err)

	meta := newMockMetaStore()
	embedder := newMockEmbedder(64)
	cache := embedcache.New(100)

	engine := NewEngineService(
		chunker.New(chunker.WithMaxSize(80), chunker.WithOverlap(20)),
		cache,
		embedder,
		store,
		meta,
		EngineConfig{StorePath: "/tmp/askdoc-test"},
	)

	return &engineFixture{engine: engine, store: store, meta: meta, embedder: embedder, cache: cache}
}

const sampleText = `J O H N S M I T H
Senior software engineer with ten years of experience.

Worked as a developer at Acme from 2015 to 2021, building
services in Python and Go, deployed with Docker on AWS.

Contact: john.smith@example.com, 555-123-4567.
Bachelor of Science, State University, graduated 2014.`

// --- Ingest ---

func TestIngestHappyPath(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	doc, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, int64(len(sampleText)))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Greater(t, doc.ChunkCount, 1)
	assert.Empty(t, doc.ErrorMessage)
	assert.False(t, doc.UploadedAt.IsZero())

	stats, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.ChunkCount, stats.TotalChunks)
	assert.Equal(t, 1, stats.TotalDocuments)

	persisted, ok := f.meta.get("doc-1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, persisted.Status)

	// Chunk embeddings were cached on the way through.
	assert.Greater(t, f.cache.Len(), 0)
}

func TestIngestEmptyTextFailsDocument(t *testing.T) {
	f := newEngineFixture(t)

	doc, err := f.engine.Ingest(context.Background(), "doc-1", "empty.txt", "   \n", 4)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.NotEmpty(t, doc.ErrorMessage)

	persisted, ok := f.meta.get("doc-1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusFailed, persisted.Status)
}

func TestIngestEmbedFailureLeavesStoreEmpty(t *testing.T) {
	f := newEngineFixture(t)
	f.embedder.batchErr = errors.New("embedding backend down")
	ctx := context.Background()

	doc, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 10)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "embedding backend down")

	stats, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChunks)
}

func TestIngestConflictPersistedProcessing(t *testing.T) {
	f := newEngineFixture(t)
	f.meta.docs["doc-1"] = domain.Document{ID: "doc-1", Status: domain.StatusProcessing}

	_, err := f.engine.Ingest(context.Background(), "doc-1", "resume.txt", sampleText, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestIngestConflictInFlight(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.embedder.mu.Lock()
	f.embedder.gate = gate
	f.embedder.mu.Unlock()

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 10)
		assert.NoError(t, err)
		close(done)
	}()

	<-started
	// Wait until the first ingest is actually blocked in embedding.
	for {
		f.embedder.mu.Lock()
		calls := f.embedder.batchCalls
		f.embedder.mu.Unlock()
		if calls > 0 {
			break
		}
	}

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 10)
	assert.ErrorIs(t, err, domain.ErrConflict)

	close(gate)
	<-done

	// Once the first ingest finishes the ID is free again.
	f.embedder.mu.Lock()
	f.embedder.gate = nil
	f.embedder.mu.Unlock()
	_, err = f.engine.Ingest(ctx, "doc-2", "other.txt", sampleText, 10)
	assert.NoError(t, err)
}

func TestIngestReingestAfterCompletion(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 10)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, first.Status)

	// Completed is terminal but a fresh ingest under the same ID is
	// allowed once the first finished.
	second, err := f.engine.Ingest(ctx, "doc-1", "resume-v2.txt", sampleText, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, second.Status)
}

// --- Ask ---

func TestAskBlankQuestion(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Ask(context.Background(), "   ", "", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAskEmptyCorpus(t *testing.T) {
	f := newEngineFixture(t)

	answer, err := f.engine.Ask(context.Background(), "what is this about?", "", 5)
	require.NoError(t, err)

	assert.Equal(t, NoInformationAnswer, answer.Text)
	assert.Equal(t, 0.0, answer.Confidence)
	assert.Empty(t, answer.Sources)
}

func TestAskReturnsAnswerWithSources(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	doc, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 10)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, doc.Status)

	answer, err := f.engine.Ask(ctx, "what technical skills are mentioned?", "", 5)
	require.NoError(t, err)

	assert.Equal(t, domain.CategorySkill, answer.Category)
	assert.NotEmpty(t, answer.Sources)
	assert.Greater(t, answer.Confidence, 0.0)
	for _, src := range answer.Sources {
		assert.Equal(t, "doc-1", src.DocumentID)
		assert.Equal(t, "resume.txt", src.Filename)
	}
}

func TestAskDocumentFilter(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "a.txt", "Go services and Docker deployments everywhere.", 10)
	require.NoError(t, err)
	_, err = f.engine.Ingest(ctx, "doc-2", "b.txt", "Gardening tips for growing tomatoes in clay soil.", 10)
	require.NoError(t, err)

	answer, err := f.engine.Ask(ctx, "tell me about the content", "doc-2", 5)
	require.NoError(t, err)

	require.NotEmpty(t, answer.Sources)
	for _, src := range answer.Sources {
		assert.Equal(t, "doc-2", src.DocumentID)
	}
}

func TestAskQuestionEmbeddingCached(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 10)
	require.NoError(t, err)

	_, err = f.engine.Ask(ctx, "what skills are listed?", "", 5)
	require.NoError(t, err)
	_, err = f.engine.Ask(ctx, "what skills are listed?", "", 5)
	require.NoError(t, err)

	f.embedder.mu.Lock()
	defer f.embedder.mu.Unlock()
	assert.Equal(t, 1, f.embedder.embedCalls)
}

// --- Document management ---

func TestListDocumentsMergesMetadata(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 42)
	require.NoError(t, err)

	summaries, err := f.engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "doc-1", s.DocumentID)
	assert.Equal(t, "resume.txt", s.Filename)
	assert.Equal(t, string(domain.StatusCompleted), s.Status)
	assert.Greater(t, s.ChunkCount, 0)
	assert.False(t, s.UploadedAt.IsZero())
}

func TestListDocumentsUnknownStatusWithoutMetadata(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 42)
	require.NoError(t, err)

	// Lose the lifecycle record; the vector records remain.
	require.NoError(t, f.meta.Save(ctx, map[string]domain.Document{}))

	summaries, err := f.engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "unknown", summaries[0].Status)
	assert.Equal(t, "resume.txt", summaries[0].Filename)
}

func TestGetDocument(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 42)
	require.NoError(t, err)

	doc, err := f.engine.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "resume.txt", doc.Filename)

	_, err = f.engine.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteDocument(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 42)
	require.NoError(t, err)

	removed, err := f.engine.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok := f.meta.get("doc-1")
	assert.False(t, ok)

	stats, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChunks)

	// Deleting again finds nothing on either side.
	removed, err = f.engine.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDeleteDocumentPartialFailure(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 42)
	require.NoError(t, err)

	f.meta.saveErr = errors.New("disk full")

	removed, err := f.engine.DeleteDocument(ctx, "doc-1")
	require.Error(t, err)

	var partial *domain.PartialDeleteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "doc-1", partial.DocumentID)
	assert.Equal(t, "metadata", partial.Side)

	// The vector side went through.
	assert.True(t, removed)
	stats, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChunks)
}

func TestStats(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 42)
	require.NoError(t, err)

	stats, err := f.engine.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Greater(t, stats.TotalChunks, 0)
	assert.Equal(t, "mock-embedder", stats.EmbeddingModel)
	assert.Equal(t, 64, stats.EmbeddingDimension)
	assert.Equal(t, "/tmp/askdoc-test", stats.StorePath)
}

func TestReset(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ingest(ctx, "doc-1", "resume.txt", sampleText, 42)
	require.NoError(t, err)
	require.Greater(t, f.cache.Len(), 0)

	require.NoError(t, f.engine.Reset(ctx))

	stats, err := f.engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.Equal(t, 0, stats.TotalChunks)
	assert.Equal(t, 0, f.cache.Len())
}

func TestFailedDocumentErrorMessageVerbatim(t *testing.T) {
	f := newEngineFixture(t)
	f.embedder.batchErr = errors.New("quota exceeded")

	doc, err := f.engine.Ingest(context.Background(), "doc-1", "resume.txt", sampleText, 10)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.True(t, strings.Contains(doc.ErrorMessage, "quota exceeded"))
}
