package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/embedding/hashing"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/extractor/plaintext"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/lumina-labs/askdoc-cli/internal/chunker"
	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/core/services"
	"github.com/lumina-labs/askdoc-cli/internal/embedcache"
)

// memMetaStore is a throwaway in-memory metadata store for CLI tests.
type memMetaStore struct {
	mu   sync.Mutex
	docs map[string]domain.Document
}

func (m *memMetaStore) Load(_ context.Context) (map[string]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.Document, len(m.docs))
	for k, v := range m.docs {
		out[k] = v
	}
	return out, nil
}

func (m *memMetaStore) Save(_ context.Context, docs map[string]domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]domain.Document, len(docs))
	for k, v := range docs {
		m.docs[k] = v
	}
	return nil
}

// setupTestServices wires a fully in-memory engine behind the commands
// and returns a cleanup that restores the previous services.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	store, err := memory.NewStore(64)
	require.NoError(t, err)

	engine := services.NewEngineService(
		chunker.New(chunker.WithMaxSize(120), chunker.WithOverlap(20)),
		embedcache.New(100),
		hashing.NewEmbeddingService(64),
		store,
		&memMetaStore{docs: make(map[string]domain.Document)},
		services.EngineConfig{},
	)

	oldEngine := engineService
	oldExtractor := extractorService
	SetServices(engine, plaintext.New())

	return func() {
		SetServices(oldEngine, oldExtractor)
	}
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// writeTestFile drops a text file into a temp dir and returns its path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
