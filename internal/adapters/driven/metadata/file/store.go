// Package file provides a JSON-file implementation of driven.MetadataStore.
//
// The whole document mapping is written as one snapshot; writes go to a
// temporary file first and are renamed into place so readers never see a
// torn file. Last writer wins.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.MetadataStore = (*Store)(nil)

// DefaultFilename is the snapshot file name inside the data directory.
const DefaultFilename = "documents.json"

// Store persists document lifecycle records as a single JSON file.
type Store struct {
	mu       sync.Mutex
	filePath string
}

// NewStore creates a metadata store under dataDir. If dataDir is empty,
// defaults to ~/.askdoc/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askdoc", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{filePath: filepath.Join(dataDir, DefaultFilename)}, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the full document mapping. A missing file yields an empty map.
func (s *Store) Load(_ context.Context) (map[string]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]domain.Document{}, nil
		}
		return nil, fmt.Errorf("reading metadata snapshot: %w", err)
	}

	docs := make(map[string]domain.Document)
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata snapshot: %w", err)
	}
	return docs, nil
}

// Save replaces the full document mapping.
func (s *Store) Save(_ context.Context, docs map[string]domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metadata snapshot: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing metadata snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("replacing metadata snapshot: %w", err)
	}
	return nil
}
