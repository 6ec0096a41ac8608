package driven

import (
	"context"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
)

// MetadataStore durably persists document lifecycle records.
//
// The contract is full-snapshot: Load returns the entire mapping and
// Save replaces it wholesale, last writer wins. The engine must not
// assume any particular storage format underneath.
type MetadataStore interface {
	// Load reads the full document mapping. A store that has never been
	// written returns an empty map, not an error.
	Load(ctx context.Context) (map[string]domain.Document, error)

	// Save replaces the full document mapping.
	Save(ctx context.Context, docs map[string]domain.Document) error
}
