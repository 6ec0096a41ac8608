package driving

import (
	"context"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
)

// EngineService is the knowledge-answering engine exposed to the
// surrounding API layer.
type EngineService interface {
	// Ingest chunks, embeds and indexes text under documentID and tracks
	// the document's lifecycle. It is synchronous; the caller decides
	// whether to run it in the background. A second Ingest for the same
	// documentID while the first is still processing fails with
	// domain.ErrConflict. Pipeline failures resolve to a failed Document,
	// never an error return, except for the conflict case.
	Ingest(ctx context.Context, documentID, filename, text string, fileSize int64) (*domain.Document, error)

	// Ask answers a question from indexed content, optionally restricted
	// to one document. maxChunks <= 0 uses the configured default.
	// "No relevant content" is a valid answer with confidence 0.0,
	// not an error.
	Ask(ctx context.Context, question, documentID string, maxChunks int) (*domain.Answer, error)

	// ListDocuments returns summaries of all indexed documents.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// GetDocument returns the lifecycle record for a document,
	// or domain.ErrNotFound.
	GetDocument(ctx context.Context, documentID string) (*domain.Document, error)

	// DeleteDocument removes a document and all its vector records.
	// Deletion is best-effort across the two stores; partial failure is
	// surfaced as a *domain.PartialDeleteError. The bool reports whether
	// any vector records were removed.
	DeleteDocument(ctx context.Context, documentID string) (bool, error)

	// Stats returns engine-wide counters.
	Stats(ctx context.Context) (*domain.EngineStats, error)

	// Reset destroys all indexed records and lifecycle state.
	Reset(ctx context.Context) error
}
