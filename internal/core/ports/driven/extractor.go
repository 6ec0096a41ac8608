package driven

import "context"

// TextExtractor turns a source file into plain text.
//
// The engine does not care how the text was produced; rich-format
// conversion (PDF, DOCX, HTML) lives behind this port. Unreadable or
// corrupt input fails with domain.ErrExtraction, and empty extracted
// text is treated identically to extraction failure.
type TextExtractor interface {
	// Extract reads the file at path and returns its text content.
	Extract(ctx context.Context, path string) (string, error)
}
