// Package plaintext provides a text extractor for plain text and
// markdown files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads text content straight from disk. It handles the
// formats where the bytes already are the text.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the file extensions this extractor
// handles, lowercase with leading dot.
func (e *Extractor) SupportedExtensions() []string {
	return []string{
		".txt",
		".md",
		".markdown",
		".csv",
		".log",
		".json",
		".yaml",
		".yml",
		".toml",
		".xml",
		".html",
	}
}

// Supports reports whether the extractor can handle the given path.
func (e *Extractor) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range e.SupportedExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}

// Extract reads the file at path and returns its text content.
// Unreadable files, binary content, and files with no extractable
// text all return ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, filepath.Base(path), err)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrExtraction, filepath.Base(path))
	}

	// Normalise line endings so chunk boundaries are stable across
	// platforms.
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s contains no extractable text", domain.ErrExtraction, filepath.Base(path))
	}

	return text, nil
}
