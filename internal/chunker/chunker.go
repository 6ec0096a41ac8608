// Package chunker splits document text into overlapping chunks.
//
// Splitting is recursive-greedy over a priority list of separators from
// coarsest to finest (paragraph break, line break, word boundary,
// character): the coarsest separator present in the text is used first,
// any piece still larger than the maximum size is re-split with the
// finer separators, and adjacent small pieces are merged back together
// up to the maximum size, carrying a configurable overlap of trailing
// context into the next chunk.
package chunker

import (
	"strings"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
)

// DefaultMaxSize is the default number of characters per chunk.
const DefaultMaxSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// separators is the fixed priority list, coarsest first. The empty
// string means per-character splitting, the last resort.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter splits text into overlapping chunks. Splitting is
// deterministic: identical input and configuration always produce
// identical chunks.
type Splitter struct {
	maxSize int
	overlap int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithMaxSize sets the maximum chunk size in characters.
func WithMaxSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		maxSize: DefaultMaxSize,
		overlap: DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap stays below the chunk size
	if s.overlap >= s.maxSize {
		s.overlap = s.maxSize / 4
	}

	return s
}

// Split chunks text. Whitespace-only input fails with domain.ErrEmptyInput.
// Every chunk's length stays within the maximum size unless a single
// indivisible unit exceeds it.
func (s *Splitter) Split(text string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	pieces := s.splitRecursive(text, separators)

	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Text:  trimmed,
			Index: len(chunks),
			Size:  charLen(trimmed),
		})
	}

	for i := range chunks {
		chunks[i].SiblingCount = len(chunks)
	}

	return chunks, nil
}

// splitRecursive splits text on the coarsest separator present, re-splits
// oversized pieces with the finer separators, and merges the rest.
func (s *Splitter) splitRecursive(text string, seps []string) []string {
	separator := seps[len(seps)-1]
	var finer []string
	for i, sep := range seps {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			finer = seps[i+1:]
			break
		}
	}

	splits := splitOn(text, separator)

	var result []string
	var small []string
	for _, piece := range splits {
		if charLen(piece) < s.maxSize {
			small = append(small, piece)
			continue
		}

		// Flush accumulated small pieces before descending.
		if len(small) > 0 {
			result = append(result, s.merge(small, separator)...)
			small = nil
		}

		if len(finer) == 0 {
			// Indivisible unit larger than maxSize.
			result = append(result, piece)
		} else {
			result = append(result, s.splitRecursive(piece, finer)...)
		}
	}

	if len(small) > 0 {
		result = append(result, s.merge(small, separator)...)
	}

	return result
}

// merge greedily joins pieces into chunks of up to maxSize characters,
// re-seeding each new chunk with up to overlap characters of trailing
// context from the previous one.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := charLen(separator)

	var merged []string
	var window []string
	total := 0

	for _, piece := range pieces {
		pieceLen := charLen(piece)

		if len(window) > 0 && total+pieceLen+sepLen > s.maxSize {
			if joined := strings.TrimSpace(strings.Join(window, separator)); joined != "" {
				merged = append(merged, joined)
			}

			// Drop leading pieces until what remains fits as overlap.
			for total > s.overlap || (total+pieceLen+sepLen > s.maxSize && total > 0) {
				total -= charLen(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}

		window = append(window, piece)
		total += pieceLen
		if len(window) > 1 {
			total += sepLen
		}
	}

	if joined := strings.TrimSpace(strings.Join(window, separator)); joined != "" {
		merged = append(merged, joined)
	}

	return merged
}

// splitOn splits text on separator; the empty separator splits into
// individual characters.
func splitOn(text, separator string) []string {
	if separator == "" {
		runes := []rune(text)
		out := make([]string, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out
	}

	parts := strings.Split(text, separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// charLen counts characters, not bytes.
func charLen(s string) int {
	return len([]rune(s))
}
