// Package domain defines the core business entities for Askdoc.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded document and its processing lifecycle
//   - Chunk: A bounded slice of document text, the unit of embedding
//   - ScoredChunk: A retrieved chunk with its similarity score
//   - Answer: A synthesized answer with a confidence estimate
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
