package domain

// Chunk is a contiguous slice of a document's text, the atomic unit
// of embedding and retrieval.
type Chunk struct {
	// Text is the chunk content, trimmed of surrounding whitespace.
	// Never empty.
	Text string

	// Index is the 0-based position among siblings from the same document.
	Index int

	// Size is the character length of Text.
	Size int

	// SiblingCount is the total number of chunks produced from the
	// same document at creation time.
	SiblingCount int
}

// ScoredChunk is a retrieved chunk with its normalized similarity score.
type ScoredChunk struct {
	// RecordID is the vector store record identifier.
	RecordID string

	// Text is the chunk content.
	Text string

	// Metadata is the flat record metadata (document_id, filename,
	// chunk_index, file_size, text_length).
	Metadata map[string]any

	// Distance is the store-native cosine distance in [0, 2].
	Distance float64

	// Similarity is the normalized score in [0, 1], derived from Distance.
	Similarity float64
}

// DocumentID returns the owning document ID from the chunk metadata,
// or "" when absent.
func (c ScoredChunk) DocumentID() string {
	id, _ := c.Metadata["document_id"].(string)
	return id
}

// Filename returns the source filename from the chunk metadata,
// or "unknown" when absent.
func (c ScoredChunk) Filename() string {
	name, _ := c.Metadata["filename"].(string)
	if name == "" {
		return "unknown"
	}
	return name
}
