package domain

import "time"

// DocumentStatus tracks a document through its processing lifecycle.
type DocumentStatus string

const (
	// StatusProcessing means ingestion is in progress.
	StatusProcessing DocumentStatus = "processing"

	// StatusCompleted means all chunks were embedded and indexed.
	StatusCompleted DocumentStatus = "completed"

	// StatusFailed means ingestion aborted; ErrorMessage holds the cause.
	StatusFailed DocumentStatus = "failed"
)

// Valid reports whether s is a known lifecycle status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
// Terminal documents leave the system only by deletion.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Document is the lifecycle record for an uploaded document.
// It is the single source of truth for processing state; the vector
// store owns the indexed chunks but tags each with the DocumentID.
type Document struct {
	// ID is assigned at upload time and stable for the document's lifetime.
	ID string `json:"document_id"`

	// Filename is the original upload filename.
	Filename string `json:"filename"`

	// Status is the current lifecycle state.
	Status DocumentStatus `json:"status"`

	// ChunkCount is the number of chunks indexed for this document.
	// Zero until the document completes.
	ChunkCount int `json:"chunk_count"`

	// FileSize is the size of the uploaded file in bytes.
	FileSize int64 `json:"file_size"`

	// UploadedAt is when ingestion started.
	UploadedAt time.Time `json:"uploaded_at"`

	// ErrorMessage holds the ingestion failure cause, verbatim.
	// Empty unless Status is StatusFailed.
	ErrorMessage string `json:"error_message,omitempty"`
}

// DocumentSummary is the aggregate view of a document produced by
// grouping vector store records by document ID.
type DocumentSummary struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
	FileSize   int64  `json:"file_size"`

	// Status comes from the lifecycle record when one exists,
	// "unknown" otherwise.
	Status string `json:"status"`

	// UploadedAt is zero when no lifecycle record exists.
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
}

// EngineStats are engine-wide counters reported by the stats operation.
type EngineStats struct {
	TotalDocuments     int    `json:"total_documents"`
	TotalChunks        int    `json:"total_chunks"`
	EmbeddingModel     string `json:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	StorePath          string `json:"store_path,omitempty"`
}
