package domain

// QuestionCategory is the closed set of question shapes the synthesizer
// recognises. Classification is a first-match scan in declaration order,
// so the order here is a deliberate priority, not incidental.
type QuestionCategory string

const (
	CategoryName       QuestionCategory = "name"
	CategoryExperience QuestionCategory = "experience"
	CategorySkill      QuestionCategory = "skill"
	CategoryEducation  QuestionCategory = "education"
	CategoryContact    QuestionCategory = "contact"
	CategoryGeneral    QuestionCategory = "general"
)

// Answer is the synthesized response to a question.
type Answer struct {
	// Text is the answer string.
	Text string `json:"answer"`

	// Confidence is in [0, 1]. It is derived from retrieval similarity
	// alone; extractor success does not feed into it.
	Confidence float64 `json:"confidence"`

	// Category is the question classification that drove extraction.
	Category QuestionCategory `json:"category"`

	// Sources lists the chunks the answer drew from.
	Sources []Source `json:"sources"`
}

// Source points back at a retrieved chunk backing an answer.
type Source struct {
	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int `json:"chunk_index"`

	// Content is an excerpt of the chunk text, capped at 200 characters.
	Content string `json:"content"`

	// Similarity is the normalized retrieval score.
	Similarity float64 `json:"similarity"`

	// Filename is the originating document's filename.
	Filename string `json:"filename"`

	// DocumentID is the originating document.
	DocumentID string `json:"document_id"`
}
