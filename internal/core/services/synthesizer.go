package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
)

// NoInformationAnswer is returned when retrieval produces nothing.
const NoInformationAnswer = "I couldn't find any relevant information to answer your question."

// topChunksForAnswer is how many retrieved chunks feed extraction.
const topChunksForAnswer = 3

// Answer text truncation budgets, in characters.
const (
	excerptBudget = 200
	contextBudget = 300
)

// categoryKeywords maps each question category to its trigger words.
// classify scans them in categoryOrder and takes the first match, so
// "who do I contact" classifies as name, not contact.
var categoryKeywords = map[domain.QuestionCategory][]string{
	domain.CategoryName:       {"name", "who"},
	domain.CategoryExperience: {"experience", "work", "job", "position"},
	domain.CategorySkill:      {"skill", "technology", "technical"},
	domain.CategoryEducation:  {"education", "degree", "university", "college"},
	domain.CategoryContact:    {"contact", "email", "phone", "address"},
}

var categoryOrder = []domain.QuestionCategory{
	domain.CategoryName,
	domain.CategoryExperience,
	domain.CategorySkill,
	domain.CategoryEducation,
	domain.CategoryContact,
}

var (
	spacedHeaderRe = regexp.MustCompile(`^[A-Z]\s+[A-Z]\s+[A-Z]`)
	spacedNameRe   = regexp.MustCompile(`^([A-Z]\s+)+[A-Z]`)
	emailLocalRe   = regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+)@[a-zA-Z0-9.-]+\.[A-Za-z]{2,}\b`)
	emailRe        = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe        = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})\b`)
	namePairRe     = regexp.MustCompile(`\b[A-Z][a-z]{2,}\s+[A-Z][a-z]{2,}\b`)
	yearRe         = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// nameStoplist filters document-structure words out of candidate name
// pairs. These are section headers, not people.
var nameStoplist = []string{
	"FRONTEND", "DEVELOPER", "PROFILE", "CONTACT", "EDUCATION", "EXPERIENCE",
	"SKILLS", "PROJECT", "COLLEGE", "SCHOOL", "COMPANY", "GMAIL", "YAHOO",
}

var roleKeywords = []string{
	"developer", "engineer", "manager", "analyst", "consultant",
	"specialist", "coordinator", "director", "lead", "senior",
}

var techKeywords = []string{
	"python", "java", "javascript", "react", "node", "sql", "aws",
	"docker", "kubernetes", "git", "linux", "mongodb", "postgresql",
	"html", "css", "angular", "vue", "django", "flask", "spring",
}

var educationKeywords = []string{
	"university", "college", "degree", "bachelor", "master", "phd",
	"graduation", "graduated", "school", "education",
}

// Synthesizer produces heuristic answers from retrieved chunks without
// an LLM. It classifies the question, runs a category-specific
// extractor over the best chunks, and scores confidence from retrieval
// similarity alone.
type Synthesizer struct{}

// NewSynthesizer creates a new answer synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize builds an answer from the question and its retrieved
// chunks. Empty input yields the fixed no-information answer with
// confidence 0.
func (s *Synthesizer) Synthesize(question string, scored []domain.ScoredChunk) *domain.Answer {
	if len(scored) == 0 {
		return &domain.Answer{
			Text:       NoInformationAnswer,
			Confidence: 0.0,
			Category:   domain.CategoryGeneral,
			Sources:    []domain.Source{},
		}
	}

	top := topBySimilarity(scored, topChunksForAnswer)

	texts := make([]string, len(top))
	for i, c := range top {
		texts[i] = c.Text
	}
	combined := strings.Join(texts, " ")

	category := classify(question)

	var text string
	switch category {
	case domain.CategoryName:
		text = extractName(combined)
	case domain.CategoryExperience:
		text = extractExperience(combined)
	case domain.CategorySkill:
		text = extractSkills(combined)
	case domain.CategoryEducation:
		text = extractEducation(combined)
	case domain.CategoryContact:
		text = extractContact(combined)
	default:
		text = generalAnswer(question, top[0].Text)
	}

	return &domain.Answer{
		Text:       text,
		Confidence: confidence(scored),
		Category:   category,
		Sources:    buildSources(scored),
	}
}

// classify picks the question category by first keyword match in
// priority order.
func classify(question string) domain.QuestionCategory {
	lower := strings.ToLower(question)
	for _, category := range categoryOrder {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lower, keyword) {
				return category
			}
		}
	}
	return domain.CategoryGeneral
}

// confidence averages the similarity of every retrieved chunk and
// scales up slightly, capped at 1.0. Extraction quality does not feed
// in; the score reflects how close the retrieved material was.
func confidence(scored []domain.ScoredChunk) float64 {
	var sum float64
	for _, c := range scored {
		sum += c.Similarity
	}
	avg := sum / float64(len(scored))
	conf := avg * 1.2
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

// topBySimilarity returns the n highest-similarity chunks, ties kept
// in retrieval order.
func topBySimilarity(scored []domain.ScoredChunk, n int) []domain.ScoredChunk {
	sorted := make([]domain.ScoredChunk, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// buildSources converts every retrieved chunk into a source reference
// with a capped excerpt.
func buildSources(scored []domain.ScoredChunk) []domain.Source {
	sources := make([]domain.Source, 0, len(scored))
	for _, c := range scored {
		sources = append(sources, domain.Source{
			ChunkIndex: chunkIndex(c.Metadata),
			Content:    truncate(c.Text, excerptBudget),
			Similarity: c.Similarity,
			Filename:   c.Filename(),
			DocumentID: c.DocumentID(),
		})
	}
	return sources
}

// extractName looks for a person's name: spaced-capital header lines
// first, then email local parts, then capitalised word pairs near the
// start of the text.
func extractName(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !spacedHeaderRe.MatchString(trimmed) {
			continue
		}
		match := spacedNameRe.FindString(trimmed)
		if match == "" {
			continue
		}
		clean := strings.ReplaceAll(match, " ", "")
		if len(clean) > 6 {
			// Headers like "J A N E D O E" collapse to one run of
			// letters; split at the midpoint as a best guess.
			mid := len(clean) / 2
			return fmt.Sprintf("The person's name is %s %s.", clean[:mid], clean[mid:])
		}
		return fmt.Sprintf("The person's name is %s.", clean)
	}

	if m := emailLocalRe.FindStringSubmatch(content); m != nil {
		local := m[1]
		if strings.ContainsFunc(local, isASCIILetter) {
			name := strings.NewReplacer(".", " ", "_", " ").Replace(local)
			return fmt.Sprintf("Based on the email address, the person might be %s.", titleCase(name))
		}
	}

	head := truncateRaw(content, contextBudget)
	for _, pair := range namePairRe.FindAllString(head, -1) {
		if !inStoplist(pair) {
			return fmt.Sprintf("The person's name appears to be %s.", pair)
		}
	}

	return fmt.Sprintf("I can see this is a resume/profile, but the name format makes it difficult to extract clearly. The document contains: %s", truncate(content, excerptBudget))
}

// extractExperience reports the year range and role keywords found in
// the text.
func extractExperience(content string) string {
	years := yearRe.FindAllString(content, -1)

	lower := strings.ToLower(content)
	var roles []string
	for _, keyword := range roleKeywords {
		if strings.Contains(lower, keyword) {
			roles = append(roles, keyword)
		}
	}

	if len(years) == 0 && len(roles) == 0 {
		return fmt.Sprintf("Regarding work experience: %s", truncate(content, contextBudget))
	}

	var parts []string
	if len(years) > 0 {
		minYear, maxYear := years[0], years[0]
		for _, y := range years[1:] {
			if y < minYear {
				minYear = y
			}
			if y > maxYear {
				maxYear = y
			}
		}
		parts = append(parts, fmt.Sprintf("Experience spanning years %s-%s", minYear, maxYear))
	}
	if len(roles) > 0 {
		parts = append(parts, fmt.Sprintf("Roles include: %s", strings.Join(roles, ", ")))
	}

	return fmt.Sprintf("Work experience information: %s. Details: %s", strings.Join(parts, ". "), truncate(content, excerptBudget))
}

// extractSkills lists known technology keywords present in the text.
func extractSkills(content string) string {
	lower := strings.ToLower(content)
	var found []string
	for _, skill := range techKeywords {
		if strings.Contains(lower, skill) {
			found = append(found, titleCase(skill))
		}
	}

	if len(found) > 0 {
		return fmt.Sprintf("Technical skills mentioned: %s. Additional details: %s", strings.Join(found, ", "), truncate(content, excerptBudget))
	}
	return fmt.Sprintf("Skills and technologies: %s", truncate(content, contextBudget))
}

// extractEducation gates on education vocabulary being present at all.
func extractEducation(content string) string {
	lower := strings.ToLower(content)
	for _, keyword := range educationKeywords {
		if strings.Contains(lower, keyword) {
			return fmt.Sprintf("Educational background: %s", truncate(content, contextBudget))
		}
	}
	return fmt.Sprintf("Regarding education: %s", truncate(content, contextBudget))
}

// extractContact pulls the first email address and first North
// American phone number out of the text.
func extractContact(content string) string {
	var parts []string
	if email := emailRe.FindString(content); email != "" {
		parts = append(parts, fmt.Sprintf("Email: %s", email))
	}
	if m := phoneRe.FindStringSubmatch(content); m != nil {
		parts = append(parts, fmt.Sprintf("Phone: (%s) %s-%s", m[1], m[2], m[3]))
	}

	if len(parts) > 0 {
		return fmt.Sprintf("Contact information: %s.", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("Contact details from document: %s", truncate(content, excerptBudget))
}

// generalAnswer wraps the single best chunk in a lead-in matched to
// the question word.
func generalAnswer(question, bestContent string) string {
	lower := strings.ToLower(question)
	switch {
	case strings.Contains(lower, "what"):
		return fmt.Sprintf("According to the document: %s", bestContent)
	case strings.Contains(lower, "how"):
		return fmt.Sprintf("The document explains: %s", bestContent)
	case strings.Contains(lower, "why"):
		return fmt.Sprintf("The document indicates: %s", bestContent)
	default:
		return fmt.Sprintf("Based on the document: %s", bestContent)
	}
}

func inStoplist(candidate string) bool {
	upper := strings.ToUpper(candidate)
	for _, word := range nameStoplist {
		if strings.Contains(upper, word) {
			return true
		}
	}
	return false
}

// truncate caps s at n characters and marks the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// truncateRaw caps s at n characters without an ellipsis marker.
func truncateRaw(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// chunkIndex reads chunk_index out of record metadata, tolerating the
// numeric type drift JSON round-trips introduce.
func chunkIndex(metadata map[string]any) int {
	switch v := metadata["chunk_index"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
