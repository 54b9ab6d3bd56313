package domain

// Document is a source text as read from disk. It is immutable once read;
// everything downstream works on chunks derived from it.
type Document struct {
	ID       string            `json:"id"`
	Title    string            `json:"title,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is the atomic retrievable unit produced by chunking. Index is the
// zero-based position of the chunk within its source document; IDs are
// globally unique. Augmentation creates new chunks rather than mutating
// existing ones.
type Chunk struct {
	ID       string            `json:"id"`
	DocID    string            `json:"doc_id"`
	Content  string            `json:"content"`
	Index    int               `json:"index"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Message is a single chat message passed to the generation port.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetrievedCandidate is a chunk plus its cosine similarity against the
// query vector. Produced fresh on every search; never persisted.
type RetrievedCandidate struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// ValidatedCandidate is a retrieved candidate annotated by relevance
// validation: lexical overlap with the question, the combined relevance
// verdict, and an excerpt centered on the first keyword hit.
type ValidatedCandidate struct {
	RetrievedCandidate
	Overlap    float64
	IsRelevant bool
	Excerpt    string
}

// RankedCandidate is a retrieved candidate re-scored by preference rules,
// with one human-readable reason per applied rule.
type RankedCandidate struct {
	RetrievedCandidate
	PreferenceScore float64
	Reasons         []string
}

// Proposition is an atomic factual claim extracted from a chunk together
// with its grounding score in [0,1].
type Proposition struct {
	Text  string
	Score float64
}

// Answer is the result of one question-answer cycle. Prompt and Candidates
// are always populated, and LowConfidence reports that validation found no
// relevant context and fell back to the top-scoring candidate.
type Answer struct {
	Text          string               `json:"text"`
	Prompt        string               `json:"prompt"`
	Candidates    []RetrievedCandidate `json:"candidates,omitempty"`
	LowConfidence bool                 `json:"low_confidence,omitempty"`
}
