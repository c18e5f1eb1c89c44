package domain

import "context"

// EntryKind tells where an index entry came from.
type EntryKind string

const (
	KindFAQ      EntryKind = "faq"
	KindDocument EntryKind = "document"
)

// IndexEntry is a unit of the knowledge base. Answer and Question are in the
// pivot language; Question is a human-readable label, ID is the key.
type IndexEntry struct {
	ID       string
	Answer   string
	Question string
	Kind     EntryKind
}

// Hit is a single nearest-neighbour match returned by a VectorIndex.
// Distance is non-negative; lower means more similar.
type Hit struct {
	Entry    IndexEntry
	Distance float64
}

// Filter selects entries by their question label.
type Filter struct {
	Question string
}

// Query is a raw user utterance with an optional declared language tag.
type Query struct {
	RawText          string
	DeclaredLanguage string
}

// Candidate is one retrieved answer together with its question label.
type Candidate struct {
	Answer   string
	Question string
	Distance float64
}

// NoMatch marks a RetrievalResult without an accepted candidate.
const NoMatch = -1

// RetrievalResult holds the candidates in the order the index returned them
// and the position of the accepted one, or NoMatch.
type RetrievalResult struct {
	Candidates []Candidate
	Accepted   int
	// QuickReplies are the questions of the non-accepted candidates, blanks removed.
	QuickReplies []string
}

// Answered reports whether a candidate was accepted.
func (r RetrievalResult) Answered() bool {
	return r.Accepted >= 0 && r.Accepted < len(r.Candidates)
}

// Answer returns the accepted candidate's answer, or "" when unanswered.
func (r RetrievalResult) Answer() string {
	if !r.Answered() {
		return ""
	}
	return r.Candidates[r.Accepted].Answer
}

// QuickReply is a suggested follow-up. Clicking it resubmits Payload.
type QuickReply struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// LocalizedResponse is the final answer in the user's language.
type LocalizedResponse struct {
	Answer       string       `json:"answer"`
	QuickReplies []QuickReply `json:"quick_replies"`
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorIndex stores entries and returns nearest neighbours ordered by
// ascending distance. Implementations are safe for concurrent use.
type VectorIndex interface {
	Query(ctx context.Context, text string, k int) ([]Hit, error)
	Add(ctx context.Context, entries []IndexEntry) error
	Delete(ctx context.Context, filter Filter) (int, error)
	// Get returns every stored entry matching filter; a nil filter returns all.
	Get(ctx context.Context, filter *Filter) ([]IndexEntry, error)
}

// TranslationService translates text between languages. Source may be "auto".
type TranslationService interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Detector guesses the language code of a text.
type Detector interface {
	Detect(text string) (string, error)
}

// Chunker splits long document text into passages suitable for indexing.
type Chunker interface {
	Chunk(text string) []string
}
