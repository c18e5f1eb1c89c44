// Package retrieval queries the knowledge base and decides which candidate,
// if any, answers the question.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"sarthi/internal/domain"
)

const (
	// DefaultTopK is how many neighbours are requested per query.
	DefaultTopK = 3
	// AcceptThreshold is the largest distance at which a candidate answers.
	AcceptThreshold = 0.5
)

// Engine runs nearest-neighbour retrieval and the acceptance policy.
type Engine struct {
	index     domain.VectorIndex
	topK      int
	threshold float64
}

// NewEngine creates an engine over index.
func NewEngine(index domain.VectorIndex) *Engine {
	return &Engine{index: index, topK: DefaultTopK, threshold: AcceptThreshold}
}

// Retrieve queries the index with pivot-language text. An empty index is not
// an error; it yields an unanswered result.
func (e *Engine) Retrieve(ctx context.Context, pivotText string) (domain.RetrievalResult, error) {
	hits, err := e.index.Query(ctx, pivotText, e.topK)
	if err != nil {
		return domain.RetrievalResult{Accepted: domain.NoMatch}, fmt.Errorf("querying index: %w", err)
	}
	candidates := make([]domain.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = domain.Candidate{
			Answer:   h.Entry.Answer,
			Question: h.Entry.Question,
			Distance: h.Distance,
		}
	}
	accepted := Accept(candidates, e.threshold)
	res := domain.RetrievalResult{Candidates: candidates, Accepted: accepted}
	if accepted != domain.NoMatch {
		res.QuickReplies = quickReplies(candidates, accepted)
	}
	return res, nil
}

// Accept returns the first candidate, in the given order, whose distance is
// within threshold. The order is trusted as returned; a later, closer
// candidate never overrides an earlier acceptable one.
func Accept(candidates []domain.Candidate, threshold float64) int {
	for i, c := range candidates {
		if c.Distance <= threshold {
			return i
		}
	}
	return domain.NoMatch
}

// quickReplies lists the other candidates' questions once each, in candidate
// order.
func quickReplies(candidates []domain.Candidate, accepted int) []string {
	seen := map[string]struct{}{candidates[accepted].Question: {}}
	out := make([]string, 0, len(candidates)-1)
	for _, c := range candidates {
		if strings.TrimSpace(c.Question) == "" {
			continue
		}
		if _, dup := seen[c.Question]; dup {
			continue
		}
		seen[c.Question] = struct{}{}
		out = append(out, c.Question)
	}
	return out
}
