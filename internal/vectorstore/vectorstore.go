// Package vectorstore holds helpers shared by the VectorIndex backends.
package vectorstore

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"sarthi/internal/domain"
)

var (
	// ErrEmptyFilter is returned by Delete when the filter selects nothing.
	ErrEmptyFilter = errors.New("filter has no question")
	// ErrMissingID is returned by Add for an entry without an ID.
	ErrMissingID = errors.New("index entry has no id")
)

// CorpusFitted is implemented by embedders whose vectors depend on the whole
// corpus (TF-IDF). Such embedders can only back the memory index.
type CorpusFitted interface {
	CorpusFitted() bool
}

// IsCorpusFitted reports whether e must be re-prepared when the corpus changes.
func IsCorpusFitted(e domain.Embedder) bool {
	cf, ok := e.(CorpusFitted)
	return ok && cf.CorpusFitted()
}

// Text is what gets embedded for an entry: the question label followed by
// the answer, so a query can match either.
func Text(e domain.IndexEntry) string {
	q := strings.TrimSpace(e.Question)
	if q == "" {
		return e.Answer
	}
	return q + "\n" + e.Answer
}

// Validate checks entries before they are stored.
func Validate(entries []domain.IndexEntry) error {
	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("entry %d: %w", i, ErrMissingID)
		}
	}
	return nil
}

// Matches reports whether e passes f. A nil filter matches everything.
func Matches(e domain.IndexEntry, f *domain.Filter) bool {
	return f == nil || e.Question == f.Question
}

// CosineDistance returns 1 - cos(a, b), in [0, 2]. Zero vectors are at
// distance 1 from everything.
func CosineDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	if d < 0 {
		return 0
	}
	return d
}

// Float32 converts a vector for backends that store single precision.
func Float32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Metadata keys used by backends that store entries as payload maps.
const (
	KeyQuestion = "question"
	KeyKind     = "kind"
	KeyEntryID  = "entry_id"
)
