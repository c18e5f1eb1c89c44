package language

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/logger"
)

// Source records how a Resolution was reached.
type Source int

const (
	// Declared means the caller's tag was a supported language.
	Declared Source = iota
	// Detected means automatic detection returned a supported language.
	Detected
	// Defaulted means resolution fell back to the pivot language.
	Defaulted
)

func (s Source) String() string {
	switch s {
	case Declared:
		return "declared"
	case Detected:
		return "detected"
	default:
		return "defaulted"
	}
}

// ErrUnsupported is recorded when a tag or detected code is outside the set.
var ErrUnsupported = errors.New("language not supported")

// Resolution is the outcome of resolving a query's language. It never fails:
// when Source is Defaulted, Err carries the recovered cause.
type Resolution struct {
	Lang   Code
	Source Source
	Err    error
}

// Resolver determines the working language of a query.
type Resolver struct {
	detector domain.Detector
	log      *zap.Logger
}

// NewResolver creates a resolver. A nil detector makes every undeclared query
// resolve to the pivot language.
func NewResolver(detector domain.Detector, log *zap.Logger) *Resolver {
	return &Resolver{detector: detector, log: logger.OrNop(log)}
}

// Resolve returns the working language for q.
func (r *Resolver) Resolve(q domain.Query) Resolution {
	if q.DeclaredLanguage != "" {
		if c, ok := Normalize(q.DeclaredLanguage); ok {
			return Resolution{Lang: c, Source: Declared}
		}
		return r.fallback(fmt.Errorf("%w: declared %q", ErrUnsupported, q.DeclaredLanguage))
	}
	if r.detector == nil {
		return r.fallback(errors.New("no language detector configured"))
	}
	code, err := r.detector.Detect(q.RawText)
	if err != nil {
		return r.fallback(fmt.Errorf("detect: %w", err))
	}
	c := Code(PrimarySubtag(code))
	if !IsSupported(c) {
		return r.fallback(fmt.Errorf("%w: detected %q", ErrUnsupported, code))
	}
	return Resolution{Lang: c, Source: Detected}
}

func (r *Resolver) fallback(cause error) Resolution {
	r.log.Debug("language resolved to pivot", zap.Error(cause))
	return Resolution{Lang: Pivot, Source: Defaulted, Err: cause}
}
