// Package translate moves text between the working language and the pivot
// language. Translation is best-effort: failures yield the original text.
package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sarthi/internal/domain"
	"sarthi/internal/language"
	"sarthi/internal/logger"
)

const (
	// DefaultTimeout bounds a single translation call.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxParallel caps concurrent quick-reply translations.
	DefaultMaxParallel = 4
)

// ErrEmptyTranslation is recorded when the service answers with blank text.
var ErrEmptyTranslation = errors.New("empty translation")

// Outcome is the result of one translation. When Err is set, Text is the
// untranslated input.
type Outcome struct {
	Text       string
	Translated bool
	Err        error
}

// Recovered reports whether the outcome fell back to the original text.
func (o Outcome) Recovered() bool { return o.Err != nil }

// Translator wraps a TranslationService with the pivot shortcut, a per-call
// timeout and fallback to the original text.
type Translator struct {
	svc         domain.TranslationService
	timeout     time.Duration
	maxParallel int
	log         *zap.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithTimeout bounds every service call.
func WithTimeout(d time.Duration) Option {
	return func(t *Translator) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithMaxParallel bounds concurrent calls made by FromPivotAll.
func WithMaxParallel(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.maxParallel = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Translator) { t.log = logger.OrNop(l) }
}

// New creates a Translator. A nil service disables translation entirely.
func New(svc domain.TranslationService, opts ...Option) *Translator {
	t := &Translator{
		svc:         svc,
		timeout:     DefaultTimeout,
		maxParallel: DefaultMaxParallel,
		log:         zap.NewNop(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ToPivot translates text written in lang into the pivot language.
func (t *Translator) ToPivot(ctx context.Context, text string, lang language.Code) Outcome {
	if lang.IsPivot() {
		return Outcome{Text: text}
	}
	return t.call(ctx, text, "auto", language.Pivot)
}

// FromPivot translates pivot-language text into lang.
func (t *Translator) FromPivot(ctx context.Context, text string, lang language.Code) Outcome {
	if lang.IsPivot() {
		return Outcome{Text: text}
	}
	return t.call(ctx, text, string(language.Pivot), lang)
}

// FromPivotAll translates texts concurrently. Results keep the input order and
// a failing item never affects its siblings.
func (t *Translator) FromPivotAll(ctx context.Context, texts []string, lang language.Code) []Outcome {
	out := make([]Outcome, len(texts))
	if lang.IsPivot() {
		for i, s := range texts {
			out[i] = Outcome{Text: s}
		}
		return out
	}
	var g errgroup.Group
	g.SetLimit(t.maxParallel)
	for i := range texts {
		g.Go(func() error {
			out[i] = t.FromPivot(ctx, texts[i], lang)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (t *Translator) call(ctx context.Context, text, source string, target language.Code) Outcome {
	if strings.TrimSpace(text) == "" {
		return Outcome{Text: text}
	}
	if t.svc == nil {
		return Outcome{Text: text, Err: errors.New("translation disabled")}
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	res, err := t.svc.Translate(ctx, text, source, string(target))
	if err == nil && strings.TrimSpace(res) == "" {
		err = ErrEmptyTranslation
	}
	if err != nil {
		t.log.Warn("translation failed, keeping original text",
			zap.String("source", source),
			zap.String("target", string(target)),
			zap.Error(err))
		return Outcome{Text: text, Err: err}
	}
	return Outcome{Text: res, Translated: true}
}
