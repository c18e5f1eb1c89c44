package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/language"
	"sarthi/internal/localize"
	"sarthi/internal/logger"
	"sarthi/internal/retrieval"
	"sarthi/internal/translate"
)

// ErrEmptyQuery is returned for a query that is blank after trimming.
var ErrEmptyQuery = errors.New("query is empty")

// ChatService answers user questions in the language they were asked in.
type ChatService struct {
	resolver   *language.Resolver
	translator *translate.Translator
	engine     *retrieval.Engine
	localizer  *localize.Localizer
	log        *zap.Logger
}

// NewChatService wires the answering pipeline.
func NewChatService(resolver *language.Resolver, translator *translate.Translator, engine *retrieval.Engine, localizer *localize.Localizer, log *zap.Logger) *ChatService {
	return &ChatService{
		resolver:   resolver,
		translator: translator,
		engine:     engine,
		localizer:  localizer,
		log:        logger.OrNop(log),
	}
}

// Chat resolves the working language, retrieves in the pivot language and
// localizes the result. Only an empty query is an error; detection,
// translation and index failures degrade to fallbacks.
func (s *ChatService) Chat(ctx context.Context, q domain.Query) (domain.LocalizedResponse, error) {
	text := strings.TrimSpace(q.RawText)
	if text == "" {
		return domain.LocalizedResponse{}, ErrEmptyQuery
	}
	start := time.Now()

	res := s.resolver.Resolve(domain.Query{RawText: text, DeclaredLanguage: q.DeclaredLanguage})
	pivot := s.translator.ToPivot(ctx, text, res.Lang)

	result, err := s.engine.Retrieve(ctx, pivot.Text)
	if err != nil {
		s.log.Error("retrieval failed, answering with fallback", zap.Error(err))
		result = domain.RetrievalResult{Accepted: domain.NoMatch}
	}

	resp := s.localizer.Localize(ctx, result, res.Lang)
	s.log.Info("chat answered",
		zap.String("lang", res.Lang.String()),
		zap.Stringer("lang_source", res.Source),
		zap.Bool("pivot_translated", pivot.Translated),
		zap.Bool("answered", result.Answered()),
		zap.Int("candidates", len(result.Candidates)),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}

// Greet returns the welcome message for a language tag and theme token.
func (s *ChatService) Greet(lang, theme string) localize.Greeting {
	return localize.Greet(lang, theme)
}
