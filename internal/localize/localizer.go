// Package localize turns a retrieval result into a response in the user's
// language.
package localize

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/language"
	"sarthi/internal/logger"
	"sarthi/internal/translate"
)

// Localizer translates answers and quick replies back to the working language.
type Localizer struct {
	translator *translate.Translator
	log        *zap.Logger
}

// NewLocalizer creates a Localizer.
func NewLocalizer(t *translate.Translator, log *zap.Logger) *Localizer {
	return &Localizer{translator: t, log: logger.OrNop(log)}
}

// Localize builds the response for res in lang. Unanswered results get the
// language's fallback message and no quick replies.
func (l *Localizer) Localize(ctx context.Context, res domain.RetrievalResult, lang language.Code) domain.LocalizedResponse {
	answer := res.Answer()
	if !res.Answered() || strings.TrimSpace(answer) == "" {
		return domain.LocalizedResponse{Answer: FallbackMessage(lang), QuickReplies: []domain.QuickReply{}}
	}

	// The answer travels in the same batch as the quick replies, at index 0.
	texts := make([]string, 0, len(res.QuickReplies)+1)
	texts = append(texts, answer)
	texts = append(texts, res.QuickReplies...)
	outcomes := l.translator.FromPivotAll(ctx, texts, lang)

	recovered := 0
	for _, o := range outcomes {
		if o.Recovered() {
			recovered++
		}
	}
	if recovered > 0 {
		l.log.Info("response partially untranslated",
			zap.String("lang", string(lang)),
			zap.Int("untranslated", recovered),
			zap.Int("total", len(outcomes)))
	}

	replies := make([]domain.QuickReply, 0, len(res.QuickReplies))
	for _, o := range outcomes[1:] {
		if strings.TrimSpace(o.Text) == "" {
			continue
		}
		replies = append(replies, domain.QuickReply{Text: o.Text, Payload: o.Text})
	}
	return domain.LocalizedResponse{Answer: outcomes[0].Text, QuickReplies: replies}
}
