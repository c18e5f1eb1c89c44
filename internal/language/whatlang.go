package language

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// ErrUndetermined is returned when the text carries too little signal.
var ErrUndetermined = errors.New("language could not be determined")

// WhatlangDetector detects languages with trigram and script analysis.
type WhatlangDetector struct {
	minRunes int
}

// NewWhatlangDetector creates a detector that refuses texts shorter than
// minRunes letters. Values below 1 default to 2.
func NewWhatlangDetector(minRunes int) *WhatlangDetector {
	if minRunes < 1 {
		minRunes = 2
	}
	return &WhatlangDetector{minRunes: minRunes}
}

// Detect returns the ISO 639-1 code of text.
func (d *WhatlangDetector) Detect(text string) (string, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < d.minRunes {
		return "", ErrUndetermined
	}
	info := whatlanggo.Detect(text)
	if info.Lang < 0 {
		return "", ErrUndetermined
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetermined
	}
	return code, nil
}
