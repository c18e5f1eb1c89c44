package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatlangDetectorScripts(t *testing.T) {
	d := NewWhatlangDetector(0)
	tests := map[string]string{
		"আপনি কেমন আছেন? আমি ভালো আছি, ধন্যবাদ।":          "bn",
		"வணக்கம், நீங்கள் எப்படி இருக்கிறீர்கள்?":          "ta",
		"ನೀವು ಹೇಗಿದ್ದೀರಾ? ನಾನು ಚೆನ್ನಾಗಿದ್ದೇನೆ.":           "kn",
		"હેલો, કેમ છો? હું મજામાં છું.":                     "gu",
		"ਤੁਸੀਂ ਕਿਵੇਂ ਹੋ? ਮੈਂ ਠੀਕ ਹਾਂ।":                      "pa",
		"What are the library opening hours on weekends?": "en",
	}
	for text, want := range tests {
		got, err := d.Detect(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}
}

func TestWhatlangDetectorTooShort(t *testing.T) {
	d := NewWhatlangDetector(3)
	_, err := d.Detect(" a ")
	assert.ErrorIs(t, err, ErrUndetermined)
}
