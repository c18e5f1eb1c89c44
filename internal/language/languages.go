// Package language holds the closed set of supported languages and resolves
// the working language of a query.
package language

import "strings"

// Code is a supported language code.
type Code string

const (
	English    Code = "en"
	Hindi      Code = "hi"
	Marathi    Code = "mr"
	Gujarati   Code = "gu"
	Bengali    Code = "bn"
	Tamil      Code = "ta"
	Telugu     Code = "te"
	Kannada    Code = "kn"
	Malayalam  Code = "ml"
	Punjabi    Code = "pa"
	Rajasthani Code = "raj"
)

// Pivot is the language every cross-lingual translation passes through.
const Pivot = English

var supported = []Code{Hindi, Marathi, Gujarati, Bengali, Tamil, Telugu, Kannada, Malayalam, Punjabi, English, Rajasthani}

// Supported returns the supported codes.
func Supported() []Code {
	out := make([]Code, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether c is in the supported set.
func IsSupported(c Code) bool {
	for _, s := range supported {
		if s == c {
			return true
		}
	}
	return false
}

// IsPivot reports whether c is the pivot language.
func (c Code) IsPivot() bool { return c == Pivot }

func (c Code) String() string { return string(c) }

// PrimarySubtag strips a region subtag: "gu-IN" -> "gu".
func PrimarySubtag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// Normalize maps a language tag to a supported code. Unknown tags map to Pivot
// and ok is false.
func Normalize(tag string) (c Code, ok bool) {
	c = Code(PrimarySubtag(tag))
	if IsSupported(c) {
		return c, true
	}
	return Pivot, false
}
