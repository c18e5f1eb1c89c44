package chunker

import (
	"regexp"
	"strings"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
// Sentences end at '.', '!', '?', the danda '।' or the double danda '॥'.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// NewSentenceChunker returns a chunker; non-positive sizes fall back to 5
// sentences per chunk and overlap is clamped below the chunk size.
func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`[^.!?।॥]+[.!?।॥]+`),
	}
}

// Chunk returns the passages of text in order. Blank text yields nil.
func (c *SentenceChunker) Chunk(text string) []string {
	sentences := c.sentences(text)
	if len(sentences) == 0 {
		return nil
	}
	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks
}

func (c *SentenceChunker) sentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range c.splitter.FindAllStringIndex(text, -1) {
		if s := normalizeSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	// Trailing text without a terminator is still a sentence.
	if s := normalizeSpace(text[last:]); s != "" {
		out = append(out, s)
	}
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
