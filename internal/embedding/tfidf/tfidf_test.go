package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestEmbedBeforePrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "library")
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestPrepareEmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
	assert.Error(t, NewEmbedder().Prepare([]string{"the and of"}))
}

func TestEmbedNormalizedAndRanked(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"What are library hours? The library is open 9am to 9pm.",
		"Where is the canteen? The canteen is in Block C.",
		"What is the hostel fee? Hostel fee is Rs 500.",
	}))
	ctx := context.Background()
	q, err := e.Embed(ctx, "library hours")
	require.NoError(t, err)
	assert.Len(t, q, e.Dimension())
	assert.InDelta(t, 1.0, math.Sqrt(dot(q, q)), 1e-9)

	lib, _ := e.Embed(ctx, "What are library hours? The library is open 9am to 9pm.")
	canteen, _ := e.Embed(ctx, "Where is the canteen? The canteen is in Block C.")
	assert.Greater(t, dot(q, lib), dot(q, canteen))
}

func TestEmbedUnknownTermsIsZero(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"library hours"}))
	v, err := e.Embed(context.Background(), "zebra")
	require.NoError(t, err)
	assert.Equal(t, 0.0, dot(v, v))
}

func TestTokenizeKeepsCombiningMarks(t *testing.T) {
	e := NewEmbedder()
	toks := e.tokenize("पुस्तकालय कब खुलता है?")
	assert.Equal(t, []string{"पुस्तकालय", "कब", "खुलता", "है"}, toks)
}

func TestEmbedCancelledContext(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"library"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Embed(ctx, "library")
	assert.ErrorIs(t, err, context.Canceled)
}
