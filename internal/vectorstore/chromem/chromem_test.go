package chromem

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sarthi/internal/domain"
	"sarthi/internal/embedding/tfidf"
	"sarthi/internal/vectorstore"
)

// axisEmbedder puts a constant bias on the last axis so no vector is zero.
type axisEmbedder struct{ axes []string }

func (a axisEmbedder) Name() string          { return "axis" }
func (a axisEmbedder) Prepare([]string) error { return nil }
func (a axisEmbedder) Dimension() int         { return len(a.axes) + 1 }
func (a axisEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	v := make([]float64, len(a.axes)+1)
	lower := strings.ToLower(text)
	for i, ax := range a.axes {
		if strings.Contains(lower, ax) {
			v[i] = 1
		}
	}
	v[len(a.axes)] = 0.1
	return v, nil
}

func newIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex("", axisEmbedder{axes: []string{"library", "canteen", "hostel"}}, nil)
	require.NoError(t, err)
	return idx
}

func seed(t *testing.T, idx *Index) {
	t.Helper()
	require.NoError(t, idx.Add(context.Background(), []domain.IndexEntry{
		{ID: "1", Question: "What are library hours?", Answer: "9am to 9pm", Kind: domain.KindFAQ},
		{ID: "2", Question: "Where is the canteen?", Answer: "Block C", Kind: domain.KindFAQ},
		{ID: "3", Question: "What is the hostel fee?", Answer: "Rs 500", Kind: domain.KindFAQ},
	}))
}

func TestRejectsCorpusFittedEmbedder(t *testing.T) {
	_, err := NewIndex("faq", tfidf.NewEmbedder(), nil)
	assert.Error(t, err)
}

func TestEmptyCollection(t *testing.T) {
	hits, err := newIndex(t).Query(context.Background(), "library", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQueryClampsToCount(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Add(context.Background(), []domain.IndexEntry{
		{ID: "1", Question: "What are library hours?", Answer: "9am to 9pm", Kind: domain.KindFAQ},
	}))
	hits, err := idx.Query(context.Background(), "library", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-5)
}

func TestQueryOrdersByDistance(t *testing.T) {
	idx := newIndex(t)
	seed(t, idx)
	hits, err := idx.Query(context.Background(), "where is the canteen", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "2", hits[0].Entry.ID)
	assert.Equal(t, domain.KindFAQ, hits[0].Entry.Kind)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
	}
	assert.Greater(t, hits[1].Distance, 0.5)
}

func TestDeleteAndGet(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	seed(t, idx)

	n, err := idx.Delete(ctx, domain.Filter{Question: "Where is the canteen?"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := idx.Get(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "3", all[1].ID)

	hits, err := idx.Query(ctx, "canteen", 3)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	n, err = idx.Delete(ctx, domain.Filter{Question: "missing"})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = idx.Delete(ctx, domain.Filter{})
	assert.ErrorIs(t, err, vectorstore.ErrEmptyFilter)
}
