package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sarthi/internal/domain"
	"sarthi/internal/embedding/tfidf"
	"sarthi/internal/vectorstore"
)

func faqs() []domain.IndexEntry {
	return []domain.IndexEntry{
		{ID: "1", Question: "What are library hours?", Answer: "The library is open 9am to 9pm.", Kind: domain.KindFAQ},
		{ID: "2", Question: "Where is the canteen?", Answer: "The canteen is in Block C.", Kind: domain.KindFAQ},
		{ID: "3", Question: "What is the hostel fee?", Answer: "Hostel fee is Rs 500 per month.", Kind: domain.KindFAQ},
	}
}

// keywordEmbedder maps text onto fixed axes; it is not corpus-fitted.
type keywordEmbedder struct {
	axes  []string
	calls int
	err   error
}

func (k *keywordEmbedder) Name() string          { return "keyword" }
func (k *keywordEmbedder) Prepare([]string) error { return nil }
func (k *keywordEmbedder) Dimension() int         { return len(k.axes) }
func (k *keywordEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	k.calls++
	if k.err != nil {
		return nil, k.err
	}
	v := make([]float64, len(k.axes))
	lower := strings.ToLower(text)
	for i, a := range k.axes {
		if strings.Contains(lower, a) {
			v[i] = 1
		}
	}
	return v, nil
}

func TestEmptyIndexReturnsNothing(t *testing.T) {
	idx := NewIndex(tfidf.NewEmbedder(), nil)
	hits, err := idx.Query(context.Background(), "library", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQueryWithTFIDF(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(tfidf.NewEmbedder(), nil)
	require.NoError(t, idx.Add(ctx, faqs()))

	hits, err := idx.Query(ctx, "library timings", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "1", hits[0].Entry.ID)
	assert.Less(t, hits[0].Distance, 0.5)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
		assert.GreaterOrEqual(t, hits[i].Distance, 0.0)
	}
}

func TestQueryLimitsK(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(tfidf.NewEmbedder(), nil)
	require.NoError(t, idx.Add(ctx, faqs()))
	hits, err := idx.Query(ctx, "canteen", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "2", hits[0].Entry.ID)
}

func TestAddAfterQueryRefits(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(tfidf.NewEmbedder(), nil)
	require.NoError(t, idx.Add(ctx, faqs()[:1]))
	_, err := idx.Query(ctx, "library", 3)
	require.NoError(t, err)

	require.NoError(t, idx.Add(ctx, faqs()[1:]))
	hits, err := idx.Query(ctx, "hostel fee", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "3", hits[0].Entry.ID)
}

func TestStableEmbedderEmbedsOnAdd(t *testing.T) {
	ctx := context.Background()
	emb := &keywordEmbedder{axes: []string{"library", "canteen", "hostel"}}
	idx := NewIndex(emb, nil)
	require.NoError(t, idx.Add(ctx, faqs()))
	assert.Equal(t, 3, emb.calls)

	hits, err := idx.Query(ctx, "canteen?", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "2", hits[0].Entry.ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-9)
	assert.InDelta(t, 1.0, hits[1].Distance, 1e-9)
}

func TestAddEmbedFailure(t *testing.T) {
	boom := errors.New("embedder down")
	idx := NewIndex(&keywordEmbedder{err: boom}, nil)
	err := idx.Add(context.Background(), faqs())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, idx.Len())
}

func TestAddRejectsMissingID(t *testing.T) {
	idx := NewIndex(tfidf.NewEmbedder(), nil)
	err := idx.Add(context.Background(), []domain.IndexEntry{{Answer: "x"}})
	assert.ErrorIs(t, err, vectorstore.ErrMissingID)
}

func TestDeleteAndGet(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(tfidf.NewEmbedder(), nil)
	entries := append(faqs(), domain.IndexEntry{ID: "4", Question: "Where is the canteen?", Answer: "Old answer"})
	require.NoError(t, idx.Add(ctx, entries))
	_, err := idx.Query(ctx, "canteen", 3)
	require.NoError(t, err)

	n, err := idx.Delete(ctx, domain.Filter{Question: "Where is the canteen?"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := idx.Get(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := idx.Get(ctx, &domain.Filter{Question: "What is the hostel fee?"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	hits, err := idx.Query(ctx, "canteen", 3)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "Where is the canteen?", h.Entry.Question)
	}

	_, err = idx.Delete(ctx, domain.Filter{})
	assert.ErrorIs(t, err, vectorstore.ErrEmptyFilter)
}

func TestDeleteEverythingEmptiesIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(tfidf.NewEmbedder(), nil)
	require.NoError(t, idx.Add(ctx, faqs()[:1]))
	_, err := idx.Delete(ctx, domain.Filter{Question: "What are library hours?"})
	require.NoError(t, err)
	hits, err := idx.Query(ctx, "library", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
