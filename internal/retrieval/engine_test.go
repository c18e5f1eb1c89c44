package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sarthi/internal/domain"
)

type fakeIndex struct {
	hits  []domain.Hit
	err   error
	gotK  int
	gotQ  string
	calls int
}

func (f *fakeIndex) Query(_ context.Context, text string, k int) ([]domain.Hit, error) {
	f.calls++
	f.gotQ, f.gotK = text, k
	return f.hits, f.err
}
func (f *fakeIndex) Add(context.Context, []domain.IndexEntry) error         { return nil }
func (f *fakeIndex) Delete(context.Context, domain.Filter) (int, error)      { return 0, nil }
func (f *fakeIndex) Get(context.Context, *domain.Filter) ([]domain.IndexEntry, error) { return nil, nil }

func hit(q, a string, d float64) domain.Hit {
	return domain.Hit{Entry: domain.IndexEntry{Question: q, Answer: a, Kind: domain.KindFAQ}, Distance: d}
}

func TestRetrieveFirstMatchNotMinimum(t *testing.T) {
	idx := &fakeIndex{hits: []domain.Hit{
		hit("q0", "a0", 0.7),
		hit("q1", "a1", 0.3),
		hit("q2", "a2", 0.1),
	}}
	res, err := NewEngine(idx).Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, "a1", res.Answer())
	assert.Equal(t, []string{"q0", "q2"}, res.QuickReplies)
	assert.Equal(t, DefaultTopK, idx.gotK)
	assert.Equal(t, "anything", idx.gotQ)
}

func TestRetrieveThresholdIsInclusive(t *testing.T) {
	idx := &fakeIndex{hits: []domain.Hit{hit("q0", "a0", AcceptThreshold)}}
	res, err := NewEngine(idx).Retrieve(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Accepted)
	assert.Empty(t, res.QuickReplies)
}

func TestRetrieveNoCandidateUnderThreshold(t *testing.T) {
	idx := &fakeIndex{hits: []domain.Hit{hit("q0", "a0", 0.51), hit("q1", "a1", 0.9)}}
	res, err := NewEngine(idx).Retrieve(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, res.Answered())
	assert.Equal(t, domain.NoMatch, res.Accepted)
	assert.Empty(t, res.QuickReplies)
	assert.Len(t, res.Candidates, 2)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	res, err := NewEngine(&fakeIndex{}).Retrieve(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, res.Answered())
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.QuickReplies)
	assert.Equal(t, "", res.Answer())
}

func TestQuickRepliesExcludeOwnAndBlankQuestions(t *testing.T) {
	idx := &fakeIndex{hits: []domain.Hit{
		hit("What are library hours?", "9am-9pm", 0.2),
		hit("   ", "blank label", 0.3),
		hit("", "empty label", 0.35),
		hit("What are library hours?", "duplicate label", 0.4),
		hit("Where is the canteen?", "Block C", 0.45),
	}}
	res, err := NewEngine(idx).Retrieve(context.Background(), "library timings")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, []string{"Where is the canteen?"}, res.QuickReplies)
}

func TestQuickRepliesCollapseSharedPassageLabels(t *testing.T) {
	idx := &fakeIndex{hits: []domain.Hit{
		hit("What is the hostel fee?", "Rs 500", 0.3),
		hit("PDF: brochure.pdf", "Hostel fees are due monthly.", 0.35),
		hit("PDF: brochure.pdf", "Mess charges are extra.", 0.4),
	}}
	res, err := NewEngine(idx).Retrieve(context.Background(), "hostel fee")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, []string{"PDF: brochure.pdf"}, res.QuickReplies)
}

func TestRetrievePropagatesIndexError(t *testing.T) {
	boom := errors.New("index offline")
	res, err := NewEngine(&fakeIndex{err: boom}).Retrieve(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Answered())
}

func TestAccept(t *testing.T) {
	tests := []struct {
		name      string
		distances []float64
		want      int
	}{
		{"empty", nil, domain.NoMatch},
		{"first", []float64{0.1, 0.2}, 0},
		{"unsorted", []float64{0.7, 0.3, 0.1}, 1},
		{"none", []float64{0.6, 0.8}, domain.NoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := make([]domain.Candidate, len(tt.distances))
			for i, d := range tt.distances {
				cs[i] = domain.Candidate{Distance: d}
			}
			assert.Equal(t, tt.want, Accept(cs, AcceptThreshold))
		})
	}
}
