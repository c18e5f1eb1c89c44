package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/logger"
	"sarthi/internal/vectorstore"
)

// Index is an in-memory VectorIndex using brute-force cosine distance.
//
// vectors[i] belongs to entries[i] for every i < len(vectors). With a
// corpus-fitted embedder, writes only touch entries and mark the index
// dirty; the next query re-prepares the embedder and re-embeds everything.
type Index struct {
	mu       sync.RWMutex
	embedder domain.Embedder
	fitted   bool
	entries  []domain.IndexEntry
	vectors  [][]float64
	dirty    bool
	log      *zap.Logger
}

// NewIndex creates an empty index over embedder.
func NewIndex(embedder domain.Embedder, log *zap.Logger) *Index {
	return &Index{
		embedder: embedder,
		fitted:   vectorstore.IsCorpusFitted(embedder),
		log:      logger.OrNop(log),
	}
}

// Add stores entries. Embedding happens now for stable embedders and lazily
// for corpus-fitted ones.
func (s *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := vectorstore.Validate(entries); err != nil {
		return err
	}
	if s.fitted {
		s.mu.Lock()
		s.entries = append(s.entries, entries...)
		s.dirty = true
		s.mu.Unlock()
		return nil
	}

	vecs := make([][]float64, len(entries))
	for i, e := range entries {
		v, err := s.embedder.Embed(ctx, vectorstore.Text(e))
		if err != nil {
			return fmt.Errorf("embedding entry %s: %w", e.ID, err)
		}
		vecs[i] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	s.vectors = append(s.vectors, vecs...)
	return nil
}

// Query returns up to k entries ordered by ascending cosine distance.
func (s *Index) Query(ctx context.Context, text string, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return nil, nil
	}
	q, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	hits := make([]domain.Hit, len(s.vectors))
	for i, v := range s.vectors {
		hits[i] = domain.Hit{Entry: s.entries[i], Distance: vectorstore.CosineDistance(q, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes every entry whose question equals filter.Question.
func (s *Index) Delete(_ context.Context, filter domain.Filter) (int, error) {
	if filter.Question == "" {
		return 0, vectorstore.ErrEmptyFilter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keptEntries := s.entries[:0]
	keptVectors := s.vectors[:0]
	removed := 0
	for i, e := range s.entries {
		if vectorstore.Matches(e, &filter) {
			removed++
			continue
		}
		keptEntries = append(keptEntries, e)
		if i < len(s.vectors) {
			keptVectors = append(keptVectors, s.vectors[i])
		}
	}
	// Clear the tails so dropped entries can be collected.
	for i := len(keptEntries); i < len(s.entries); i++ {
		s.entries[i] = domain.IndexEntry{}
	}
	for i := len(keptVectors); i < len(s.vectors); i++ {
		s.vectors[i] = nil
	}
	s.entries = keptEntries
	s.vectors = keptVectors
	if removed > 0 && s.fitted {
		s.dirty = true
	}
	return removed, nil
}

// Get returns a copy of every entry passing filter.
func (s *Index) Get(_ context.Context, filter *domain.Filter) ([]domain.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IndexEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if vectorstore.Matches(e, filter) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of stored entries.
func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Index) refresh(ctx context.Context) error {
	s.mu.RLock()
	dirty := s.dirty
	s.mu.RUnlock()
	if !dirty {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if len(s.entries) == 0 {
		s.vectors = nil
		s.dirty = false
		return nil
	}
	corpus := make([]string, len(s.entries))
	for i, e := range s.entries {
		corpus[i] = vectorstore.Text(e)
	}
	if err := s.embedder.Prepare(corpus); err != nil {
		return fmt.Errorf("preparing %s embedder: %w", s.embedder.Name(), err)
	}
	vecs := make([][]float64, len(s.entries))
	for i, text := range corpus {
		v, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embedding entry %s: %w", s.entries[i].ID, err)
		}
		vecs[i] = v
	}
	s.vectors = vecs
	s.dirty = false
	s.log.Debug("memory index rebuilt",
		zap.String("embedder", s.embedder.Name()),
		zap.Int("entries", len(vecs)),
		zap.Int("dimension", s.embedder.Dimension()))
	return nil
}
