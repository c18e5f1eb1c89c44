// Package chromem is a VectorIndex on top of the embedded chromem-go database.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/logger"
	"sarthi/internal/vectorstore"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "faq"

// Index stores entries in a chromem collection. chromem has no listing call,
// so a catalog of stored entries is kept alongside it for Get and Delete.
type Index struct {
	collection *chromem.Collection
	log        *zap.Logger

	mu      sync.RWMutex
	catalog map[string]stored
	seq     uint64
}

type stored struct {
	entry domain.IndexEntry
	seq   uint64
}

// NewIndex creates an in-memory chromem collection embedding with embedder.
func NewIndex(collection string, embedder domain.Embedder, log *zap.Logger) (*Index, error) {
	if vectorstore.IsCorpusFitted(embedder) {
		return nil, fmt.Errorf("chromem index needs a stable embedder, got %s", embedder.Name())
	}
	if collection == "" {
		collection = DefaultCollection
	}
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collection, nil, embeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("creating chromem collection %s: %w", collection, err)
	}
	return &Index{
		collection: c,
		log:        logger.OrNop(log),
		catalog:    make(map[string]stored),
	}, nil
}

func embeddingFunc(e domain.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		return vectorstore.Float32(v), nil
	}
}

// Add embeds and stores entries.
func (s *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := vectorstore.Validate(entries); err != nil {
		return err
	}
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:      e.ID,
			Content: vectorstore.Text(e),
			Metadata: map[string]string{
				vectorstore.KeyQuestion: e.Question,
				vectorstore.KeyKind:     string(e.Kind),
			},
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	s.mu.Lock()
	for _, e := range entries {
		s.seq++
		s.catalog[e.ID] = stored{entry: e, seq: s.seq}
	}
	s.mu.Unlock()
	s.log.Debug("chromem documents added", zap.Int("count", len(docs)))
	return nil
}

// Query returns up to k entries ordered by ascending cosine distance.
func (s *Index) Query(ctx context.Context, text string, k int) ([]domain.Hit, error) {
	if k <= 0 || strings.TrimSpace(text) == "" {
		return nil, nil
	}
	// chromem rejects nResults above the collection size.
	if n := s.collection.Count(); n < k {
		k = n
	}
	if k == 0 {
		return nil, nil
	}
	results, err := s.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying chromem: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	hits := make([]domain.Hit, 0, len(results))
	for _, r := range results {
		st, ok := s.catalog[r.ID]
		if !ok {
			continue
		}
		d := 1 - float64(r.Similarity)
		if d < 0 {
			d = 0
		}
		hits = append(hits, domain.Hit{Entry: st.entry, Distance: d})
	}
	return hits, nil
}

// Delete removes every entry whose question equals filter.Question.
func (s *Index) Delete(ctx context.Context, filter domain.Filter) (int, error) {
	if filter.Question == "" {
		return 0, vectorstore.ErrEmptyFilter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, st := range s.catalog {
		if vectorstore.Matches(st.entry, &filter) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return 0, fmt.Errorf("deleting from chromem: %w", err)
	}
	for _, id := range ids {
		delete(s.catalog, id)
	}
	s.log.Debug("chromem documents deleted", zap.String("question", filter.Question), zap.Int("count", len(ids)))
	return len(ids), nil
}

// Get returns every stored entry passing filter, oldest first.
func (s *Index) Get(_ context.Context, filter *domain.Filter) ([]domain.IndexEntry, error) {
	s.mu.RLock()
	matched := make([]stored, 0, len(s.catalog))
	for _, st := range s.catalog {
		if vectorstore.Matches(st.entry, filter) {
			matched = append(matched, st)
		}
	}
	s.mu.RUnlock()
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	out := make([]domain.IndexEntry, len(matched))
	for i, st := range matched {
		out[i] = st.entry
	}
	return out, nil
}
