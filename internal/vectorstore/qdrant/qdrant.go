package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/logger"
	"sarthi/internal/vectorstore"
)

// Index is a minimal REST client to Qdrant implementing VectorIndex.
// It assumes cosine distance and creates the collection on first write.
type Index struct {
	url        string
	apiKey     string
	collection string
	embedder   domain.Embedder
	client     *http.Client
	log        *zap.Logger

	mu    sync.Mutex
	ready bool
}

// Config configures the Qdrant index.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	Logger     *zap.Logger
}

type statusError struct {
	method, url string
	code        int
	status      string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %s", e.method, e.url, e.status)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

// NewIndex creates the client. The embedder must not be corpus-fitted because
// stored vectors are never recomputed.
func NewIndex(cfg Config, embedder domain.Embedder) (*Index, error) {
	if vectorstore.IsCorpusFitted(embedder) {
		return nil, fmt.Errorf("qdrant index needs a stable embedder, got %s", embedder.Name())
	}
	if cfg.URL == "" {
		cfg.URL = "http://localhost:6333"
	}
	if cfg.Collection == "" {
		cfg.Collection = "faq"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
		log:        logger.OrNop(cfg.Logger),
	}, nil
}

func (s *Index) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

func (s *Index) ensureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	err := s.doJSON(ctx, http.MethodGet, s.collectionURL(), nil, nil)
	if isNotFound(err) {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		err = s.doJSON(ctx, http.MethodPut, s.collectionURL(), body, nil)
		if err == nil {
			s.log.Info("qdrant collection created", zap.String("collection", s.collection), zap.Int("dimension", dimension))
		}
	}
	if err != nil {
		return err
	}
	s.ready = true
	return nil
}

// Add embeds entries and upserts them as points keyed by entry ID.
func (s *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := vectorstore.Validate(entries); err != nil {
		return err
	}
	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		v, err := s.embedder.Embed(ctx, vectorstore.Text(e))
		if err != nil {
			return fmt.Errorf("embedding entry %s: %w", e.ID, err)
		}
		points[i] = map[string]any{
			"id":     e.ID,
			"vector": v,
			"payload": map[string]any{
				vectorstore.KeyQuestion: e.Question,
				vectorstore.KeyKind:     string(e.Kind),
				"answer":                e.Answer,
			},
		}
	}
	if err := s.ensureCollection(ctx, len(points[0]["vector"].([]float64))); err != nil {
		return err
	}
	body := map[string]any{"points": points}
	return s.doJSON(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil)
}

type point struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (p point) entry() domain.IndexEntry {
	e := domain.IndexEntry{ID: fmt.Sprint(p.ID)}
	if v, ok := p.Payload[vectorstore.KeyQuestion].(string); ok {
		e.Question = v
	}
	if v, ok := p.Payload["answer"].(string); ok {
		e.Answer = v
	}
	if v, ok := p.Payload[vectorstore.KeyKind].(string); ok {
		e.Kind = domain.EntryKind(v)
	}
	return e
}

// Query returns up to k entries. Qdrant reports cosine similarity, which is
// converted to distance 1 - score. A missing collection is an empty index.
func (s *Index) Query(ctx context.Context, text string, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	req := map[string]any{
		"vector":       v,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []point `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodPost, s.collectionURL()+"/points/search", req, &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	hits := make([]domain.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		d := 1 - r.Score
		if d < 0 {
			d = 0
		}
		hits = append(hits, domain.Hit{Entry: r.entry(), Distance: d})
	}
	return hits, nil
}

func questionFilter(q string) map[string]any {
	return map[string]any{
		"must": []map[string]any{{
			"key":   vectorstore.KeyQuestion,
			"match": map[string]any{"value": q},
		}},
	}
}

// Delete removes every point whose question equals filter.Question.
func (s *Index) Delete(ctx context.Context, filter domain.Filter) (int, error) {
	if filter.Question == "" {
		return 0, vectorstore.ErrEmptyFilter
	}
	matched, err := s.Get(ctx, &filter)
	if err != nil || len(matched) == 0 {
		return 0, err
	}
	body := map[string]any{"filter": questionFilter(filter.Question)}
	if err := s.doJSON(ctx, http.MethodPost, s.collectionURL()+"/points/delete?wait=true", body, nil); err != nil {
		return 0, err
	}
	return len(matched), nil
}

const scrollPage = 256

// Get scrolls through the collection collecting points that pass filter.
func (s *Index) Get(ctx context.Context, filter *domain.Filter) ([]domain.IndexEntry, error) {
	var out []domain.IndexEntry
	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPage,
			"with_payload": true,
			"with_vector":  false,
		}
		if filter != nil {
			req["filter"] = questionFilter(filter.Question)
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points         []point `json:"points"`
				NextPageOffset any     `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.doJSON(ctx, http.MethodPost, s.collectionURL()+"/points/scroll", req, &resp); err != nil {
			if isNotFound(err) {
				return out, nil
			}
			return nil, err
		}
		for _, p := range resp.Result.Points {
			out = append(out, p.entry())
		}
		if resp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *Index) doJSON(ctx context.Context, method, url string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{method: method, url: url, code: resp.StatusCode, status: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
