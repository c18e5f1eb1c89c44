package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url, Model: "nomic-embed-text", MaxRetries: 2})
	require.NoError(t, err)
	return c
}

func TestEmbedOpenAIShape(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "library hours", body["input"])
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_EMBED_KEY"})
	require.NoError(t, err)
	v, err := c.Embed(context.Background(), "library hours")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, v)
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbedOllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"embedding":[1,0]}`))
	}))
	defer srv.Close()

	v, err := newTestClient(t, srv.URL).Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, v)
}

func TestEmbedRetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"embedding":[0.5]}`))
	}))
	defer srv.Close()

	v, err := newTestClient(t, srv.URL).Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Embed(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(t, srv.URL).Embed(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_EMBED_KEY"})
	assert.Error(t, err)
}
