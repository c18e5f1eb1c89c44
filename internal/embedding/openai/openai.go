package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"sarthi/internal/logger"
)

// ErrNoEmbedding is returned when the server answers without a vector.
var ErrNoEmbedding = errors.New("no embedding returned")

// Client is an OpenAI-compatible embeddings client. It also understands the
// Ollama-native response shape.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
	log        *zap.Logger

	mu        sync.Mutex
	dimension int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL string
	// APIKeyEnv names the environment variable holding the key. Empty means
	// the server needs no key (e.g. a local Ollama).
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	Logger     *zap.Logger
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 5
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: retries,
		log:        logger.OrNop(cfg.Logger),
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding. Dimension is set on first embed.
func (c *Client) Prepare([]string) error { return nil }

// Dimension returns the dimensionality seen so far, or 0 before the first call.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

// Embed returns an embedding vector for the given text, retrying on
// throttling, server errors and undecodable bodies.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	type reqBody struct {
		Input  string `json:"input,omitempty"`
		Prompt string `json:"prompt,omitempty"`
		Model  string `json:"model"`
	}
	url := c.baseURL + "/embeddings"
	data, err := json.Marshal(reqBody{Input: text, Prompt: text, Model: c.model})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff(attempt-1, lastErr)); err != nil {
				return nil, err
			}
			c.log.Debug("retrying embedding", zap.Int("attempt", attempt), zap.Error(lastErr))
		}
		v, retry, err := c.do(ctx, url, data)
		if err == nil {
			c.mu.Lock()
			if c.dimension == 0 {
				c.dimension = len(v)
			}
			c.mu.Unlock()
			return v, nil
		}
		if !retry || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

type retryAfterError struct {
	status string
	wait   time.Duration
}

func (e *retryAfterError) Error() string { return "openai embeddings failed: " + e.status }

func (c *Client) do(ctx context.Context, url string, data []byte) ([]float64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		rae := &retryAfterError{status: resp.Status}
		// Respect Retry-After if provided
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			rae.wait = time.Duration(secs) * time.Second
		}
		return nil, true, rae
	}
	if resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("openai embeddings failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	// OpenAI-compatible shape first
	var openaiOut struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, false, nil
		}
	}
	// Ollama-native shape: { "embedding": [...] }
	var ollamaOut struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, false, nil
	}
	return nil, true, ErrNoEmbedding
}

func (c *Client) backoff(attempt int, err error) time.Duration {
	var rae *retryAfterError
	if errors.As(err, &rae) && rae.wait > 0 {
		return rae.wait
	}
	return retryDelay(attempt)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second || d <= 0 {
		d = 5 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
