package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to the public Google Translate "gtx" endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Config configures the translation client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// QPS caps outbound requests per second; 0 disables the limit.
	QPS   float64
	Burst int
}

// NewClient creates a translation client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://translate.googleapis.com"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.QPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), burst)
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: t},
		limiter: limiter,
	}
}

// Translate translates text from source ("auto" allowed) to target.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if target == "" {
		return "", errors.New("missing target language")
	}
	if source == "" {
		source = "auto"
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	endpoint := fmt.Sprintf("%s/translate_a/single?%s", c.baseURL, params.Encode())
	form := url.Values{"q": {text}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling translate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("translate %s->%s failed: %s", source, target, resp.Status)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return parseSegments(payload)
}

// parseSegments extracts the translation from the nested array response:
// [[["translated","original",...],...],null,"src",...]
func parseSegments(payload []byte) (string, error) {
	var out []any
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(out) == 0 {
		return "", errors.New("empty translate response")
	}
	segments, ok := out[0].([]any)
	if !ok {
		return "", errors.New("unexpected translate response shape")
	}
	var sb strings.Builder
	for _, s := range segments {
		seg, ok := s.([]any)
		if !ok || len(seg) == 0 {
			continue
		}
		if part, ok := seg[0].(string); ok {
			sb.WriteString(part)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no translation returned")
	}
	return sb.String(), nil
}
