// Package client calls the chat endpoints of a running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sarthi/internal/domain"
	"sarthi/internal/localize"
)

// Client is a minimal REST client for /chat and /greet.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), client: &http.Client{Timeout: timeout}}
}

// Chat sends a question; lang may be empty to let the server detect it.
func (c *Client) Chat(ctx context.Context, query, lang string) (domain.LocalizedResponse, error) {
	var out domain.LocalizedResponse
	body, err := json.Marshal(map[string]string{"query": query, "lang": lang})
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	err = c.do(req, &out)
	return out, err
}

// Greet fetches the welcome message for lang.
func (c *Client) Greet(ctx context.Context, lang, theme string) (localize.Greeting, error) {
	var out localize.Greeting
	params := url.Values{}
	params.Set("lang", lang)
	params.Set("color", theme)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/greet?"+params.Encode(), nil)
	if err != nil {
		return out, err
	}
	err = c.do(req, &out)
	return out, err
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var e struct {
			Detail string `json:"detail"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &e) == nil && e.Detail != "" {
			return fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Path, resp.Status, e.Detail)
		}
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
