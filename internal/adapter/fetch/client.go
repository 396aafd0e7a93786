// Package fetch provides the shared HTTP plumbing for feed adapters: a
// timeout-bounded GET client and a TTL payload cache for slow-moving feeds.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Getter fetches a raw payload from a URL. Implemented by Client and by
// CachedClient; adapters depend on this interface so tests can stub payloads.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client is a minimal HTTP GET client with a hard timeout.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a Client. The timeout bounds the whole request,
// including body read.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "road-hazard-service/1.0",
	}
}

// Get fetches the URL and returns the response body. Non-2xx statuses are
// errors.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", url, err)
	}
	return body, nil
}
