// Package geohttp is the shared plumbing of the HTTP geo providers: one
// rate limiter per upstream, a fixed User-Agent, provider metrics and
// mapping of every failure onto domain.ErrTransport.
package geohttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/pkg/metrics"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Config tunes a Client.
type Config struct {
	Provider       string // metrics label, e.g. "nominatim"
	UserAgent      string
	RequestsPerSec float64
	Timeout        time.Duration
	HTTPClient     *http.Client // optional
}

// Client performs rate-limited JSON GET requests.
type Client struct {
	provider   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Client. Zero values fall back to 1 req/s and a 30s timeout.
func New(cfg Config) *Client {
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		provider:   cfg.Provider,
		userAgent:  cfg.UserAgent,
		httpClient: hc,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

// GetJSON fetches rawURL and decodes the body into out. Any failure,
// including a non-2xx status, is wrapped in domain.ErrTransport.
func (c *Client) GetJSON(ctx context.Context, operation, rawURL string, out any) (err error) {
	started := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ObserveProvider(c.provider, operation, outcome, started)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s rate limit wait: %w", domain.ErrTransport, c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, c.provider, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return fmt.Errorf("%w: %s %s: HTTP %d", domain.ErrTransport, c.provider, operation, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: decode: %w", domain.ErrTransport, c.provider, operation, err)
	}
	return nil
}
