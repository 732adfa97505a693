// Package remote downloads API responses with rate-limit retries and an
// optional response cache.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hybrid_simulator/internal/cache"
	"hybrid_simulator/internal/log"
)

const (
	defaultMaxRetries = 5
	defaultRetryWait  = 5 * time.Second
	defaultTimeout    = 60 * time.Second
)

// Getter returns the body of a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Fetcher performs GET requests. Successful bodies are stored in Cache
// keyed by URL and served from it on later calls.
type Fetcher struct {
	Client     *http.Client
	Cache      cache.Cache
	MaxRetries int
	// RetryWait is multiplied by the attempt number after each 429.
	RetryWait time.Duration
}

// NewFetcher returns a fetcher with a timeout-bound client. A nil cache
// disables caching.
func NewFetcher(c cache.Cache) *Fetcher {
	if c == nil {
		c = cache.Nop{}
	}
	return &Fetcher{
		Client:     &http.Client{Timeout: defaultTimeout},
		Cache:      c,
		MaxRetries: defaultMaxRetries,
		RetryWait:  defaultRetryWait,
	}
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned %d: %s", e.URL, e.Status, e.Body)
}

// Get returns the body of url.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	logger := log.Ctx(ctx)

	c := f.Cache
	if c == nil {
		c = cache.Nop{}
	}
	if data, ok, err := c.Get(ctx, url); err != nil {
		logger.WarnContext(ctx, "cache read failed", slog.String("url", url), slog.Any("error", err))
	} else if ok {
		logger.DebugContext(ctx, "cache hit", slog.String("url", url))
		return data, nil
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxRetries := f.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		logger.DebugContext(ctx, "fetching", slog.String("url", url), slog.Int("attempt", attempt+1))

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := time.Duration(attempt+1) * f.RetryWait
			logger.WarnContext(ctx, "rate limited",
				slog.String("url", url),
				slog.Duration("wait", wait),
				slog.Int("attempt", attempt+1),
				slog.Int("max_retries", maxRetries))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{URL: url, Status: resp.StatusCode, Body: truncate(string(body), 200)}
		}

		if err := c.Set(ctx, url, body); err != nil {
			logger.WarnContext(ctx, "cache write failed", slog.String("url", url), slog.Any("error", err))
		}
		return body, nil
	}
	return nil, fmt.Errorf("GET %s: still rate limited after %d attempts", url, maxRetries)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
