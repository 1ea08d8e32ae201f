package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/deps-lsp/pkg/httputil"
)

// retryBackoff is the pause before the single retry a registry request
// gets. One retry is all the per-dependency timeout budget allows: the
// orchestrator caps each fetch at a few seconds, and a second failure in
// a row almost always means the registry is down, where the cache's
// stale-serving path takes over anyway.
const retryBackoff = 300 * time.Millisecond

// Client provides shared HTTP functionality for all registry API clients:
// cached conditional fetching, a bounded retry on transport failures, and
// error normalization onto [ErrNotFound] / [ErrNetwork].
type Client struct {
	cache   *httputil.Cache
	headers map[string]string
}

// NewClient creates a Client over the given cache with default headers.
// Headers are applied to all requests made through this client; pass nil
// if none are needed.
func NewClient(cache *httputil.Cache, headers map[string]string) *Client {
	return &Client{cache: cache, headers: headers}
}

// GetJSON fetches url through the cache and JSON-decodes the body into v.
// The stale result reports whether the body came from an entry that could
// not be revalidated.
func (c *Client) GetJSON(ctx context.Context, url string, v any) (stale bool, err error) {
	body, stale, err := c.GetBytes(ctx, url)
	if err != nil {
		return stale, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return stale, fmt.Errorf("%s: decoding response: %w", url, err)
	}
	return stale, nil
}

// GetText fetches url through the cache and returns the body as a string.
// Useful for plain-text endpoints like the Go proxy's @v/list.
func (c *Client) GetText(ctx context.Context, url string) (string, bool, error) {
	body, stale, err := c.GetBytes(ctx, url)
	return string(body), stale, err
}

// GetBytes fetches url through the cache and returns the raw body.
//
// A transport-level failure (connection error, timeout, 5xx) earns one
// retry after a short pause, trimmed so the pause never eats more than a
// quarter of whatever deadline remains on ctx. HTTP 404/410 map to
// [ErrNotFound]; transport failures that survive the retry map to
// [ErrNetwork].
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, bool, error) {
	res, err := c.cache.Fetch(ctx, url, c.headers)
	if err != nil && httputil.IsTransport(err) {
		select {
		case <-ctx.Done():
			return nil, false, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
		case <-time.After(backoffWithin(ctx)):
		}
		res, err = c.cache.Fetch(ctx, url, c.headers)
	}
	if err != nil {
		if errors.Is(err, httputil.ErrStatusNotFound) {
			return nil, false, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		return nil, false, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return res.Body, res.Stale, nil
}

// backoffWithin shortens the retry pause when the context deadline is
// close, so the retried request still has most of the budget to run in.
func backoffWithin(ctx context.Context) time.Duration {
	delay := retryBackoff
	if deadline, ok := ctx.Deadline(); ok {
		if budget := time.Until(deadline) / 4; budget < delay {
			delay = budget
		}
	}
	return max(delay, 0)
}
