package httputil

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrNotModified is the internal classification of an HTTP 304 response.
// Callers of [Cache.Fetch] never see it surface as an error.
var ErrNotModified = errors.New("not modified")

// ErrStatusNotFound marks 404/410 responses so registry clients can map
// them onto their own not-found sentinel.
var ErrStatusNotFound = errors.New("not found")

// TransportError classifies a failure as transport-level: connection
// errors, timeouts, truncated bodies, and 5xx responses. The cache serves
// stale entries across these, and registry clients may retry them;
// anything else (4xx, malformed URLs) is final.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is transport-level in the sense above.
func IsTransport(err error) bool {
	return isTransport(err)
}

// DefaultMaxBytes bounds the total cached body size before eviction kicks in.
const DefaultMaxBytes = 64 << 20 // 64 MiB

// Result is the outcome of a cache lookup.
//
// Stale is set when revalidation failed with a transport error and the
// cached body was served anyway. Callers use it to avoid raising hard
// "unknown" diagnostics on data that is merely old.
type Result struct {
	Body  []byte
	Stale bool
}

type entry struct {
	body         []byte
	etag         string
	lastModified string
	fetchedAt    time.Time
	size         int
}

// Cache is a validated in-memory HTTP cache keyed by full URL.
//
// Each entry remembers the response body together with its ETag and
// Last-Modified validators. A lookup within the freshness window returns
// the body without network I/O. Past the window, a conditional request
// (If-None-Match / If-Modified-Since) revalidates the entry: a 304 renews
// it in place, a 200 replaces it, and a transport failure serves the stale
// body with Result.Stale set.
//
// Total body size is bounded; when an insert pushes the cache over the
// bound, the oldest entries by fetch time are evicted through a min-heap,
// so eviction costs O(log N) per entry instead of a full sort.
//
// All methods are safe for concurrent use.
type Cache struct {
	client    *http.Client
	freshFor  time.Duration
	maxBytes  int
	userAgent string

	mu      sync.Mutex
	entries map[string]*entry
	ages    ageHeap
	total   int
}

// Options configures a Cache.
type Options struct {
	Client    *http.Client  // HTTP client; nil uses a 10 s-timeout default
	FreshFor  time.Duration // freshness window before revalidation (0: always revalidate)
	MaxBytes  int           // total body bound; 0 uses DefaultMaxBytes
	UserAgent string        // sent with every request
}

// NewCache creates a Cache with the given options.
func NewCache(opts Options) *Cache {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{
		client:    client,
		freshFor:  opts.FreshFor,
		maxBytes:  maxBytes,
		userAgent: opts.UserAgent,
		entries:   make(map[string]*entry),
	}
}

// Fetch returns the body for url, consulting the cache first.
//
// A fresh entry is served without I/O. An expired entry is revalidated
// conditionally; on a revalidation transport error the stale body is
// returned with Result.Stale set instead of an error. A miss performs an
// unconditional fetch and stores the response.
func (c *Cache) Fetch(ctx context.Context, url string, headers map[string]string) (Result, error) {
	c.mu.Lock()
	e, ok := c.entries[url]
	if ok && c.freshFor > 0 && time.Since(e.fetchedAt) < c.freshFor {
		body := e.body
		c.mu.Unlock()
		return Result{Body: body}, nil
	}
	var etag, lastModified string
	var staleBody []byte
	if ok {
		etag, lastModified, staleBody = e.etag, e.lastModified, e.body
	}
	c.mu.Unlock()

	body, newETag, newLM, err := c.doFetch(ctx, url, headers, etag, lastModified)
	switch {
	case err == nil:
		c.store(url, body, newETag, newLM)
		return Result{Body: body}, nil
	case errors.Is(err, ErrNotModified):
		c.touch(url)
		return Result{Body: staleBody}, nil
	case ok && isTransport(err):
		// Best-effort revalidation: keep answering from the stale copy.
		return Result{Body: staleBody, Stale: true}, nil
	default:
		return Result{}, err
	}
}

// Invalidate drops the entry for url, if any.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[url]; ok {
		c.total -= e.size
		delete(c.entries, url)
	}
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TotalBytes reports the summed body size of live entries.
func (c *Cache) TotalBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Cache) doFetch(ctx context.Context, url string, headers map[string]string, etag, lastModified string) (body []byte, newETag, newLM string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", "", err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, "", "", ErrNotModified
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, "", "", fmt.Errorf("%w: status %d", ErrStatusNotFound, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, "", "", &TransportError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, "", "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", &TransportError{Err: err}
	}
	return body, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

func isTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func (c *Cache) store(url string, body []byte, etag, lastModified string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[url]; ok {
		c.total -= old.size
	}
	e := &entry{
		body:         body,
		etag:         etag,
		lastModified: lastModified,
		fetchedAt:    time.Now(),
		size:         len(body),
	}
	c.entries[url] = e
	c.total += e.size
	heap.Push(&c.ages, ageItem{url: url, fetchedAt: e.fetchedAt})
	c.evictLocked()
}

func (c *Cache) touch(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[url]; ok {
		e.fetchedAt = time.Now()
		heap.Push(&c.ages, ageItem{url: url, fetchedAt: e.fetchedAt})
	}
}

// evictLocked pops oldest-first until the size bound holds. Heap items are
// lazily invalidated: an item whose timestamp no longer matches the live
// entry is a leftover from a replace or touch and is skipped.
func (c *Cache) evictLocked() {
	for c.total > c.maxBytes && c.ages.Len() > 0 {
		item := heap.Pop(&c.ages).(ageItem)
		e, ok := c.entries[item.url]
		if !ok || !e.fetchedAt.Equal(item.fetchedAt) {
			continue
		}
		c.total -= e.size
		delete(c.entries, item.url)
	}
}

type ageItem struct {
	url       string
	fetchedAt time.Time
}

type ageHeap []ageItem

func (h ageHeap) Len() int           { return len(h) }
func (h ageHeap) Less(i, j int) bool { return h[i].fetchedAt.Before(h[j].fetchedAt) }
func (h ageHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *ageHeap) Push(x any)        { *h = append(*h, x.(ageItem)) }

func (h *ageHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
