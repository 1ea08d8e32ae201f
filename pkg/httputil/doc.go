// Package httputil provides HTTP infrastructure for package registry
// clients.
//
// # Caching
//
// [Cache] is a validated in-memory HTTP cache keyed by full URL. Entries
// carry ETag / Last-Modified validators; expired entries are revalidated
// with conditional requests, and a 304 renews the entry without
// re-downloading the body. Total cached bytes are bounded, with
// oldest-first eviction driven by a min-heap.
//
//	cache := httputil.NewCache(httputil.Options{
//	    FreshFor:  5 * time.Minute,
//	    UserAgent: "deps-lsp/1.0",
//	})
//	res, err := cache.Fetch(ctx, url, nil)
//
// Revalidation is best-effort: if the registry is unreachable the stale
// body is served with Result.Stale set, so callers can keep answering
// editor requests without raising false negatives.
//
// # Error classification
//
// Failures the cache cannot absorb surface as either
// [ErrStatusNotFound] (404/410) or a [TransportError] (connection
// errors, timeouts, 5xx). The distinction drives the callers' policies:
// not-found is final, transport-level failures are worth one retry and
// never classify a package as unknown.
package httputil
