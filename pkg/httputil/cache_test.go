package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_MissThenHit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewCache(Options{FreshFor: time.Hour})

	res, err := c.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(res.Body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", res.Body)
	}

	// Second fetch within the freshness window must not hit the network.
	if _, err := c.Fetch(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}
}

func TestCache_Revalidate304(t *testing.T) {
	var conditional int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			atomic.AddInt32(&conditional, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("body"))
	}))
	defer server.Close()

	// FreshFor 0: every lookup past the first revalidates.
	c := NewCache(Options{FreshFor: 0})

	if _, err := c.Fetch(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("initial fetch failed: %v", err)
	}
	res, err := c.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("revalidation failed: %v", err)
	}
	if string(res.Body) != "body" {
		t.Errorf("304 should return cached body, got %q", res.Body)
	}
	if res.Stale {
		t.Error("304 revalidation should not mark result stale")
	}
	if atomic.LoadInt32(&conditional) != 1 {
		t.Error("expected a conditional request")
	}
}

func TestCache_StaleOnTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("cached"))
	}))

	c := NewCache(Options{FreshFor: 0})
	if _, err := c.Fetch(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("initial fetch failed: %v", err)
	}

	url := server.URL
	server.Close() // revalidation now fails at the transport level

	res, err := c.Fetch(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("expected stale result, got error: %v", err)
	}
	if !res.Stale {
		t.Error("result should be marked stale")
	}
	if string(res.Body) != "cached" {
		t.Errorf("stale body = %q, want %q", res.Body, "cached")
	}
}

func TestCache_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewCache(Options{})
	_, err := c.Fetch(context.Background(), server.URL, nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestCache_Eviction(t *testing.T) {
	payload := make([]byte, 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	c := NewCache(Options{FreshFor: time.Hour, MaxBytes: 4 * 1024})

	for _, path := range []string{"/a", "/b", "/c", "/d", "/e", "/f"} {
		if _, err := c.Fetch(context.Background(), server.URL+path, nil); err != nil {
			t.Fatalf("fetch %s failed: %v", path, err)
		}
	}

	if c.TotalBytes() > 4*1024 {
		t.Errorf("cache exceeds bound: %d bytes", c.TotalBytes())
	}
	if c.Len() > 4 {
		t.Errorf("too many live entries: %d", c.Len())
	}
}

func TestIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewCache(Options{})

	_, err := c.Fetch(context.Background(), server.URL+"/down", nil)
	if !IsTransport(err) {
		t.Errorf("5xx should classify as transport, got %v", err)
	}

	_, err = c.Fetch(context.Background(), server.URL+"/missing", nil)
	if IsTransport(err) {
		t.Errorf("404 must not classify as transport, got %v", err)
	}

	if IsTransport(nil) {
		t.Error("nil is not a transport error")
	}
}
