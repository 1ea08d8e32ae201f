package npm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/deps-lsp/pkg/httputil"
)

func testCache() *httputil.Cache {
	return httputil.NewCache(httputil.Options{FreshFor: time.Hour})
}

func TestClient_Versions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lodash" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"versions":{
			"4.17.20":{},
			"4.17.21":{},
			"5.0.0-beta.1":{},
			"3.10.1":{"deprecated":"use v4"}
		}}`))
	}))
	defer server.Close()

	c := NewClientWithURL(testCache(), server.URL)
	versions, err := c.Versions(context.Background(), "lodash")
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 4 {
		t.Fatalf("expected 4 versions, got %d", len(versions))
	}
	if versions[0].Version != "5.0.0-beta.1" || !versions[0].Prerelease {
		t.Errorf("versions[0] = %+v, want prerelease 5.0.0-beta.1", versions[0])
	}
	for _, v := range versions {
		if v.Version == "3.10.1" && !v.Yanked {
			t.Error("deprecated version should be flagged yanked")
		}
	}
}

func TestClient_ScopedPackageURL(t *testing.T) {
	c := NewClientWithURL(testCache(), "https://registry.npmjs.org")
	got := c.packageURL("@types/node")
	want := "https://registry.npmjs.org/@types%2Fnode"
	if got != want {
		t.Errorf("packageURL = %q, want %q", got, want)
	}
}

func TestClient_Metadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"lodash","description":"utility library",
			"homepage":"https://lodash.com","dist-tags":{"latest":"4.17.21"}}`))
	}))
	defer server.Close()

	c := NewClientWithURL(testCache(), server.URL)
	meta, err := c.Metadata(context.Background(), "lodash")
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if meta.Latest != "4.17.21" || meta.Description != "utility library" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/-/v1/search" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"objects":[{"package":{"name":"lodash","version":"4.17.21","description":"x"}}]}`))
	}))
	defer server.Close()

	c := NewClientWithURL(testCache(), server.URL)
	results, err := c.Search(context.Background(), "lod", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "lodash" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestDeprecated(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{``, false},
		{`false`, false},
		{`null`, false},
		{`""`, false},
		{`"use v4 instead"`, true},
		{`true`, true},
	}
	for _, tt := range tests {
		if got := deprecated([]byte(tt.raw)); got != tt.want {
			t.Errorf("deprecated(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
