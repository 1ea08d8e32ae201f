package pypi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/deps-lsp/pkg/httputil"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
)

func testCache() *httputil.Cache {
	return httputil.NewCache(httputil.Options{FreshFor: time.Hour})
}

func TestNormalizePyPIName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Django", "django"},
		{"typing_extensions", "typing-extensions"},
		{"ruamel.yaml", "ruamel-yaml"},
		{"A__B--C", "a-b-c"},
	}
	for _, tt := range tests {
		if got := integrations.NormalizePyPIName(tt.input); got != tt.want {
			t.Errorf("NormalizePyPIName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClient_Versions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/django/json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{
			"info":{"name":"Django","version":"5.1.1","summary":"web framework"},
			"releases":{
				"5.1.1":[{"yanked":false,"upload_time_iso_8601":"2024-09-03T10:00:00Z"}],
				"5.0.0":[{"yanked":true},{"yanked":true}],
				"5.2a1":[{"yanked":false}]
			}
		}`))
	}))
	defer server.Close()

	c := NewClientWithURL(testCache(), server.URL)
	versions, err := c.Versions(context.Background(), "Django")
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}

	byVer := map[string]int{}
	for i, v := range versions {
		byVer[v.Version] = i
	}
	if !versions[byVer["5.0.0"]].Yanked {
		t.Error("5.0.0 with all files yanked should be yanked")
	}
	if !versions[byVer["5.2a1"]].Prerelease {
		t.Error("5.2a1 should be a prerelease")
	}
	if versions[byVer["5.1.1"]].PublishedAt == nil {
		t.Error("5.1.1 should carry a publish date")
	}
}

func TestClient_Metadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info":{"name":"requests","version":"2.32.3","summary":"HTTP for humans",
			"home_page":"https://requests.readthedocs.io",
			"project_urls":{"Documentation":"https://requests.readthedocs.io"}},"releases":{}}`))
	}))
	defer server.Close()

	c := NewClientWithURL(testCache(), server.URL)
	meta, err := c.Metadata(context.Background(), "requests")
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if meta.Latest != "2.32.3" || meta.Documentation == "" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestClient_SearchUnsupported(t *testing.T) {
	c := NewClientWithURL(testCache(), "http://unused")
	results, err := c.Search(context.Background(), "req", 5)
	if err != nil {
		t.Fatalf("Search should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}
