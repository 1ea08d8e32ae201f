package lsp

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults(log.New(os.Stderr))

	if !*cfg.InlayHints.Enabled || cfg.InlayHints.UpToDateText != "✅" || cfg.InlayHints.NeedsUpdateTxt != "❌ {}" {
		t.Errorf("inlay defaults = %+v", cfg.InlayHints)
	}
	if cfg.Diagnostics.OutdatedSeverity != "hint" || cfg.Diagnostics.UnknownSeverity != "warning" || cfg.Diagnostics.YankedSeverity != "warning" {
		t.Errorf("diagnostic defaults = %+v", cfg.Diagnostics)
	}
	if cfg.Cache.FetchTimeoutSecs != 5 || cfg.Cache.MaxConcurrentFetch != 20 || cfg.Cache.RefreshIntervalSecs != 300 {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
	if cfg.LoadingIndicator.LoadingText != "⏳" {
		t.Errorf("loading defaults = %+v", cfg.LoadingIndicator)
	}
	if cfg.ColdStart.RateLimitMS != 100 {
		t.Errorf("cold start defaults = %+v", cfg.ColdStart)
	}
	if cfg.BatchTimeout() != 2*cfg.FetchTimeout() {
		t.Error("batch timeout must be twice the fetch timeout")
	}
}

func TestConfig_Clamping(t *testing.T) {
	cfg := Config{}
	cfg.Cache.FetchTimeoutSecs = 9999
	cfg.Cache.MaxConcurrentFetch = -3
	cfg.Diagnostics.OutdatedSeverity = "fatal"

	out := cfg.withDefaults(log.New(os.Stderr))
	if out.Cache.FetchTimeoutSecs != 300 {
		t.Errorf("fetch timeout clamped to %d, want 300", out.Cache.FetchTimeoutSecs)
	}
	if out.Cache.MaxConcurrentFetch != 1 {
		t.Errorf("concurrency clamped to %d, want 1", out.Cache.MaxConcurrentFetch)
	}
	if out.Diagnostics.OutdatedSeverity != "hint" {
		t.Errorf("invalid severity replaced with %q, want hint", out.Diagnostics.OutdatedSeverity)
	}
}

func TestConfig_DecodeFromInitializationOptions(t *testing.T) {
	raw := `{
		"inlay_hints": {"enabled": false, "needs_update_text": "! {}"},
		"cache": {"fetch_timeout_secs": 10, "max_concurrent_fetches": 5},
		"cold_start": {"rate_limit_ms": 250}
	}`
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	out := cfg.withDefaults(log.New(os.Stderr))

	if *out.InlayHints.Enabled {
		t.Error("enabled=false should survive defaulting")
	}
	if out.InlayHints.NeedsUpdateTxt != "! {}" {
		t.Errorf("needs_update_text = %q", out.InlayHints.NeedsUpdateTxt)
	}
	if out.FetchTimeout() != 10*time.Second || out.Cache.MaxConcurrentFetch != 5 {
		t.Errorf("cache config = %+v", out.Cache)
	}
	if out.ColdStart.RateLimitMS != 250 {
		t.Errorf("rate limit = %d", out.ColdStart.RateLimitMS)
	}
}
