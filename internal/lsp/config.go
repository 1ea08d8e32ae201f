package lsp

import (
	"time"

	"github.com/charmbracelet/log"
)

// Config mirrors the initializationOptions the editor sends. Every field
// is optional; zero values are replaced by defaults and out-of-range
// values are clamped with a log warning rather than rejected, so a typo
// in editor settings never prevents the server from starting.
type Config struct {
	InlayHints       InlayHintConfig  `json:"inlay_hints"`
	Diagnostics      DiagnosticConfig `json:"diagnostics"`
	Cache            CacheConfig      `json:"cache"`
	LoadingIndicator LoadingConfig    `json:"loading_indicator"`
	ColdStart        ColdStartConfig  `json:"cold_start"`
}

// InlayHintConfig controls the per-dependency status hints.
type InlayHintConfig struct {
	Enabled        *bool  `json:"enabled"`
	UpToDateText   string `json:"up_to_date_text"`
	NeedsUpdateTxt string `json:"needs_update_text"`
}

// DiagnosticConfig sets the severity per diagnostic kind. Accepted values
// are "error", "warning", "information", and "hint".
type DiagnosticConfig struct {
	OutdatedSeverity string `json:"outdated_severity"`
	UnknownSeverity  string `json:"unknown_severity"`
	YankedSeverity   string `json:"yanked_severity"`
}

// CacheConfig bounds the registry fetch pipeline.
type CacheConfig struct {
	Enabled             *bool `json:"enabled"`
	RefreshIntervalSecs int   `json:"refresh_interval_secs"`
	FetchTimeoutSecs    int   `json:"fetch_timeout_secs"`
	MaxConcurrentFetch  int   `json:"max_concurrent_fetches"`
}

// LoadingConfig controls the pending-fetch indicator.
type LoadingConfig struct {
	Enabled         *bool  `json:"enabled"`
	FallbackToHints *bool  `json:"fallback_to_hints"`
	LoadingText     string `json:"loading_text"`
}

// ColdStartConfig controls lazy initialization for documents the editor
// never announced with didOpen.
type ColdStartConfig struct {
	Enabled     *bool `json:"enabled"`
	RateLimitMS int   `json:"rate_limit_ms"`
}

const maxLoadingTextLen = 100

// withDefaults fills in defaults and clamps out-of-range values, logging
// each adjustment.
func (c Config) withDefaults(logger *log.Logger) Config {
	if c.InlayHints.Enabled == nil {
		c.InlayHints.Enabled = boolPtr(true)
	}
	if c.InlayHints.UpToDateText == "" {
		c.InlayHints.UpToDateText = "✅"
	}
	if c.InlayHints.NeedsUpdateTxt == "" {
		c.InlayHints.NeedsUpdateTxt = "❌ {}"
	}

	c.Diagnostics.OutdatedSeverity = validSeverity(logger, "outdated_severity", c.Diagnostics.OutdatedSeverity, "hint")
	c.Diagnostics.UnknownSeverity = validSeverity(logger, "unknown_severity", c.Diagnostics.UnknownSeverity, "warning")
	c.Diagnostics.YankedSeverity = validSeverity(logger, "yanked_severity", c.Diagnostics.YankedSeverity, "warning")

	if c.Cache.Enabled == nil {
		c.Cache.Enabled = boolPtr(true)
	}
	if c.Cache.RefreshIntervalSecs <= 0 {
		c.Cache.RefreshIntervalSecs = 300
	}
	c.Cache.FetchTimeoutSecs = clampInt(logger, "fetch_timeout_secs", c.Cache.FetchTimeoutSecs, 5, 1, 300)
	c.Cache.MaxConcurrentFetch = clampInt(logger, "max_concurrent_fetches", c.Cache.MaxConcurrentFetch, 20, 1, 100)

	if c.LoadingIndicator.Enabled == nil {
		c.LoadingIndicator.Enabled = boolPtr(true)
	}
	if c.LoadingIndicator.FallbackToHints == nil {
		c.LoadingIndicator.FallbackToHints = boolPtr(true)
	}
	if c.LoadingIndicator.LoadingText == "" {
		c.LoadingIndicator.LoadingText = "⏳"
	}
	if len(c.LoadingIndicator.LoadingText) > maxLoadingTextLen {
		logger.Warn("loading_text too long, truncating", "len", len(c.LoadingIndicator.LoadingText))
		c.LoadingIndicator.LoadingText = c.LoadingIndicator.LoadingText[:maxLoadingTextLen]
	}

	if c.ColdStart.Enabled == nil {
		c.ColdStart.Enabled = boolPtr(true)
	}
	if c.ColdStart.RateLimitMS <= 0 {
		c.ColdStart.RateLimitMS = 100
	}

	return c
}

// FetchTimeout returns the per-dependency fetch deadline.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Cache.FetchTimeoutSecs) * time.Second
}

// BatchTimeout returns the collective deadline for one fetch batch.
func (c Config) BatchTimeout() time.Duration {
	return 2 * c.FetchTimeout()
}

// RefreshInterval returns the soft freshness window for cached registry
// responses.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.Cache.RefreshIntervalSecs) * time.Second
}

func clampInt(logger *log.Logger, name string, v, def, lo, hi int) int {
	if v == 0 {
		return def
	}
	if v < lo {
		logger.Warn("config value below minimum, clamping", "option", name, "value", v, "min", lo)
		return lo
	}
	if v > hi {
		logger.Warn("config value above maximum, clamping", "option", name, "value", v, "max", hi)
		return hi
	}
	return v
}

func validSeverity(logger *log.Logger, name, v, def string) string {
	switch v {
	case "":
		return def
	case "error", "warning", "information", "hint":
		return v
	}
	logger.Warn("invalid severity, using default", "option", name, "value", v, "default", def)
	return def
}

func boolPtr(b bool) *bool { return &b }
