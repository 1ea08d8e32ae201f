// Package goproxy implements the proxy.golang.org client.
//
// Version lists come from the @v/list endpoint; modules that predate
// tagged releases fall back to @latest, which yields a pseudo-version.
// Module paths with uppercase letters are escaped per the module proxy
// protocol ("!a" for "A"). The proxy has no search endpoint.
package goproxy

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/mod/module"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/httputil"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Client provides access to the Go module proxy. All methods are safe for
// concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a module proxy client over the given HTTP cache.
func NewClient(cache *httputil.Cache) *Client {
	return NewClientWithURL(cache, "https://proxy.golang.org")
}

// NewClientWithURL creates a client against an alternative endpoint.
func NewClientWithURL(cache *httputil.Cache, baseURL string) *Client {
	return &Client{
		Client:  integrations.NewClient(cache, nil),
		baseURL: baseURL,
	}
}

// Name returns the registry identifier.
func (c *Client) Name() string { return "goproxy" }

// Versions fetches tagged versions from @v/list, newest-first; tags with a
// pre-release suffix are flagged as pre-releases. A module with no tags
// falls back to @latest, and its pseudo-version is reported as a release
// because it is the only version there is.
func (c *Client) Versions(ctx context.Context, name string) ([]deps.VersionInfo, error) {
	escaped, err := module.EscapePath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integrations.ErrNotFound, name, err)
	}

	body, _, err := c.GetText(ctx, fmt.Sprintf("%s/%s/@v/list", c.baseURL, escaped))
	if err != nil {
		return nil, err
	}

	var versions []deps.VersionInfo
	for _, line := range strings.Split(body, "\n") {
		ver := strings.TrimSpace(line)
		if ver == "" {
			continue
		}
		versions = append(versions, versionInfo(ver))
	}

	if len(versions) == 0 {
		// Untagged module: @latest serves a pseudo-version.
		latest, err := c.fetchLatest(ctx, escaped)
		if err != nil {
			return nil, err
		}
		v := versionInfo(latest)
		v.Prerelease = false // the pseudo-version is all there is
		versions = append(versions, v)
	}

	deps.SortVersionsDesc(versions)
	return versions, nil
}

// Metadata reports the module path and its latest version; the proxy
// carries no descriptions.
func (c *Client) Metadata(ctx context.Context, name string) (*deps.Metadata, error) {
	escaped, err := module.EscapePath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integrations.ErrNotFound, name, err)
	}
	latest, err := c.fetchLatest(ctx, escaped)
	if err != nil {
		return nil, err
	}
	return &deps.Metadata{
		Name:          name,
		Documentation: "https://pkg.go.dev/" + name,
		Latest:        latest,
	}, nil
}

// Search returns no results: the module proxy has no search endpoint.
func (c *Client) Search(ctx context.Context, prefix string, limit int) ([]deps.Metadata, error) {
	return nil, nil
}

func (c *Client) fetchLatest(ctx context.Context, escaped string) (string, error) {
	var data struct {
		Version string `json:"Version"`
	}
	if _, err := c.GetJSON(ctx, fmt.Sprintf("%s/%s/@latest", c.baseURL, escaped), &data); err != nil {
		return "", err
	}
	return data.Version, nil
}

func versionInfo(ver string) deps.VersionInfo {
	pre := false
	if v, err := semver.Parse(ver); err == nil {
		pre = v.IsPrerelease()
	}
	return deps.VersionInfo{Version: ver, Prerelease: pre}
}

var _ deps.Registry = (*Client)(nil)
