// Package npm implements the registry.npmjs.org client.
//
// Version lists use the abbreviated install metadata (a fraction of the
// full packument); hover metadata uses the full document; search uses the
// registry's v1 search endpoint. A version carrying a "deprecated" notice
// is treated like a yanked version: it never becomes "latest stable".
package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/httputil"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Client provides access to the npm registry. All methods are safe for
// concurrent use.
type Client struct {
	abbreviated *integrations.Client
	full        *integrations.Client
	baseURL     string
}

// NewClient creates an npm registry client over the given HTTP cache.
func NewClient(cache *httputil.Cache) *Client {
	return NewClientWithURL(cache, "https://registry.npmjs.org")
}

// NewClientWithURL creates a client against an alternative endpoint.
// Tests point this at httptest servers.
func NewClientWithURL(cache *httputil.Cache, baseURL string) *Client {
	return &Client{
		abbreviated: integrations.NewClient(cache, map[string]string{
			"Accept": "application/vnd.npm.install-v1+json",
		}),
		full:    integrations.NewClient(cache, nil),
		baseURL: baseURL,
	}
}

// Name returns the registry identifier.
func (c *Client) Name() string { return "npm" }

// Versions fetches all published versions, newest-first. Deprecated
// versions are flagged as yanked.
func (c *Client) Versions(ctx context.Context, name string) ([]deps.VersionInfo, error) {
	if err := integrations.CheckName(name); err != nil {
		return nil, err
	}
	var data packument
	if _, err := c.abbreviated.GetJSON(ctx, c.packageURL(name), &data); err != nil {
		return nil, err
	}

	versions := make([]deps.VersionInfo, 0, len(data.Versions))
	for ver, meta := range data.Versions {
		pre := false
		if v, err := semver.Parse(ver); err == nil {
			pre = v.IsPrerelease()
		}
		versions = append(versions, deps.VersionInfo{
			Version:    ver,
			Prerelease: pre,
			Yanked:     deprecated(meta.Deprecated),
		})
	}
	deps.SortVersionsDesc(versions)
	return versions, nil
}

// Metadata fetches the full packument for hover information.
func (c *Client) Metadata(ctx context.Context, name string) (*deps.Metadata, error) {
	if err := integrations.CheckName(name); err != nil {
		return nil, err
	}
	var data fullPackument
	if _, err := c.full.GetJSON(ctx, c.packageURL(name), &data); err != nil {
		return nil, err
	}
	repo := data.Repository.URL
	return &deps.Metadata{
		Name:        data.Name,
		Description: data.Description,
		Homepage:    data.Homepage,
		Repository:  repo,
		Latest:      data.DistTags.Latest,
	}, nil
}

// Search queries the registry search endpoint.
func (c *Client) Search(ctx context.Context, prefix string, limit int) ([]deps.Metadata, error) {
	if err := integrations.CheckName(prefix); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/-/v1/search?text=%s&size=%d", c.baseURL, url.QueryEscape(prefix), limit)
	var data searchResponse
	if _, err := c.full.GetJSON(ctx, u, &data); err != nil {
		return nil, err
	}
	results := make([]deps.Metadata, 0, len(data.Objects))
	for _, o := range data.Objects {
		results = append(results, deps.Metadata{
			Name:        o.Package.Name,
			Description: o.Package.Description,
			Latest:      o.Package.Version,
		})
	}
	return results, nil
}

// packageURL escapes scoped package names (@scope/name) per the registry's
// URL scheme: the slash inside the scope is percent-encoded.
func (c *Client) packageURL(name string) string {
	if strings.HasPrefix(name, "@") {
		name = strings.Replace(name, "/", "%2F", 1)
	}
	return c.baseURL + "/" + name
}

type packument struct {
	Versions map[string]struct {
		Deprecated json.RawMessage `json:"deprecated"`
	} `json:"versions"`
}

// deprecated interprets the registry's "deprecated" field, which is a
// message string in practice but occasionally a boolean.
func deprecated(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "false", "null", `""`:
		return false
	}
	return true
}

type fullPackument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Homepage    string `json:"homepage"`
	DistTags    struct {
		Latest string `json:"latest"`
	} `json:"dist-tags"`
	Repository struct {
		URL string `json:"url"`
	} `json:"repository"`
	Time map[string]time.Time `json:"time"`
}

type searchResponse struct {
	Objects []struct {
		Package struct {
			Name        string `json:"name"`
			Version     string `json:"version"`
			Description string `json:"description"`
		} `json:"package"`
	} `json:"objects"`
}

var _ deps.Registry = (*Client)(nil)
