// Package crates implements the crates.io registry client.
//
// Version lists come from the sparse index (index.crates.io), which is
// cheap and carries yank flags; descriptive metadata and search use the
// crates.io API. crates.io requires an identifying User-Agent; the shared
// cache sets one on every request.
package crates

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/httputil"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Client provides access to crates.io. All methods are safe for
// concurrent use.
type Client struct {
	*integrations.Client
	indexURL string
	apiURL   string
}

// NewClient creates a crates.io client over the given HTTP cache.
func NewClient(cache *httputil.Cache) *Client {
	return &Client{
		Client:   integrations.NewClient(cache, nil),
		indexURL: "https://index.crates.io",
		apiURL:   "https://crates.io/api/v1",
	}
}

// NewClientWithURLs creates a client against alternative endpoints. Tests
// point this at httptest servers.
func NewClientWithURLs(cache *httputil.Cache, indexURL, apiURL string) *Client {
	return &Client{
		Client:   integrations.NewClient(cache, nil),
		indexURL: indexURL,
		apiURL:   apiURL,
	}
}

// Name returns the registry identifier.
func (c *Client) Name() string { return "crates.io" }

// Versions fetches all published versions from the sparse index,
// newest-first.
func (c *Client) Versions(ctx context.Context, name string) ([]deps.VersionInfo, error) {
	if err := integrations.CheckName(name); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s/%s", c.indexURL, indexPath(name), strings.ToLower(name))
	body, _, err := c.GetText(ctx, url)
	if err != nil {
		return nil, err
	}

	var versions []deps.VersionInfo
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row indexRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			continue
		}
		pre := false
		if v, err := semver.Parse(row.Vers); err == nil {
			pre = v.IsPrerelease()
		}
		versions = append(versions, deps.VersionInfo{
			Version:    row.Vers,
			Prerelease: pre,
			Yanked:     row.Yanked,
		})
	}
	deps.SortVersionsDesc(versions)
	return versions, nil
}

// Metadata fetches descriptive crate information from the API.
func (c *Client) Metadata(ctx context.Context, name string) (*deps.Metadata, error) {
	if err := integrations.CheckName(name); err != nil {
		return nil, err
	}
	var data crateResponse
	if _, err := c.GetJSON(ctx, fmt.Sprintf("%s/crates/%s", c.apiURL, name), &data); err != nil {
		return nil, err
	}
	return &deps.Metadata{
		Name:          data.Crate.Name,
		Description:   data.Crate.Description,
		Homepage:      data.Crate.HomePage,
		Repository:    data.Crate.Repository,
		Documentation: data.Crate.Documentation,
		Latest:        data.Crate.MaxStableVersion,
	}, nil
}

// Search queries the crates.io API for crates matching the prefix.
func (c *Client) Search(ctx context.Context, prefix string, limit int) ([]deps.Metadata, error) {
	if err := integrations.CheckName(prefix); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/crates?q=%s&per_page=%d", c.apiURL, prefix, limit)
	var data searchResponse
	if _, err := c.GetJSON(ctx, url, &data); err != nil {
		return nil, err
	}
	results := make([]deps.Metadata, 0, len(data.Crates))
	for _, cr := range data.Crates {
		results = append(results, deps.Metadata{
			Name:        cr.Name,
			Description: cr.Description,
			Latest:      cr.MaxStableVersion,
		})
	}
	return results, nil
}

// indexPath computes the sparse-index directory for a crate name:
// 1-char names live under "1/", 2-char under "2/", 3-char under
// "3/<first>/", everything else under "<n[0:2]>/<n[2:4]>/".
func indexPath(name string) string {
	n := strings.ToLower(name)
	switch len(n) {
	case 0:
		return "1"
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3/" + n[:1]
	default:
		return n[:2] + "/" + n[2:4]
	}
}

type indexRow struct {
	Vers   string `json:"vers"`
	Yanked bool   `json:"yanked"`
}

type crateResponse struct {
	Crate struct {
		Name             string `json:"name"`
		MaxStableVersion string `json:"max_stable_version"`
		Description      string `json:"description"`
		HomePage         string `json:"homepage"`
		Repository       string `json:"repository"`
		Documentation    string `json:"documentation"`
	} `json:"crate"`
}

type searchResponse struct {
	Crates []struct {
		Name             string `json:"name"`
		MaxStableVersion string `json:"max_stable_version"`
		Description      string `json:"description"`
	} `json:"crates"`
}

var _ deps.Registry = (*Client)(nil)
