// Package rubygems implements the rubygems.org API client.
//
// The versions endpoint reports prerelease flags directly; yanked gems
// simply disappear from the list, so no version is ever flagged yanked
// and a pinned version that is no longer listed is not reported as
// yanked.
package rubygems

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/httputil"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
)

// Client provides access to rubygems.org. All methods are safe for
// concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a rubygems.org client over the given HTTP cache.
func NewClient(cache *httputil.Cache) *Client {
	return NewClientWithURL(cache, "https://rubygems.org/api/v1")
}

// NewClientWithURL creates a client against an alternative endpoint.
func NewClientWithURL(cache *httputil.Cache, baseURL string) *Client {
	return &Client{
		Client:  integrations.NewClient(cache, nil),
		baseURL: baseURL,
	}
}

// Name returns the registry identifier.
func (c *Client) Name() string { return "rubygems" }

// Versions fetches all published versions, newest-first.
func (c *Client) Versions(ctx context.Context, name string) ([]deps.VersionInfo, error) {
	if err := integrations.CheckName(name); err != nil {
		return nil, err
	}
	var data []gemVersion
	if _, err := c.GetJSON(ctx, fmt.Sprintf("%s/versions/%s.json", c.baseURL, name), &data); err != nil {
		return nil, err
	}

	versions := make([]deps.VersionInfo, 0, len(data))
	for _, gv := range data {
		var published *time.Time
		if gv.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339, gv.CreatedAt); err == nil {
				published = &t
			}
		}
		versions = append(versions, deps.VersionInfo{
			Version:     gv.Number,
			Prerelease:  gv.Prerelease,
			PublishedAt: published,
		})
	}
	deps.SortVersionsDesc(versions)
	return versions, nil
}

// Metadata fetches descriptive gem information.
func (c *Client) Metadata(ctx context.Context, name string) (*deps.Metadata, error) {
	if err := integrations.CheckName(name); err != nil {
		return nil, err
	}
	var data gemResponse
	if _, err := c.GetJSON(ctx, fmt.Sprintf("%s/gems/%s.json", c.baseURL, name), &data); err != nil {
		return nil, err
	}
	return &deps.Metadata{
		Name:          data.Name,
		Description:   data.Info,
		Homepage:      data.HomepageURI,
		Repository:    data.SourceCodeURI,
		Documentation: data.DocumentationURI,
		Latest:        data.Version,
	}, nil
}

// Search queries the rubygems search endpoint.
func (c *Client) Search(ctx context.Context, prefix string, limit int) ([]deps.Metadata, error) {
	if err := integrations.CheckName(prefix); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/search.json?query=%s", c.baseURL, url.QueryEscape(prefix))
	var data []gemResponse
	if _, err := c.GetJSON(ctx, u, &data); err != nil {
		return nil, err
	}
	if len(data) > limit {
		data = data[:limit]
	}
	results := make([]deps.Metadata, 0, len(data))
	for _, g := range data {
		results = append(results, deps.Metadata{
			Name:        g.Name,
			Description: g.Info,
			Latest:      g.Version,
		})
	}
	return results, nil
}

type gemVersion struct {
	Number     string `json:"number"`
	Prerelease bool   `json:"prerelease"`
	CreatedAt  string `json:"created_at"`
}

type gemResponse struct {
	Name             string `json:"name"`
	Version          string `json:"version"`
	Info             string `json:"info"`
	HomepageURI      string `json:"homepage_uri"`
	SourceCodeURI    string `json:"source_code_uri"`
	DocumentationURI string `json:"documentation_uri"`
}

var _ deps.Registry = (*Client)(nil)
