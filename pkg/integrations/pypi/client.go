// Package pypi implements the pypi.org JSON API client.
//
// Package names are normalized per PEP 503 before any request. A release
// counts as yanked when every file in it is yanked. PyPI retired its
// search API, so Search degrades to an empty result set.
package pypi

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/httputil"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Client provides access to PyPI. All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client over the given HTTP cache.
func NewClient(cache *httputil.Cache) *Client {
	return NewClientWithURL(cache, "https://pypi.org/pypi")
}

// NewClientWithURL creates a client against an alternative endpoint.
func NewClientWithURL(cache *httputil.Cache, baseURL string) *Client {
	return &Client{
		Client:  integrations.NewClient(cache, nil),
		baseURL: baseURL,
	}
}

// Name returns the registry identifier.
func (c *Client) Name() string { return "pypi" }

// Versions fetches all released versions, newest-first.
func (c *Client) Versions(ctx context.Context, name string) ([]deps.VersionInfo, error) {
	data, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	versions := make([]deps.VersionInfo, 0, len(data.Releases))
	for ver, files := range data.Releases {
		pre := false
		if v, err := semver.Parse(ver); err == nil {
			pre = v.IsPrerelease()
		}
		yanked := len(files) > 0
		var published *time.Time
		for _, f := range files {
			if !f.Yanked {
				yanked = false
			}
			if published == nil && f.UploadTime != "" {
				if t, err := time.Parse(time.RFC3339, f.UploadTime); err == nil {
					published = &t
				}
			}
		}
		versions = append(versions, deps.VersionInfo{
			Version:     ver,
			Prerelease:  pre,
			Yanked:      yanked,
			PublishedAt: published,
		})
	}
	deps.SortVersionsDesc(versions)
	return versions, nil
}

// Metadata fetches descriptive package information.
func (c *Client) Metadata(ctx context.Context, name string) (*deps.Metadata, error) {
	data, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	doc := data.Info.ProjectURLs["Documentation"]
	return &deps.Metadata{
		Name:          data.Info.Name,
		Description:   data.Info.Summary,
		Homepage:      data.Info.HomePage,
		Repository:    data.Info.ProjectURLs["Repository"],
		Documentation: doc,
		Latest:        data.Info.Version,
	}, nil
}

// Search returns no results: PyPI has no supported search API. Name
// completion for Python manifests degrades gracefully.
func (c *Client) Search(ctx context.Context, prefix string, limit int) ([]deps.Metadata, error) {
	return nil, nil
}

func (c *Client) fetch(ctx context.Context, name string) (*apiResponse, error) {
	name = integrations.NormalizePyPIName(name)
	if err := integrations.CheckName(name); err != nil {
		return nil, err
	}
	var data apiResponse
	if _, err := c.GetJSON(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, name), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

type apiResponse struct {
	Info struct {
		Name        string            `json:"name"`
		Version     string            `json:"version"`
		Summary     string            `json:"summary"`
		HomePage    string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
	Releases map[string][]releaseFile `json:"releases"`
}

type releaseFile struct {
	Yanked     bool   `json:"yanked"`
	UploadTime string `json:"upload_time_iso_8601"`
}

var _ deps.Registry = (*Client)(nil)
