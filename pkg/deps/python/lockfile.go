package python

import (
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/errors"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Lockfile reads poetry.lock and uv.lock, which share the same
// [[package]] name/version shape. Names are normalized per PEP 503 so
// lookups match regardless of the spelling used in the manifest.
type Lockfile struct{}

// LockPaths implements deps.LockfileProvider. poetry.lock is preferred;
// uv.lock is the fallback for uv-managed projects.
func (Lockfile) LockPaths(manifestPath string) []string {
	dir := filepath.Dir(manifestPath)
	return []string{
		filepath.Join(dir, "poetry.lock"),
		filepath.Join(dir, "uv.lock"),
	}
}

// ParseLock implements deps.LockfileProvider.
func (Lockfile) ParseLock(content string) (deps.ResolvedPackages, error) {
	var lock struct {
		Package []struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal([]byte(content), &lock); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLockParse, err, "python lock file")
	}

	resolved := make(deps.ResolvedPackages)
	for _, p := range lock.Package {
		if p.Name == "" || p.Version == "" {
			continue
		}
		resolved.Add(integrations.NormalizePyPIName(p.Name), p.Version)
	}
	return resolved, nil
}

// Ecosystem builds the PyPI descriptor registered with the directory.
func Ecosystem(registry deps.Registry) *deps.Ecosystem {
	return &deps.Ecosystem{
		Name:   "pypi",
		Flavor: semver.Pep440,
		Matches: func(filename string) bool {
			return strings.EqualFold(filename, "pyproject.toml")
		},
		Parser:        Parser{},
		Lockfile:      Lockfile{},
		Registry:      registry,
		NormalizeName: integrations.NormalizePyPIName,
		DocURL: func(name string) string {
			return "https://pypi.org/project/" + integrations.NormalizePyPIName(name) + "/"
		},
		PackageURL: func(name string) string {
			return "https://pypi.org/project/" + integrations.NormalizePyPIName(name) + "/"
		},
	}
}
