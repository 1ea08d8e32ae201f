package javascript

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/errors"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Lockfile reads package-lock.json, handling both the v2/v3 "packages"
// layout (keys like "node_modules/<name>") and the legacy v1
// "dependencies" tree.
type Lockfile struct{}

// LockPaths implements deps.LockfileProvider.
func (Lockfile) LockPaths(manifestPath string) []string {
	dir := filepath.Dir(manifestPath)
	return []string{
		filepath.Join(dir, "package-lock.json"),
		filepath.Join(dir, "npm-shrinkwrap.json"),
	}
}

// ParseLock implements deps.LockfileProvider.
func (Lockfile) ParseLock(content string) (deps.ResolvedPackages, error) {
	var lock struct {
		Packages map[string]struct {
			Version string `json:"version"`
		} `json:"packages"`
		Dependencies map[string]v1Dependency `json:"dependencies"`
	}
	if err := json.Unmarshal([]byte(content), &lock); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLockParse, err, "package-lock.json")
	}

	resolved := make(deps.ResolvedPackages)
	for key, p := range lock.Packages {
		name := packageKeyName(key)
		if name == "" || p.Version == "" {
			continue
		}
		resolved.Add(name, p.Version)
	}
	if len(resolved) == 0 {
		collectV1(lock.Dependencies, resolved)
	}
	return resolved, nil
}

type v1Dependency struct {
	Version      string                  `json:"version"`
	Dependencies map[string]v1Dependency `json:"dependencies"`
}

func collectV1(tree map[string]v1Dependency, resolved deps.ResolvedPackages) {
	for name, d := range tree {
		if d.Version != "" {
			resolved.Add(name, d.Version)
		}
		collectV1(d.Dependencies, resolved)
	}
}

// packageKeyName extracts the package name from a v2/v3 key: the segment
// after the last "node_modules/". The root entry ("") is skipped.
func packageKeyName(key string) string {
	if key == "" {
		return ""
	}
	if i := strings.LastIndex(key, "node_modules/"); i >= 0 {
		return key[i+len("node_modules/"):]
	}
	return ""
}

// Ecosystem builds the npm descriptor registered with the directory.
func Ecosystem(registry deps.Registry) *deps.Ecosystem {
	return &deps.Ecosystem{
		Name:     "npm",
		Flavor:   semver.Npm,
		Matches:  func(filename string) bool { return filename == "package.json" },
		Parser:   Parser{},
		Lockfile: Lockfile{},
		Registry: registry,
		DocURL: func(name string) string {
			return "https://www.npmjs.com/package/" + name
		},
		PackageURL: func(name string) string {
			return "https://www.npmjs.com/package/" + name
		},
	}
}
