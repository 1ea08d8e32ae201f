package rust

import (
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/errors"
)

// Lockfile reads Cargo.lock. Every [[package]] entry registers its
// version; a crate appearing at two pinned versions keeps both, and the
// accessor resolves to the higher one.
type Lockfile struct{}

// LockPaths implements deps.LockfileProvider.
func (Lockfile) LockPaths(manifestPath string) []string {
	return []string{filepath.Join(filepath.Dir(manifestPath), "Cargo.lock")}
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
		return nil, errors.Wrap(errors.ErrCodeLockParse, err, "Cargo.lock")
	}

	resolved := make(deps.ResolvedPackages)
	for _, p := range lock.Package {
		if p.Name == "" || p.Version == "" {
			continue
		}
		resolved.Add(p.Name, p.Version)
	}
	return resolved, nil
}

