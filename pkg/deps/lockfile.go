package deps

import "github.com/matzehuels/deps-lsp/pkg/semver"

// ResolvedPackages maps package names to the set of versions pinned in a
// lock file. A name can legitimately appear at several versions when it is
// both a direct and a transitive dependency.
type ResolvedPackages map[string][]string

// Add registers a pinned version, ignoring duplicates for the same name.
func (r ResolvedPackages) Add(name, version string) {
	for _, v := range r[name] {
		if v == version {
			return
		}
	}
	r[name] = append(r[name], version)
}

// Replace drops all versions recorded for name and pins exactly one.
// Used by formats with last-occurrence-wins semantics (go.sum).
func (r ResolvedPackages) Replace(name, version string) {
	r[name] = []string{version}
}

// Has reports whether the lock file mentions name at all.
func (r ResolvedPackages) Has(name string) bool {
	return len(r[name]) > 0
}

// Resolved returns the pinned version for name. When the lock file holds
// several versions, the highest by semantic order wins.
func (r ResolvedPackages) Resolved(name string) (string, bool) {
	versions := r[name]
	if len(versions) == 0 {
		return "", false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		best = semver.Max(best, v)
	}
	return best, true
}
