package deps

import (
	"path/filepath"

	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Ecosystem pairs a manifest parser, a lock-file provider, and a registry
// factory for one package ecosystem, together with the URI predicate the
// directory uses for routing.
//
// New ecosystems register a descriptor; nothing in the orchestration layer
// changes.
type Ecosystem struct {
	// Name identifies the ecosystem ("cargo", "npm", "pypi", "gomod",
	// "bundler").
	Name string
	// Flavor selects the requirement-matching semantics.
	Flavor semver.Flavor
	// Matches reports whether this ecosystem handles the given filename
	// (a base name, e.g. "Cargo.toml").
	Matches func(filename string) bool
	// Parser produces positioned dependencies from manifest text.
	Parser ManifestParser
	// Lockfile locates and parses the paired lock file.
	Lockfile LockfileProvider
	// Registry is the upstream metadata source.
	Registry Registry
	// NormalizeName canonicalizes a package name before registry and
	// lock-file lookups (PEP 503 for PyPI). Nil means identity.
	NormalizeName func(name string) string
	// DocURL renders the documentation link for a package, for hover.
	DocURL func(name string) string
	// PackageURL renders the registry page link for a package.
	PackageURL func(name string) string
}

// Directory routes document paths to ecosystems.
//
// Lookup consults each registered ecosystem's Matches predicate in
// registration order; the first match wins. Documents matching no
// ecosystem are stored by the server but activate no dependency features.
type Directory struct {
	ecosystems []*Ecosystem
}

// NewDirectory creates a Directory with the given ecosystems, in order.
func NewDirectory(ecosystems ...*Ecosystem) *Directory {
	return &Directory{ecosystems: ecosystems}
}

// ForPath returns the ecosystem handling the file at path, if any.
func (d *Directory) ForPath(path string) (*Ecosystem, bool) {
	name := filepath.Base(path)
	for _, e := range d.ecosystems {
		if e.Matches(name) {
			return e, true
		}
	}
	return nil, false
}

// Ecosystems returns the registered ecosystems in registration order.
func (d *Directory) Ecosystems() []*Ecosystem {
	return d.ecosystems
}

// Canonical returns the canonical lookup name for a package in this
// ecosystem.
func (e *Ecosystem) Canonical(name string) string {
	if e.NormalizeName != nil {
		return e.NormalizeName(name)
	}
	return name
}
