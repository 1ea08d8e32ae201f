package deps

import "context"

// ManifestParser reads positioned dependency records from manifest text.
//
// Parse never fails hard: syntactically broken manifests yield an empty
// dependency list plus diagnostics so the document stays recoverable.
// Parsing the same text twice must yield identical records and spans.
type ManifestParser interface {
	// Parse extracts dependencies with byte spans from the manifest text.
	Parse(content string) *ParsedManifest
}

// LockfileProvider locates and parses the lock file paired with a manifest.
type LockfileProvider interface {
	// LockPaths maps a manifest path to its sibling lock-file paths.
	// Implementations may return several candidates in preference order
	// (e.g. poetry.lock before uv.lock); the first that exists wins.
	LockPaths(manifestPath string) []string
	// ParseLock parses lock-file content into resolved packages.
	ParseLock(content string) (ResolvedPackages, error)
}

// Registry fetches package metadata from an upstream package index.
//
// Implementations live in pkg/integrations and are safe for concurrent
// use. Versions returns the full published list, newest-first, including
// pre-releases and yanked versions; callers filter with [LatestStable].
type Registry interface {
	// Name identifies the registry (e.g. "crates.io", "npm").
	Name() string
	// Versions fetches all published versions of a package, newest-first.
	Versions(ctx context.Context, name string) ([]VersionInfo, error)
	// Metadata fetches descriptive package information.
	Metadata(ctx context.Context, name string) (*Metadata, error)
	// Search returns packages whose names match the prefix, best-first,
	// up to limit. Registries without a search endpoint return an empty
	// slice and no error.
	Search(ctx context.Context, prefix string, limit int) ([]Metadata, error)
}
