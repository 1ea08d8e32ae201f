// Package deps defines the common dependency data model shared by every
// ecosystem: positioned dependency records parsed from manifests, version
// metadata fetched from registries, and resolved versions read from lock
// files.
//
// Per-ecosystem parsers and lock-file readers live in subpackages (rust,
// javascript, python, golang, ruby); registry clients live under
// pkg/integrations. The [Ecosystem] descriptor ties the pieces together
// and the [Directory] routes a document path to the right descriptor.
package deps

import (
	"sort"
	"time"

	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// File size limits for manifest documents.
const (
	MaxFileSize  = 10 << 20 // hard reject
	WarnFileSize = 1 << 20  // warning diagnostic
)

// Span is a half-open byte range [Start, End) into the document text.
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.End <= s.Start }

// Section classifies where in the manifest a dependency was declared.
type Section string

const (
	SectionRuntime   Section = "runtime"
	SectionDev       Section = "dev"
	SectionBuild     Section = "build"
	SectionOptional  Section = "optional"
	SectionWorkspace Section = "workspace"
)

// SourceKind classifies where a dependency is fetched from.
type SourceKind string

const (
	SourceRegistry SourceKind = "registry"
	SourceGit      SourceKind = "git"
	SourcePath     SourceKind = "path"
	SourceGitHub   SourceKind = "github"
	SourceSDK      SourceKind = "sdk"
)

// Dependency is one positioned dependency record from a manifest.
//
// Spans are byte offsets into the exact text that was parsed; they are
// converted to LSP line/column positions on demand and become invalid as
// soon as the document text changes.
type Dependency struct {
	Name        string
	Requirement string
	NameSpan    Span
	VersionSpan Span // empty when the manifest carries no version text
	Section     Section
	Group       string // optional-group name when Section is SectionOptional
	Source      SourceKind
}

// ParseDiagnostic is a non-fatal problem found while parsing a manifest.
type ParseDiagnostic struct {
	Span    Span
	Message string
}

// ParsedManifest is the result of parsing one manifest document: the
// ordered dependency records plus any non-fatal diagnostics. A manifest
// that fails to parse entirely yields an empty dependency list and one
// diagnostic, never an error, so later edits can recover.
type ParsedManifest struct {
	Dependencies []Dependency
	Diagnostics  []ParseDiagnostic
}

// VersionInfo describes one published version of a package.
type VersionInfo struct {
	Version     string
	Prerelease  bool
	Yanked      bool
	PublishedAt *time.Time
}

// Metadata is registry-level package information used by hover and
// completion.
type Metadata struct {
	Name          string
	Description   string
	Homepage      string
	Repository    string
	Documentation string
	Latest        string
}

// LatestStable returns the newest version that is neither a pre-release
// nor yanked. The input is expected newest-first (as returned by registry
// clients) but the scan does not rely on it.
func LatestStable(versions []VersionInfo) (VersionInfo, bool) {
	var best VersionInfo
	found := false
	for _, v := range versions {
		if v.Prerelease || v.Yanked {
			continue
		}
		if !found || semver.CompareStrings(v.Version, best.Version) > 0 {
			best = v
			found = true
		}
	}
	return best, found
}

// SortVersionsDesc orders versions newest-first by semantic comparison.
func SortVersionsDesc(versions []VersionInfo) {
	sort.SliceStable(versions, func(i, j int) bool {
		return semver.CompareStrings(versions[i].Version, versions[j].Version) > 0
	})
}
