package ruby

import (
	"bufio"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Lockfile reads Gemfile.lock.
//
// Direct spec lines (4-space indent under a specs: block) register their
// versions; deeper lines are the specs' own requirements and are skipped.
// GIT and PATH sections register names too, so a gem served from a fork
// never shows up as "unknown". Platform-gated entries like
// "nokogiri (1.16.0-arm64-darwin)" register under the plain version.
type Lockfile struct{}

var specRE = regexp.MustCompile(`^    ([A-Za-z0-9_.-]+) \(([^)]+)\)\s*$`)

// LockPaths implements deps.LockfileProvider.
func (Lockfile) LockPaths(manifestPath string) []string {
	dir := filepath.Dir(manifestPath)
	if filepath.Base(manifestPath) == "gems.rb" {
		return []string{filepath.Join(dir, "gems.locked")}
	}
	return []string{filepath.Join(dir, "Gemfile.lock")}
}

// ParseLock implements deps.LockfileProvider. The format is indentation-
// based; unrecognized lines are skipped and the error return stays nil.
func (Lockfile) ParseLock(content string) (deps.ResolvedPackages, error) {
	resolved := make(deps.ResolvedPackages)
	inSpecs := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, " ") {
			inSpecs = false
			continue
		}
		if strings.TrimSpace(line) == "specs:" {
			inSpecs = true
			continue
		}
		if !inSpecs {
			continue
		}
		m := specRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		resolved.Add(m[1], plainVersion(m[2]))
	}
	return resolved, nil
}

// plainVersion strips a platform suffix from a pinned version:
// "1.16.0-arm64-darwin" pins 1.16.0.
func plainVersion(v string) string {
	if i := strings.IndexByte(v, '-'); i > 0 {
		return v[:i]
	}
	return v
}

// Ecosystem builds the Bundler descriptor registered with the directory.
func Ecosystem(registry deps.Registry) *deps.Ecosystem {
	return &deps.Ecosystem{
		Name:   "bundler",
		Flavor: semver.Gem,
		Matches: func(filename string) bool {
			return filename == "Gemfile" || filename == "gems.rb"
		},
		Parser:   Parser{},
		Lockfile: Lockfile{},
		Registry: registry,
		DocURL: func(name string) string {
			return "https://rubygems.org/gems/" + name
		},
		PackageURL: func(name string) string {
			return "https://rubygems.org/gems/" + name
		},
	}
}
