package golang

import (
	"bufio"
	"path/filepath"
	"strings"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Lockfile reads go.sum. Each line is "module version hash"; versions
// suffixed "/go.mod" refer to the module file alone and count the same.
// When a module appears on several lines the last occurrence wins, per
// the Go toolchain's own reading of the file.
type Lockfile struct{}

// LockPaths implements deps.LockfileProvider.
func (Lockfile) LockPaths(manifestPath string) []string {
	return []string{filepath.Join(filepath.Dir(manifestPath), "go.sum")}
}

// ParseLock implements deps.LockfileProvider. go.sum has no structure to
// break: malformed lines are skipped, and the error return stays nil.
func (Lockfile) ParseLock(content string) (deps.ResolvedPackages, error) {
	resolved := make(deps.ResolvedPackages)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		version := strings.TrimSuffix(fields[1], "/go.mod")
		if name == "" || version == "" {
			continue
		}
		resolved.Replace(name, version)
	}
	return resolved, nil
}

// Ecosystem builds the Go modules descriptor registered with the directory.
func Ecosystem(registry deps.Registry) *deps.Ecosystem {
	return &deps.Ecosystem{
		Name:     "gomod",
		Flavor:   semver.Go,
		Matches:  func(filename string) bool { return filename == "go.mod" },
		Parser:   Parser{},
		Lockfile: Lockfile{},
		Registry: registry,
		DocURL: func(name string) string {
			return "https://pkg.go.dev/" + name
		},
		PackageURL: func(name string) string {
			return "https://pkg.go.dev/" + name
		},
	}
}
