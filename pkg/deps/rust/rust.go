package rust

import (
	"strings"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// Ecosystem builds the Cargo descriptor registered with the directory.
// The registry client is attached by the server at startup, which owns
// the process-wide HTTP cache.
func Ecosystem(registry deps.Registry) *deps.Ecosystem {
	return &deps.Ecosystem{
		Name:     "cargo",
		Flavor:   semver.Cargo,
		Matches:  func(filename string) bool { return strings.EqualFold(filename, "Cargo.toml") },
		Parser:   Parser{},
		Lockfile: Lockfile{},
		Registry: registry,
		DocURL: func(name string) string {
			return "https://docs.rs/" + name
		},
		PackageURL: func(name string) string {
			return "https://crates.io/crates/" + name
		},
	}
}
