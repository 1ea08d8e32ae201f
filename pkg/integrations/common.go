// Package integrations provides the shared HTTP machinery for registry
// API clients, plus the per-registry clients in its subpackages.
//
// Every client speaks HTTPS to its registry through a validated
// [httputil.Cache], sends an identifying User-Agent, and maps HTTP
// failures onto the two sentinel errors [ErrNotFound] and [ErrNetwork] so
// the fetch orchestrator can distinguish "package does not exist" from
// "registry unreachable".
package integrations

import (
	"errors"
	"fmt"
	"strings"

	depserrors "github.com/matzehuels/deps-lsp/pkg/errors"
)

// UserAgent identifies deps-lsp to registries, as their API policies require.
const UserAgent = "deps-lsp/1.0 (https://github.com/matzehuels/deps-lsp)"

var (
	// ErrNotFound is returned when a package or resource doesn't exist in
	// the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection
	// errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// CheckName guards URL construction: the crates, npm, pypi and rubygems
// clients call it before interpolating a manifest-supplied name into a
// request URL (the goproxy client relies on module.EscapePath instead). A
// name that fails validation (traversal sequences, control bytes) can
// never exist upstream, so it classifies as [ErrNotFound] without a
// request.
func CheckName(name string) error {
	if err := depserrors.ValidatePackageName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return nil
}

// NormalizePyPIName converts a package name to its canonical PyPI form per
// PEP 503: lowercase, with runs of ".", "_", and "-" collapsed to a single
// hyphen.
func NormalizePyPIName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == '.' || r == '_' || r == '-' {
			if !prevSep {
				b.WriteByte('-')
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}
