// Package semver implements version parsing, ordering, and requirement
// matching for the package ecosystems deps-lsp supports.
//
// Versions are kept as opaque strings plus a parsed (major, minor, patch,
// pre-release, build) tuple. Ordering is semantic, following semver spec
// item 11: numeric parts ascending, a pre-release sorts below the release
// it precedes, and pre-release identifiers compare numerically when both
// sides are numeric and ASCII-lexically otherwise.
//
// Requirement matching is ecosystem-aware: the same text means different
// things in Cargo, npm, PEP 440, Bundler, and go.mod. See [Flavor].
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed version string.
//
// Missing minor/patch components parse as zero but are remembered via
// Parts, so requirement matching can honor prefix semantics ("1.2" in npm
// means 1.2.x, not 1.2.0 exactly).
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   string // dot-separated pre-release identifiers, "" for releases
	Build string // build metadata, ignored for ordering
	Parts int    // number of numeric components present in the source (1-3)

	original string
}

// Parse parses a version string into a Version.
//
// Accepted forms cover the union of the supported ecosystems: optional
// "v"/"V" prefix (Go modules), 1-3 numeric components, semver pre-release
// and build suffixes ("1.2.3-rc.1+abc"), and PEP 440 style suffixes glued
// to the numeric part ("1.2.0a1", "1.2.3.post1", "2.0.0.dev3", "1!2.0"
// epochs are rejected). Returns an error for anything without a leading
// digit after prefix stripping.
func Parse(s string) (Version, error) {
	v := Version{original: s}
	rest := strings.TrimSpace(s)
	rest = strings.TrimPrefix(rest, "v")
	rest = strings.TrimPrefix(rest, "V")
	if rest == "" {
		return v, fmt.Errorf("empty version")
	}
	if strings.ContainsRune(rest, '!') {
		return v, fmt.Errorf("invalid version %q: epochs are not supported", s)
	}

	if i := strings.IndexByte(rest, '+'); i >= 0 {
		v.Build = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		v.Pre = rest[i+1:]
		rest = rest[:i]
	}

	nums := [3]int{}
	part := 0
	for part < 3 {
		j := 0
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		if j == 0 {
			break
		}
		n, err := strconv.Atoi(rest[:j])
		if err != nil {
			return v, fmt.Errorf("invalid version %q: %w", s, err)
		}
		nums[part] = n
		part++
		rest = rest[j:]
		if strings.HasPrefix(rest, ".") && len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9' {
			rest = rest[1:]
			continue
		}
		break
	}
	if part == 0 {
		return v, fmt.Errorf("invalid version %q", s)
	}
	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]
	v.Parts = part

	// PEP 440 suffixes glued to the release segment: "1.2a1", "1.2.rc1",
	// "1.2.3.post1", "1.2.3.dev0".
	rest = strings.TrimPrefix(rest, ".")
	if rest != "" {
		if v.Pre != "" {
			v.Pre = rest + "." + v.Pre
		} else if isPostSuffix(rest) {
			// post-releases are not pre-releases: the marker is kept in
			// Build, which Compare ignores, so "1.2.3.post1" orders equal
			// to "1.2.3".
			v.Pre = ""
			v.Build = joinNonEmpty(rest, v.Build)
		} else {
			v.Pre = normalizePreSegment(rest)
		}
	}
	return v, nil
}

// MustParse is Parse for tests and constants; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func isPostSuffix(s string) bool {
	return strings.HasPrefix(s, "post") || strings.HasPrefix(s, "r") && len(s) > 1 && s[1] >= '0' && s[1] <= '9'
}

// normalizePreSegment splits glued PEP 440 pre-release markers into
// dot-separated identifiers: "rc1" -> "rc.1", "a1" -> "a.1", "dev0" -> "dev.0".
func normalizePreSegment(s string) string {
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') && s[i] != '.' {
		i++
	}
	if i > 0 && i < len(s) && s[i] != '.' {
		return s[:i] + "." + s[i:]
	}
	return s
}

func joinNonEmpty(a, b string) string {
	if b == "" {
		return a
	}
	return a + "." + b
}

// String returns the original version text.
func (v Version) String() string {
	if v.original != "" {
		return v.original
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsPrerelease reports whether the version carries a pre-release segment.
func (v Version) IsPrerelease() bool { return v.Pre != "" }

// Compare orders two versions semantically. It returns -1, 0, or +1.
func Compare(a, b Version) int {
	if c := cmpInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmpInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := cmpInt(a.Patch, b.Patch); c != 0 {
		return c
	}
	return comparePre(a.Pre, b.Pre)
}

// CompareStrings parses and orders two raw version strings. Unparsable
// versions sort below parsable ones; two unparsable versions compare
// lexically so sorting stays total.
func CompareStrings(a, b string) int {
	va, ea := Parse(a)
	vb, eb := Parse(b)
	switch {
	case ea != nil && eb != nil:
		return strings.Compare(a, b)
	case ea != nil:
		return -1
	case eb != nil:
		return 1
	}
	return Compare(va, vb)
}

// Max returns the higher of two raw version strings by semantic order.
func Max(a, b string) string {
	if CompareStrings(a, b) >= 0 {
		return a
	}
	return b
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// comparePre compares pre-release segments per semver spec item 11: the
// empty segment (a release) is higher than any pre-release; identifiers
// compare numerically when both numeric, lexically otherwise, and numeric
// identifiers are lower than alphanumeric ones.
func comparePre(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := comparePreIdent(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(as), len(bs))
}

func comparePreIdent(a, b string) int {
	an, aNum := strconv.Atoi(a)
	bn, bNum := strconv.Atoi(b)
	switch {
	case aNum == nil && bNum == nil:
		return cmpInt(an, bn)
	case aNum == nil:
		return -1
	case bNum == nil:
		return 1
	}
	return strings.Compare(a, b)
}
