package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName rejects names that could smuggle path traversal or
// control bytes into registry URLs. The registry clients call it (via
// integrations.CheckName) before interpolating a manifest-supplied name
// into a request URL; language-specific shape checks stay with the
// parsers.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains control characters")
		}
	}
	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid sequence %q", pattern)
		}
	}
	return nil
}
