// Package golang implements the Go modules ecosystem: a go.mod parser
// with positions from golang.org/x/mod/modfile, a go.sum reader, and the
// module proxy pairing.
package golang

import (
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// Parser extracts positioned dependencies from go.mod text.
//
// modfile reports byte offsets per statement line; the path and version
// spans are located inside each line's source slice, which keeps spans
// exact without a second tokenizer.
type Parser struct{}

// Parse implements deps.ManifestParser.
func (Parser) Parse(content string) *deps.ParsedManifest {
	result := &deps.ParsedManifest{}

	f, err := modfile.Parse("go.mod", []byte(content), nil)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, deps.ParseDiagnostic{
			Message: "invalid go.mod: " + err.Error(),
		})
		return result
	}

	replaced := map[string]bool{}
	for _, r := range f.Replace {
		if r.New.Version == "" {
			// Filesystem replacement: the requirement is no longer served
			// by the proxy.
			replaced[r.Old.Path] = true
		}
	}

	for _, r := range f.Require {
		if r.Syntax == nil {
			continue
		}
		source := deps.SourceRegistry
		if replaced[r.Mod.Path] {
			source = deps.SourcePath
		}

		nameSpan, versionSpan := tokenSpans(content, r.Syntax.Start.Byte, r.Syntax.End.Byte, r.Mod.Path, r.Mod.Version)
		result.Dependencies = append(result.Dependencies, deps.Dependency{
			Name:        r.Mod.Path,
			Requirement: r.Mod.Version,
			NameSpan:    nameSpan,
			VersionSpan: versionSpan,
			Section:     deps.SectionRuntime,
			Source:      source,
		})
	}
	return result
}

// tokenSpans locates the path and version tokens inside one require line.
func tokenSpans(content string, start, end int, path, version string) (deps.Span, deps.Span) {
	if start < 0 || end > len(content) || start >= end {
		return deps.Span{}, deps.Span{}
	}
	line := content[start:end]

	var nameSpan, versionSpan deps.Span
	if i := strings.Index(line, path); i >= 0 {
		nameSpan = deps.Span{Start: start + i, End: start + i + len(path)}
		if j := strings.Index(line[i+len(path):], version); version != "" && j >= 0 {
			vs := start + i + len(path) + j
			versionSpan = deps.Span{Start: vs, End: vs + len(version)}
		}
	}
	return nameSpan, versionSpan
}
