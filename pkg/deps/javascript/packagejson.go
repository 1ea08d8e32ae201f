// Package javascript implements the npm ecosystem: a positioned
// package.json parser, a package-lock.json reader, and the
// registry.npmjs.org pairing.
package javascript

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// Parser extracts positioned dependencies from package.json text.
//
// Validation runs through encoding/json; span extraction is a
// line-oriented scan over the dependency blocks, which are flat maps in
// every manifest npm accepts. Entries whose requirement points outside
// the registry (git URLs, github shorthands, file paths, workspaces) are
// classified by source so the orchestrator skips fetching them.
type Parser struct{}

var sectionNames = map[string]deps.Section{
	"dependencies":         deps.SectionRuntime,
	"devDependencies":      deps.SectionDev,
	"optionalDependencies": deps.SectionOptional,
	"peerDependencies":     deps.SectionRuntime,
}

var (
	blockStartRE = regexp.MustCompile(`^\s*"([A-Za-z]+)"\s*:\s*\{`)
	entryRE      = regexp.MustCompile(`^\s*"((?:@[^"/]+/)?[^"]+)"\s*:\s*"([^"]*)"`)
)

// Parse implements deps.ManifestParser.
func (Parser) Parse(content string) *deps.ParsedManifest {
	result := &deps.ParsedManifest{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		result.Diagnostics = append(result.Diagnostics, deps.ParseDiagnostic{
			Span:    deps.Span{},
			Message: "invalid JSON: " + err.Error(),
		})
		return result
	}

	section := deps.Section("")
	inBlock := false

	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		lineStart := offset
		offset += len(line)
		trimmed := strings.TrimRight(line, "\n")

		if !inBlock {
			if m := blockStartRE.FindStringSubmatch(trimmed); m != nil {
				if s, ok := sectionNames[m[1]]; ok {
					section = s
					inBlock = true
				}
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(trimmed), "}") {
			inBlock = false
			continue
		}

		m := entryRE.FindStringSubmatchIndex(trimmed)
		if m == nil {
			continue
		}
		name := trimmed[m[2]:m[3]]
		req := trimmed[m[4]:m[5]]

		result.Dependencies = append(result.Dependencies, deps.Dependency{
			Name:        name,
			Requirement: req,
			NameSpan:    deps.Span{Start: lineStart + m[2], End: lineStart + m[3]},
			VersionSpan: deps.Span{Start: lineStart + m[4], End: lineStart + m[5]},
			Section:     section,
			Source:      classifyRequirement(req),
		})
	}
	return result
}

func classifyRequirement(req string) deps.SourceKind {
	switch {
	case strings.HasPrefix(req, "git+"), strings.HasPrefix(req, "git://"):
		return deps.SourceGit
	case strings.HasPrefix(req, "file:"), strings.HasPrefix(req, "link:"),
		strings.HasPrefix(req, "workspace:"):
		return deps.SourcePath
	case strings.HasPrefix(req, "http://"), strings.HasPrefix(req, "https://"):
		return deps.SourceGit
	case strings.HasPrefix(req, "github:"), looksLikeGitHubShorthand(req):
		return deps.SourceGitHub
	default:
		return deps.SourceRegistry
	}
}

// looksLikeGitHubShorthand matches "owner/repo" requirements, npm's
// github shorthand. Registry requirements never contain a slash.
func looksLikeGitHubShorthand(req string) bool {
	slash := strings.IndexByte(req, '/')
	if slash <= 0 {
		return false
	}
	return !strings.ContainsAny(req[:slash], "<>=~^ *")
}
