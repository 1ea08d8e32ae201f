// Package ruby implements the Bundler ecosystem: a positioned Gemfile
// parser, a Gemfile.lock reader, and the rubygems.org pairing.
package ruby

import (
	"regexp"
	"strings"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// Parser extracts positioned dependencies from Gemfile text.
//
// A Gemfile is Ruby source; the parser recognizes the declarative subset
// Bundler documents: `gem` calls with string arguments, optionally inside
// `group ... do` blocks. Requirement lists (`gem "x", ">= 1", "< 2"`) are
// joined with commas; the version span covers the first requirement
// argument, which is where update edits apply.
type Parser struct{}

var (
	gemRE     = regexp.MustCompile(`^\s*gem\s+["']([^"']+)["'](.*)$`)
	groupRE   = regexp.MustCompile(`^\s*group\s+(.+?)\s+do\b`)
	quotedArg = regexp.MustCompile(`["']([^"']*)["']`)
)

// Parse implements deps.ManifestParser.
func (Parser) Parse(content string) *deps.ParsedManifest {
	result := &deps.ParsedManifest{}

	section := deps.SectionRuntime
	group := ""
	depth := 0 // nesting inside non-group blocks (install_if, source, platforms)

	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		lineStart := offset
		offset += len(line)
		trimmed := strings.TrimRight(line, "\n")
		stripped := strings.TrimSpace(trimmed)

		if m := groupRE.FindStringSubmatch(trimmed); m != nil {
			section, group = classifyGroup(m[1])
			continue
		}
		if strings.HasSuffix(stripped, " do") || stripped == "do" {
			depth++
			continue
		}
		if stripped == "end" {
			if depth > 0 {
				depth--
			} else {
				section, group = deps.SectionRuntime, ""
			}
			continue
		}

		m := gemRE.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		name, rest := m[1], m[2]

		nameStart := lineStart + strings.Index(trimmed, name)
		d := deps.Dependency{
			Name:     name,
			NameSpan: deps.Span{Start: nameStart, End: nameStart + len(name)},
			Section:  section,
			Group:    group,
			Source:   classifyGemSource(rest),
		}

		var reqs []string
		restStart := lineStart + len(trimmed) - len(rest)
		for _, qm := range quotedArg.FindAllStringSubmatchIndex(rest, -1) {
			arg := rest[qm[2]:qm[3]]
			if !isRequirement(arg) {
				continue
			}
			reqs = append(reqs, arg)
			if d.VersionSpan.Empty() {
				d.VersionSpan = deps.Span{Start: restStart + qm[2], End: restStart + qm[3]}
			}
		}
		d.Requirement = strings.Join(reqs, ", ")

		result.Dependencies = append(result.Dependencies, d)
	}
	return result
}

// isRequirement distinguishes version constraints from option values like
// branch names or paths: constraints start with a digit or an operator.
func isRequirement(arg string) bool {
	if arg == "" {
		return false
	}
	if arg[0] >= '0' && arg[0] <= '9' {
		return true
	}
	switch arg[0] {
	case '~', '>', '<', '=':
		return true
	}
	return false
}

func classifyGemSource(rest string) deps.SourceKind {
	switch {
	case strings.Contains(rest, "git:"), strings.Contains(rest, ":git"):
		return deps.SourceGit
	case strings.Contains(rest, "github:"), strings.Contains(rest, ":github"):
		return deps.SourceGitHub
	case strings.Contains(rest, "path:"), strings.Contains(rest, ":path"):
		return deps.SourcePath
	default:
		return deps.SourceRegistry
	}
}

// classifyGroup maps a group argument list (":development, :test") to a
// section. Development and test groups surface as dev dependencies;
// anything else keeps its group name as an optional group.
func classifyGroup(args string) (deps.Section, string) {
	first := strings.TrimSpace(strings.Split(args, ",")[0])
	first = strings.TrimPrefix(first, ":")
	switch first {
	case "development", "test":
		return deps.SectionDev, first
	default:
		return deps.SectionOptional, first
	}
}
