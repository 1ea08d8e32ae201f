// Package rust implements the Cargo ecosystem: a positioned Cargo.toml
// parser, a Cargo.lock reader, and the crates.io pairing.
package rust

import (
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// Parser extracts positioned dependencies from Cargo.toml text.
//
// The scan is line-oriented so byte spans stay exact; a full TOML decode
// runs alongside it only to surface syntax errors as diagnostics. Both
// plain (`serde = "1.0"`) and inline-table
// (`serde = { version = "1.0", features = [...] }`) declarations are
// recognized, as are `[dependencies.serde]` sub-tables and
// `[target.'cfg(...)'.dependencies]` sections.
type Parser struct{}

var (
	sectionRE = regexp.MustCompile(`^\s*\[\s*(.+?)\s*\]`)
	depLineRE = regexp.MustCompile(`^(\s*)([A-Za-z0-9_-]+)\s*=\s*(.+?)\s*$`)
	versionRE = regexp.MustCompile(`version\s*=\s*"([^"]*)"`)
	quotedRE  = regexp.MustCompile(`^"([^"]*)"`)
)

// Parse implements deps.ManifestParser.
func (Parser) Parse(content string) *deps.ParsedManifest {
	result := &deps.ParsedManifest{}

	var raw map[string]any
	if err := toml.Unmarshal([]byte(content), &raw); err != nil {
		result.Diagnostics = append(result.Diagnostics, deps.ParseDiagnostic{
			Span:    errorSpan(content, err),
			Message: "invalid TOML: " + err.Error(),
		})
		return result
	}

	section := deps.Section("")
	tableDep := "" // name from a [dependencies.NAME] header, "" otherwise
	var tableEntry *deps.Dependency

	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		lineStart := offset
		offset += len(line)
		trimmed := strings.TrimRight(line, "\n")

		if m := sectionRE.FindStringSubmatch(trimmed); m != nil {
			flushTableDep(result, tableEntry)
			tableEntry = nil
			section, tableDep = classifySection(m[1])
			if tableDep != "" {
				nameStart := lineStart + strings.LastIndex(trimmed, tableDep)
				tableEntry = &deps.Dependency{
					Name:     tableDep,
					NameSpan: deps.Span{Start: nameStart, End: nameStart + len(tableDep)},
					Section:  section,
					Source:   deps.SourceRegistry,
				}
			}
			continue
		}
		if section == "" {
			continue
		}

		m := depLineRE.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		indent, key, value := m[1], m[2], m[3]

		if tableEntry != nil {
			// Inside a [dependencies.NAME] table: pick up version/git/path keys.
			applyTableKey(tableEntry, key, value, lineStart, trimmed)
			continue
		}
		if tableDep != "" {
			continue
		}

		d := deps.Dependency{
			Name:    key,
			Section: section,
			Source:  deps.SourceRegistry,
		}
		nameStart := lineStart + len(indent)
		d.NameSpan = deps.Span{Start: nameStart, End: nameStart + len(key)}

		switch {
		case strings.HasPrefix(value, `"`):
			q := quotedRE.FindStringSubmatch(value)
			if q == nil {
				continue
			}
			d.Requirement = q[1]
			valueStart := lineStart + strings.Index(trimmed, value)
			d.VersionSpan = deps.Span{Start: valueStart + 1, End: valueStart + 1 + len(q[1])}
		case strings.HasPrefix(value, "{"):
			fillFromInlineTable(&d, value, lineStart+strings.Index(trimmed, value))
		default:
			continue
		}
		result.Dependencies = append(result.Dependencies, d)
	}
	flushTableDep(result, tableEntry)
	return result
}

func flushTableDep(result *deps.ParsedManifest, d *deps.Dependency) {
	if d != nil {
		result.Dependencies = append(result.Dependencies, *d)
	}
}

func applyTableKey(d *deps.Dependency, key, value string, lineStart int, line string) {
	switch key {
	case "version":
		if q := quotedRE.FindStringSubmatch(value); q != nil {
			d.Requirement = q[1]
			valueStart := lineStart + strings.Index(line, value)
			d.VersionSpan = deps.Span{Start: valueStart + 1, End: valueStart + 1 + len(q[1])}
		}
	case "git":
		d.Source = deps.SourceGit
	case "path":
		d.Source = deps.SourcePath
	case "optional":
		if strings.TrimSpace(value) == "true" {
			d.Section = deps.SectionOptional
		}
	}
}

// fillFromInlineTable handles `{ version = "1.0", git = "...", ... }`.
func fillFromInlineTable(d *deps.Dependency, value string, valueOffset int) {
	if m := versionRE.FindStringSubmatchIndex(value); m != nil {
		d.Requirement = value[m[2]:m[3]]
		d.VersionSpan = deps.Span{Start: valueOffset + m[2], End: valueOffset + m[3]}
	}
	switch {
	case strings.Contains(value, "git ") || strings.Contains(value, "git="):
		d.Source = deps.SourceGit
	case strings.Contains(value, "path ") || strings.Contains(value, "path="):
		d.Source = deps.SourcePath
	}
	if strings.Contains(value, "optional = true") || strings.Contains(value, "optional=true") {
		d.Section = deps.SectionOptional
	}
}

// classifySection maps a TOML header to a dependency section. The second
// return is the dependency name when the header itself names one
// ([dependencies.serde]).
func classifySection(header string) (deps.Section, string) {
	parts := splitHeader(header)
	for i, p := range parts {
		var section deps.Section
		switch p {
		case "dependencies":
			section = deps.SectionRuntime
		case "dev-dependencies", "dev_dependencies":
			section = deps.SectionDev
		case "build-dependencies", "build_dependencies":
			section = deps.SectionBuild
		default:
			continue
		}
		if i > 0 && parts[i-1] == "workspace" {
			section = deps.SectionWorkspace
		}
		if i == len(parts)-1 {
			return section, ""
		}
		return section, parts[len(parts)-1]
	}
	return "", ""
}

// splitHeader splits a header on dots outside quotes, so
// target.'cfg(windows)'.dependencies keeps its cfg expression intact.
func splitHeader(header string) []string {
	var parts []string
	var b strings.Builder
	inQuote := byte(0)
	for i := 0; i < len(header); i++ {
		c := header[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			inQuote = c
			b.WriteByte(c)
		case c == '.':
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	parts = append(parts, b.String())
	return parts
}

// errorSpan approximates the manifest region a TOML error refers to.
func errorSpan(content string, err error) deps.Span {
	var perr toml.ParseError
	if ok := asParseError(err, &perr); ok && perr.Position.Line > 0 {
		start := 0
		line := 1
		for i := 0; i < len(content); i++ {
			if line == perr.Position.Line {
				start = i
				break
			}
			if content[i] == '\n' {
				line++
			}
		}
		end := strings.IndexByte(content[start:], '\n')
		if end < 0 {
			end = len(content) - start
		}
		return deps.Span{Start: start, End: start + end}
	}
	return deps.Span{Start: 0, End: 0}
}

func asParseError(err error, target *toml.ParseError) bool {
	if pe, ok := err.(toml.ParseError); ok {
		*target = pe
		return true
	}
	return false
}
