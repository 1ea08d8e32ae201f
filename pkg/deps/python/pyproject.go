// Package python implements the PyPI ecosystem: a positioned
// pyproject.toml parser covering both PEP 621 and Poetry layouts, readers
// for poetry.lock and uv.lock, and the pypi.org pairing.
package python

import (
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// Parser extracts positioned dependencies from pyproject.toml text.
//
// Two declaration styles coexist in the wild and are both handled:
//
//   - PEP 621: requirement strings inside the [project] "dependencies"
//     array and the [project.optional-dependencies] group arrays
//     ("requests>=2.28,<3").
//   - Poetry: assignment tables under [tool.poetry.dependencies] and
//     [tool.poetry.group.<name>.dependencies] ("requests = \"^2.28\"").
type Parser struct{}

var (
	sectionRE    = regexp.MustCompile(`^\s*\[\s*(.+?)\s*\]`)
	arrayOpenRE  = regexp.MustCompile(`^\s*([A-Za-z0-9_-]+)\s*=\s*\[`)
	quotedItemRE = regexp.MustCompile(`"([^"]+)"`)
	assignRE     = regexp.MustCompile(`^(\s*)([A-Za-z0-9._-]+)\s*=\s*(.+?)\s*$`)
	pepNameRE    = regexp.MustCompile(`^([A-Za-z0-9._-]+)(\[[^\]]*\])?`)
	versionKeyRE = regexp.MustCompile(`version\s*=\s*"([^"]*)"`)
	quotedRE     = regexp.MustCompile(`^"([^"]*)"`)
)

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionProject
	sectionOptionalGroups
	sectionPoetryDeps
)

// Parse implements deps.ManifestParser.
func (Parser) Parse(content string) *deps.ParsedManifest {
	result := &deps.ParsedManifest{}

	var raw map[string]any
	if err := toml.Unmarshal([]byte(content), &raw); err != nil {
		result.Diagnostics = append(result.Diagnostics, deps.ParseDiagnostic{
			Message: "invalid TOML: " + err.Error(),
		})
		return result
	}

	kind := sectionNone
	poetrySection := deps.SectionRuntime
	poetryGroup := ""
	inArray := false
	arraySection := deps.SectionRuntime
	arrayGroup := ""

	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		lineStart := offset
		offset += len(line)
		trimmed := strings.TrimRight(line, "\n")

		if !inArray {
			if m := sectionRE.FindStringSubmatch(trimmed); m != nil {
				kind, poetrySection, poetryGroup = classifySection(m[1])
				continue
			}
		}

		switch {
		case inArray:
			parseArrayItems(result, trimmed, lineStart, arraySection, arrayGroup)
			if strings.Contains(trimmed, "]") {
				inArray = false
			}

		case kind == sectionProject:
			m := arrayOpenRE.FindStringSubmatch(trimmed)
			if m == nil || m[1] != "dependencies" {
				continue
			}
			rest := trimmed[strings.Index(trimmed, "[")+1:]
			arraySection, arrayGroup = deps.SectionRuntime, ""
			parseArrayItems(result, rest, lineStart+len(trimmed)-len(rest), arraySection, arrayGroup)
			inArray = !strings.Contains(rest, "]")

		case kind == sectionOptionalGroups:
			m := arrayOpenRE.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			rest := trimmed[strings.Index(trimmed, "[")+1:]
			arraySection, arrayGroup = deps.SectionOptional, m[1]
			parseArrayItems(result, rest, lineStart+len(trimmed)-len(rest), arraySection, arrayGroup)
			inArray = !strings.Contains(rest, "]")

		case kind == sectionPoetryDeps:
			parsePoetryAssignment(result, trimmed, lineStart, poetrySection, poetryGroup)
		}
	}
	return result
}

// parseArrayItems extracts PEP 508 requirement strings from one line of a
// dependencies array.
func parseArrayItems(result *deps.ParsedManifest, line string, lineStart int, section deps.Section, group string) {
	for _, m := range quotedItemRE.FindAllStringSubmatchIndex(line, -1) {
		item := line[m[2]:m[3]]
		nm := pepNameRE.FindStringSubmatch(item)
		if nm == nil {
			continue
		}
		name := nm[1]
		if strings.EqualFold(name, "python") {
			continue
		}
		head := len(nm[0]) // name plus extras
		spec := strings.TrimSpace(item[head:])
		// Environment markers are not part of the version requirement.
		if i := strings.IndexByte(spec, ';'); i >= 0 {
			spec = strings.TrimSpace(spec[:i])
		}

		itemStart := lineStart + m[2]
		specStart := itemStart + head
		specEnd := specStart + len(spec)
		if spec == "" {
			specEnd = specStart
		} else {
			// Account for whitespace between name and specifier.
			rel := strings.Index(item[head:], spec)
			specStart = itemStart + head + rel
			specEnd = specStart + len(spec)
		}

		result.Dependencies = append(result.Dependencies, deps.Dependency{
			Name:        name,
			Requirement: spec,
			NameSpan:    deps.Span{Start: itemStart, End: itemStart + len(name)},
			VersionSpan: deps.Span{Start: specStart, End: specEnd},
			Section:     section,
			Group:       group,
			Source:      deps.SourceRegistry,
		})
	}
}

func parsePoetryAssignment(result *deps.ParsedManifest, line string, lineStart int, section deps.Section, group string) {
	m := assignRE.FindStringSubmatch(line)
	if m == nil {
		return
	}
	indent, name, value := m[1], m[2], m[3]
	if strings.EqualFold(name, "python") {
		return
	}

	d := deps.Dependency{
		Name:    name,
		Section: section,
		Group:   group,
		Source:  deps.SourceRegistry,
	}
	nameStart := lineStart + len(indent)
	d.NameSpan = deps.Span{Start: nameStart, End: nameStart + len(name)}

	switch {
	case strings.HasPrefix(value, `"`):
		q := quotedRE.FindStringSubmatch(value)
		if q == nil {
			return
		}
		d.Requirement = q[1]
		valueStart := lineStart + strings.Index(line, value)
		d.VersionSpan = deps.Span{Start: valueStart + 1, End: valueStart + 1 + len(q[1])}
	case strings.HasPrefix(value, "{"):
		if vm := versionKeyRE.FindStringSubmatchIndex(value); vm != nil {
			valueStart := lineStart + strings.Index(line, value)
			d.Requirement = value[vm[2]:vm[3]]
			d.VersionSpan = deps.Span{Start: valueStart + vm[2], End: valueStart + vm[3]}
		}
		switch {
		case strings.Contains(value, "git "), strings.Contains(value, "git="):
			d.Source = deps.SourceGit
		case strings.Contains(value, "path "), strings.Contains(value, "path="):
			d.Source = deps.SourcePath
		}
	default:
		return
	}
	result.Dependencies = append(result.Dependencies, d)
}

// classifySection maps a TOML header to a parsing mode.
func classifySection(header string) (sectionKind, deps.Section, string) {
	switch header {
	case "project":
		return sectionProject, deps.SectionRuntime, ""
	case "project.optional-dependencies":
		return sectionOptionalGroups, deps.SectionOptional, ""
	case "tool.poetry.dependencies":
		return sectionPoetryDeps, deps.SectionRuntime, ""
	case "tool.poetry.dev-dependencies":
		return sectionPoetryDeps, deps.SectionDev, ""
	case "build-system":
		return sectionNone, "", ""
	}
	if g, ok := poetryGroupName(header); ok {
		section := deps.SectionOptional
		if g == "dev" || g == "test" {
			section = deps.SectionDev
		}
		return sectionPoetryDeps, section, g
	}
	return sectionNone, "", ""
}

func poetryGroupName(header string) (string, bool) {
	const prefix = "tool.poetry.group."
	const suffix = ".dependencies"
	if strings.HasPrefix(header, prefix) && strings.HasSuffix(header, suffix) {
		g := header[len(prefix) : len(header)-len(suffix)]
		if g != "" && !strings.Contains(g, ".") {
			return g, true
		}
	}
	return "", false
}
