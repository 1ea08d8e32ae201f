package javascript

import (
	"reflect"
	"testing"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

const manifest = `{
  "name": "demo",
  "version": "1.0.0",
  "dependencies": {
    "lodash": "^4.17.0",
    "@types/node": "~20.1.0",
    "mylib": "file:../mylib",
    "tap": "github:tapjs/node-tap",
    "shorthand": "isaacs/minimatch"
  },
  "devDependencies": {
    "jest": "29.7.0"
  },
  "optionalDependencies": {
    "fsevents": "2.3.3"
  }
}
`

func parseAll(t *testing.T) map[string]deps.Dependency {
	t.Helper()
	result := Parser{}.Parse(manifest)
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", result.Diagnostics)
	}
	byName := map[string]deps.Dependency{}
	for _, d := range result.Dependencies {
		byName[d.Name] = d
	}
	return byName
}

func TestParse_Entries(t *testing.T) {
	byName := parseAll(t)

	tests := []struct {
		name    string
		section deps.Section
		source  deps.SourceKind
		req     string
	}{
		{"lodash", deps.SectionRuntime, deps.SourceRegistry, "^4.17.0"},
		{"@types/node", deps.SectionRuntime, deps.SourceRegistry, "~20.1.0"},
		{"mylib", deps.SectionRuntime, deps.SourcePath, "file:../mylib"},
		{"tap", deps.SectionRuntime, deps.SourceGitHub, "github:tapjs/node-tap"},
		{"shorthand", deps.SectionRuntime, deps.SourceGitHub, "isaacs/minimatch"},
		{"jest", deps.SectionDev, deps.SourceRegistry, "29.7.0"},
		{"fsevents", deps.SectionOptional, deps.SourceRegistry, "2.3.3"},
	}

	for _, tt := range tests {
		d, ok := byName[tt.name]
		if !ok {
			t.Errorf("dependency %s not parsed", tt.name)
			continue
		}
		if d.Section != tt.section || d.Source != tt.source || d.Requirement != tt.req {
			t.Errorf("%s = {%s %s %q}, want {%s %s %q}",
				tt.name, d.Section, d.Source, d.Requirement, tt.section, tt.source, tt.req)
		}
	}
}

func TestParse_Spans(t *testing.T) {
	byName := parseAll(t)

	lodash := byName["lodash"]
	if got := manifest[lodash.NameSpan.Start:lodash.NameSpan.End]; got != "lodash" {
		t.Errorf("name span text = %q", got)
	}
	if got := manifest[lodash.VersionSpan.Start:lodash.VersionSpan.End]; got != "^4.17.0" {
		t.Errorf("version span text = %q", got)
	}

	scoped := byName["@types/node"]
	if got := manifest[scoped.NameSpan.Start:scoped.NameSpan.End]; got != "@types/node" {
		t.Errorf("scoped name span text = %q", got)
	}
}

func TestParse_Idempotent(t *testing.T) {
	a := Parser{}.Parse(manifest)
	b := Parser{}.Parse(manifest)
	if !reflect.DeepEqual(a, b) {
		t.Error("re-parsing the same text should yield identical results")
	}
}

func TestParse_Invalid(t *testing.T) {
	result := Parser{}.Parse(`{"dependencies": {`)
	if len(result.Dependencies) != 0 || len(result.Diagnostics) == 0 {
		t.Error("broken JSON should yield no dependencies and one diagnostic")
	}
}

func TestParseLock_V3(t *testing.T) {
	lock := `{
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "demo"},
    "node_modules/lodash": {"version": "4.17.21"},
    "node_modules/a/node_modules/lodash": {"version": "3.10.1"},
    "node_modules/@types/node": {"version": "20.1.7"}
  }
}`
	resolved, err := Lockfile{}.ParseLock(lock)
	if err != nil {
		t.Fatalf("ParseLock failed: %v", err)
	}
	// Nested copies register both versions; the accessor picks the highest.
	if v, _ := resolved.Resolved("lodash"); v != "4.17.21" {
		t.Errorf("lodash = %q, want 4.17.21", v)
	}
	if v, _ := resolved.Resolved("@types/node"); v != "20.1.7" {
		t.Errorf("@types/node = %q", v)
	}
}

func TestParseLock_V1Fallback(t *testing.T) {
	lock := `{
  "lockfileVersion": 1,
  "dependencies": {
    "lodash": {"version": "4.17.21", "dependencies": {"inner": {"version": "1.0.0"}}}
  }
}`
	resolved, err := Lockfile{}.ParseLock(lock)
	if err != nil {
		t.Fatalf("ParseLock failed: %v", err)
	}
	if v, _ := resolved.Resolved("lodash"); v != "4.17.21" {
		t.Errorf("lodash = %q", v)
	}
	if !resolved.Has("inner") {
		t.Error("transitive v1 entries should register")
	}
}
