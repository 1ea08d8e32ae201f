package lsp

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

func TestInlayHints_Glyphs(t *testing.T) {
	cfg := testConfig()

	lock := deps.ResolvedPackages{}
	lock.Add("tokio", "1.40.0")
	state := stateWith("tokio 1\nserde 1.0.100\n",
		map[string]deps.VersionInfo{
			"tokio": {Version: "1.40.0"},
			"serde": {Version: "1.0.210"},
		}, lock)

	hints := inlayHintsFor(state, cfg)
	if len(hints) != 2 {
		t.Fatalf("expected 2 hints, got %d", len(hints))
	}
	if hints[0].Label != "✅" {
		t.Errorf("tokio hint = %q, want up-to-date glyph", hints[0].Label)
	}
	if hints[1].Label != "❌ 1.0.210" {
		t.Errorf("serde hint = %q, want needs-update glyph with latest", hints[1].Label)
	}
}

func TestInlayHints_Loading(t *testing.T) {
	cfg := testConfig()
	state := stateWith("serde 1.0\n", nil, nil)
	state.Loading["serde"] = true

	hints := inlayHintsFor(state, cfg)
	if len(hints) != 1 || hints[0].Label != "⏳" {
		t.Errorf("hints = %+v, want loading indicator", hints)
	}

	off := false
	cfg.LoadingIndicator.FallbackToHints = &off
	if hints := inlayHintsFor(state, cfg); len(hints) != 0 {
		t.Error("loading hint should respect fallback_to_hints=false")
	}
}

func TestInlayHints_Disabled(t *testing.T) {
	cfg := testConfig()
	off := false
	cfg.InlayHints.Enabled = &off
	state := stateWith("serde 1.0\n",
		map[string]deps.VersionInfo{"serde": {Version: "1.0.210"}}, nil)
	if hints := inlayHintsFor(state, cfg); hints != nil {
		t.Error("disabled inlay hints should produce nothing")
	}
}

// Transport failure plus a lock entry must not produce "unknown".
func TestDiagnostics_TransportFailureSuppressedByLock(t *testing.T) {
	cfg := testConfig()
	lock := deps.ResolvedPackages{}
	lock.Add("lodash", "4.17.21")
	// Transport failure: no CachedLatest entry, no NotFound flag.
	state := stateWith("lodash ^4.17.0\n", nil, lock)

	for _, d := range diagnosticsFor(state, cfg) {
		if strings.Contains(d.Message, "not found") {
			t.Errorf("unexpected unknown diagnostic: %s", d.Message)
		}
	}
}

func TestDiagnostics_Kinds(t *testing.T) {
	cfg := testConfig()
	state := stateWith("serde 1.0.100\nghost 1.0\n",
		map[string]deps.VersionInfo{"serde": {Version: "1.0.210"}}, nil)
	state.NotFound["ghost"] = true
	state.Eco.Registry = &fakeRegistry{}

	diags := diagnosticsFor(state, cfg)
	var sawOutdated, sawUnknown bool
	for _, d := range diags {
		if strings.Contains(d.Message, "newer version available: 1.0.210") {
			sawOutdated = true
			if *d.Severity != severityValue("hint") {
				t.Errorf("outdated severity = %v, want hint", *d.Severity)
			}
		}
		if strings.Contains(d.Message, "not found") {
			sawUnknown = true
			if *d.Severity != severityValue("warning") {
				t.Errorf("unknown severity = %v, want warning", *d.Severity)
			}
		}
	}
	if !sawOutdated || !sawUnknown {
		t.Errorf("diagnostics missing kinds: outdated=%v unknown=%v", sawOutdated, sawUnknown)
	}
}

func TestDiagnostics_Oversize(t *testing.T) {
	cfg := testConfig()
	state := stateWith("", nil, nil)
	state.Oversize = true
	state.Parsed = &deps.ParsedManifest{}

	diags := diagnosticsFor(state, cfg)
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "limit") {
		t.Errorf("oversize diagnostics = %+v", diags)
	}
}

func TestHover_Card(t *testing.T) {
	s := &Server{cfg: testConfig()}

	lock := deps.ResolvedPackages{}
	lock.Add("serde", "1.0.100")
	state := stateWith("serde 1.0.100\n",
		map[string]deps.VersionInfo{"serde": {Version: "1.0.210"}}, lock)
	state.VersionLists["serde"] = []deps.VersionInfo{
		{Version: "1.0.210"}, {Version: "1.0.100"},
	}
	state.Eco.DocURL = func(name string) string { return "https://docs.rs/" + name }
	state.Eco.PackageURL = func(name string) string { return "https://crates.io/crates/" + name }

	hover := s.hoverFor(state, 2) // inside the name span
	if hover == nil {
		t.Fatal("expected hover")
	}
	content := hover.Contents.(protocol.MarkupContent).Value
	for _, want := range []string{"serde", "1.0.100", "1.0.210", "docs.rs/serde"} {
		if !strings.Contains(content, want) {
			t.Errorf("hover missing %q:\n%s", want, content)
		}
	}

	if h := s.hoverFor(state, len(state.Text)); h != nil {
		t.Error("hover outside any span should be nil")
	}
}

func TestCodeActions_PreservesQuotes(t *testing.T) {
	text := `{"lodash": "^4.17.0"}`
	// Build spans the way the real parser would: version span excludes quotes.
	vs := strings.Index(text, "^4.17.0")
	state := stateWith("", nil, nil)
	state.Text = text
	state.Parsed = &deps.ParsedManifest{Dependencies: []deps.Dependency{{
		Name:        "lodash",
		Requirement: "^4.17.0",
		NameSpan:    deps.Span{Start: 2, End: 8},
		VersionSpan: deps.Span{Start: vs, End: vs + len("^4.17.0")},
		Section:     deps.SectionRuntime,
		Source:      deps.SourceRegistry,
	}}}
	state.CachedLatest["lodash"] = deps.VersionInfo{Version: "4.17.21"}
	state.VersionLists["lodash"] = []deps.VersionInfo{
		{Version: "4.17.21"}, {Version: "4.17.20"},
	}

	actions := codeActionsFor(state, 0, len(text))
	if len(actions) == 0 {
		t.Fatal("expected update actions")
	}
	first := actions[0]
	if first.Title != "Update lodash to 4.17.21" {
		t.Errorf("title = %q", first.Title)
	}
	edits := first.Edit.Changes[state.URI]
	if len(edits) != 1 {
		t.Fatalf("edits = %+v", edits)
	}
	// Applying the edit must leave the quotes intact.
	r := edits[0].Range
	startOff := positionToOffset(text, r.Start)
	endOff := positionToOffset(text, r.End)
	applied := text[:startOff] + edits[0].NewText + text[endOff:]
	if applied != `{"lodash": "4.17.21"}` {
		t.Errorf("applied edit = %s", applied)
	}
}

func TestCodeActions_LimitToFiveVersions(t *testing.T) {
	state := stateWith("serde 0.9.0\n",
		map[string]deps.VersionInfo{"serde": {Version: "1.0.5"}}, nil)
	var list []deps.VersionInfo
	for _, v := range []string{"1.0.5", "1.0.4", "1.0.3", "1.0.2", "1.0.1", "1.0.0", "0.9.9"} {
		list = append(list, deps.VersionInfo{Version: v})
	}
	state.VersionLists["serde"] = list

	actions := codeActionsFor(state, 0, len(state.Text))
	if len(actions) > 5 {
		t.Errorf("got %d actions, want at most 5", len(actions))
	}
}

func TestCompletion_VersionOrderingAndPreselect(t *testing.T) {
	state := stateWith("pkg 0.8.0\n",
		map[string]deps.VersionInfo{"pkg": {Version: "0.14.0"}}, nil)
	state.VersionLists["pkg"] = []deps.VersionInfo{
		{Version: "0.14.0"},
		{Version: "0.9.0-rc.1", Prerelease: true},
		{Version: "0.8.0"},
		{Version: "0.7.0", Yanked: true},
		{Version: "0.6.0"},
	}

	items := versionCompletions(state, state.Parsed.Dependencies[0])
	if len(items) == 0 {
		t.Fatal("expected completion items")
	}
	if items[0].Label != "0.14.0" {
		t.Errorf("first item = %s, want 0.14.0", items[0].Label)
	}
	if items[0].Preselect == nil || !*items[0].Preselect {
		t.Error("first item should be preselected")
	}
	if items[0].Detail == nil || *items[0].Detail != "(latest)" {
		t.Error("latest should be tagged")
	}
	// Semantic order via SortText: 0.14.0 before 0.8.0.
	if *items[0].SortText >= *items[1].SortText {
		t.Error("sort text must preserve semantic order")
	}
	for _, item := range items {
		if item.Label == "0.7.0" {
			t.Error("yanked versions must not be offered")
		}
	}
}

func TestCompletion_EmptyVersionInsert(t *testing.T) {
	text := `pkg ""`
	state := stateWith("", nil, nil)
	state.Text = text
	insertAt := len(text) - 1
	state.Parsed = &deps.ParsedManifest{Dependencies: []deps.Dependency{{
		Name:        "pkg",
		NameSpan:    deps.Span{Start: 0, End: 3},
		VersionSpan: deps.Span{Start: insertAt, End: insertAt},
		Section:     deps.SectionRuntime,
		Source:      deps.SourceRegistry,
	}}}
	state.CachedLatest["pkg"] = deps.VersionInfo{Version: "2.0.0"}
	state.VersionLists["pkg"] = []deps.VersionInfo{{Version: "2.0.0"}}

	items := versionCompletions(state, state.Parsed.Dependencies[0])
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	edit, ok := items[0].TextEdit.(protocol.TextEdit)
	if !ok {
		t.Fatalf("TextEdit type = %T", items[0].TextEdit)
	}
	if edit.Range.Start != edit.Range.End {
		t.Error("empty version span must use insert semantics")
	}
	startOff := positionToOffset(text, edit.Range.Start)
	applied := text[:startOff] + edit.NewText + text[startOff:]
	if applied != `pkg "2.0.0"` {
		t.Errorf("applied edit = %s", applied)
	}
}
