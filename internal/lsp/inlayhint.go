package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// Inlay hints are an LSP 3.17 feature; the 3.16 protocol package carries
// no types for them, so the method is routed by hand (see handler.go) and
// the wire structs live here.

type inlayHintParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

type inlayHint struct {
	Position    protocol.Position `json:"position"`
	Label       string            `json:"label"`
	PaddingLeft bool              `json:"paddingLeft,omitempty"`
}

// inlayHintsFor renders one status hint per dependency, positioned after
// the version span (or the name span when no version text exists).
func inlayHintsFor(state DocumentState, cfg Config) []inlayHint {
	if !*cfg.InlayHints.Enabled || state.Eco == nil || state.Oversize {
		return nil
	}

	hints := make([]inlayHint, 0, len(state.Parsed.Dependencies))
	for _, d := range state.Parsed.Dependencies {
		if d.Source != deps.SourceRegistry {
			continue
		}
		label, ok := hintLabel(state, cfg, d)
		if !ok {
			continue
		}
		anchor := d.VersionSpan.End
		if d.VersionSpan.Empty() {
			anchor = d.NameSpan.End
		}
		// The hint sits after the closing quote when one exists.
		if anchor < len(state.Text) && (state.Text[anchor] == '"' || state.Text[anchor] == '\'') {
			anchor++
		}
		hints = append(hints, inlayHint{
			Position:    offsetToPosition(state.Text, anchor),
			Label:       label,
			PaddingLeft: true,
		})
	}
	return hints
}

func hintLabel(state DocumentState, cfg Config, d deps.Dependency) (string, bool) {
	c := classify(state, d)
	switch c.status {
	case statusUpToDate:
		return cfg.InlayHints.UpToDateText, true
	case statusOutdated, statusLockBehind, statusYanked:
		if !c.hasLatest {
			return "", false
		}
		return strings.ReplaceAll(cfg.InlayHints.NeedsUpdateTxt, "{}", c.latest.Version), true
	case statusLoading:
		if *cfg.LoadingIndicator.Enabled && *cfg.LoadingIndicator.FallbackToHints {
			return cfg.LoadingIndicator.LoadingText, true
		}
		return "", false
	default:
		return "", false
	}
}
