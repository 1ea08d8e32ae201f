package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// diagnosticsFor regenerates the document's diagnostics from cached state
// only; it performs no I/O and is safe on every request path.
func diagnosticsFor(state DocumentState, cfg Config) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	if state.Oversize {
		sev := severityValue("error")
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{},
			Severity: &sev,
			Source:   sourcePtr(),
			Message:  fmt.Sprintf("file exceeds the %d MB limit; dependency features are disabled", deps.MaxFileSize>>20),
		})
		return diagnostics
	}
	if len(state.Text) > deps.WarnFileSize {
		sev := severityValue("warning")
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{},
			Severity: &sev,
			Source:   sourcePtr(),
			Message:  "large manifest; dependency analysis may be slow",
		})
	}

	for _, pd := range state.Parsed.Diagnostics {
		sev := severityValue("error")
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    spanToRange(state.Text, pd.Span),
			Severity: &sev,
			Source:   sourcePtr(),
			Message:  pd.Message,
		})
	}

	if state.Eco == nil {
		return diagnostics
	}

	for _, d := range state.Parsed.Dependencies {
		if d.Source != deps.SourceRegistry {
			continue
		}
		c := classify(state, d)
		switch c.status {
		case statusOutdated, statusLockBehind:
			sev := severityValue(cfg.Diagnostics.OutdatedSeverity)
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    spanToRange(state.Text, d.NameSpan),
				Severity: &sev,
				Source:   sourcePtr(),
				Message:  fmt.Sprintf("newer version available: %s", c.latest.Version),
			})
		case statusUnknown:
			sev := severityValue(cfg.Diagnostics.UnknownSeverity)
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    spanToRange(state.Text, d.NameSpan),
				Severity: &sev,
				Source:   sourcePtr(),
				Message:  fmt.Sprintf("package not found in %s", state.Eco.Registry.Name()),
			})
		case statusYanked:
			sev := severityValue(cfg.Diagnostics.YankedSeverity)
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    spanToRange(state.Text, d.NameSpan),
				Severity: &sev,
				Source:   sourcePtr(),
				Message:  fmt.Sprintf("version %s was yanked", c.lockVersion),
			})
		}
	}
	return diagnostics
}

func severityValue(name string) protocol.DiagnosticSeverity {
	switch name {
	case "error":
		return protocol.DiagnosticSeverityError
	case "warning":
		return protocol.DiagnosticSeverityWarning
	case "information":
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func sourcePtr() *string {
	s := "deps-lsp"
	return &s
}
