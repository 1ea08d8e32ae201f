package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// codeActionsFor offers "Update <pkg> to <version>" quickfixes for the
// dependencies intersecting the requested range. Edits replace only the
// version span, so surrounding quotes and inline-table syntax survive.
// No network calls happen here; candidates come from the snapshot.
func codeActionsFor(state DocumentState, startOffset, endOffset int) []protocol.CodeAction {
	if state.Eco == nil || state.Oversize {
		return nil
	}

	var actions []protocol.CodeAction
	kind := protocol.CodeActionKindQuickFix

	for _, d := range state.Parsed.Dependencies {
		if d.Source != deps.SourceRegistry || d.VersionSpan.Empty() {
			continue
		}
		if d.NameSpan.Start > endOffset || d.NameSpan.End < startOffset {
			continue
		}

		name := state.Eco.Canonical(d.Name)
		current := state.Text[d.VersionSpan.Start:d.VersionSpan.End]

		for i, v := range versionDisplayItems(state, name, maxVersionItems) {
			if v.Version == current {
				continue
			}
			title := fmt.Sprintf("Update %s to %s", d.Name, v.Version)
			edit := protocol.TextEdit{
				Range:   spanToRange(state.Text, d.VersionSpan),
				NewText: v.Version,
			}
			action := protocol.CodeAction{
				Title: title,
				Kind:  &kind,
				Edit: &protocol.WorkspaceEdit{
					Changes: map[protocol.DocumentUri][]protocol.TextEdit{
						state.URI: {edit},
					},
				},
			}
			if i == 0 {
				preferred := true
				action.IsPreferred = &preferred
			}
			actions = append(actions, action)
		}
	}
	return actions
}
