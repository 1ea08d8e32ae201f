package lsp

import (
	"context"
	"fmt"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// searchTimeout bounds name-completion registry searches, separately from
// the version-fetch budget.
const searchTimeout = 3 * time.Second

const maxVersionItems = 5

// versionDisplayItem unifies version formatting across completion items
// and code actions: the same ordering, the same "(latest)" tag.
type versionDisplayItem struct {
	Version string
	Latest  bool
	Yanked  bool
}

// versionDisplayItems lists the top non-yanked versions for a package,
// newest-first, with the latest stable flagged. The list is built from
// the snapshot only.
func versionDisplayItems(state DocumentState, name string, limit int) []versionDisplayItem {
	latest, hasLatest := state.CachedLatest[name]

	var items []versionDisplayItem
	for _, v := range state.VersionLists[name] {
		if v.Yanked {
			continue
		}
		items = append(items, versionDisplayItem{
			Version: v.Version,
			Latest:  hasLatest && v.Version == latest.Version,
		})
		if len(items) == limit {
			break
		}
	}
	if len(items) == 0 && hasLatest {
		items = append(items, versionDisplayItem{Version: latest.Version, Latest: true})
	}
	return items
}

// completionFor answers a completion request at the given byte offset.
func (s *Server) completionFor(state DocumentState, offset int) ([]protocol.CompletionItem, error) {
	d, ok := dependencyAt(state, offset)
	if !ok {
		return nil, nil
	}

	if spanContains(d.NameSpan, offset) {
		return s.nameCompletions(state, d, offset)
	}
	return versionCompletions(state, d), nil
}

// nameCompletions searches the registry for packages matching the typed
// prefix. This is the one completion path allowed to touch the network,
// under its own timeout.
func (s *Server) nameCompletions(state DocumentState, d deps.Dependency, offset int) ([]protocol.CompletionItem, error) {
	if state.Eco.Registry == nil {
		return nil, nil
	}
	prefix := state.Text[d.NameSpan.Start:min(offset, d.NameSpan.End)]
	if prefix == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()
	matches, err := state.Eco.Registry.Search(ctx, prefix, 25)
	if err != nil {
		return nil, err
	}

	kind := protocol.CompletionItemKindModule
	items := make([]protocol.CompletionItem, 0, len(matches))
	for i, m := range matches {
		detail := m.Latest
		sortText := fmt.Sprintf("%04d", i)
		item := protocol.CompletionItem{
			Label:    m.Name,
			Kind:     &kind,
			SortText: &sortText,
			TextEdit: protocol.TextEdit{
				Range:   spanToRange(state.Text, d.NameSpan),
				NewText: m.Name,
			},
		}
		if detail != "" {
			item.Detail = &detail
		}
		if m.Description != "" {
			item.Documentation = m.Description
		}
		items = append(items, item)
	}
	return items, nil
}

// versionCompletions offers the latest stable plus recent history from
// the last fetched version list. Items keep semantic order via SortText
// (so 0.14.0 sorts before 0.8.0); the latest is preselected and tagged.
func versionCompletions(state DocumentState, d deps.Dependency) []protocol.CompletionItem {
	name := state.Eco.Canonical(d.Name)
	display := versionDisplayItems(state, name, maxVersionItems)

	kind := protocol.CompletionItemKindValue
	items := make([]protocol.CompletionItem, 0, len(display))
	for i, v := range display {
		label := v.Version
		detail := ""
		if v.Latest {
			detail = "(latest)"
		}
		sortText := fmt.Sprintf("%04d", i)

		// An empty version span means `pkg = ""`-style text: insert at
		// the caret instead of replacing, so the quotes survive.
		editRange := spanToRange(state.Text, d.VersionSpan)

		item := protocol.CompletionItem{
			Label:    label,
			Kind:     &kind,
			SortText: &sortText,
			TextEdit: protocol.TextEdit{Range: editRange, NewText: v.Version},
		}
		if detail != "" {
			item.Detail = &detail
		}
		if i == 0 {
			preselect := true
			item.Preselect = &preselect
		}
		items = append(items, item)
	}
	return items
}
