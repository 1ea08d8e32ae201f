package lsp

import (
	"context"
	"fmt"
	"strings"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// hoverMetadataTimeout bounds the registry metadata lookup a hover may
// trigger. Version data always comes from the snapshot; only the
// descriptive text is fetched, and a miss degrades to a shorter card.
const hoverMetadataTimeout = 2 * time.Second

// hoverFor renders the hover card for the dependency under the cursor.
func (s *Server) hoverFor(state DocumentState, offset int) *protocol.Hover {
	d, ok := dependencyAt(state, offset)
	if !ok {
		return nil
	}
	name := state.Eco.Canonical(d.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", d.Name)

	if state.Eco.Registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), hoverMetadataTimeout)
		defer cancel()
		if meta, err := state.Eco.Registry.Metadata(ctx, name); err == nil {
			if meta.Description != "" {
				fmt.Fprintf(&b, "\n%s\n", meta.Description)
			}
		}
	}

	if d.Requirement != "" {
		fmt.Fprintf(&b, "\n**Requirement:** `%s`\n", d.Requirement)
	}
	if lock, ok := state.ResolvedLock.Resolved(name); ok {
		fmt.Fprintf(&b, "\n**Locked:** `%s`\n", lock)
	}
	if latest, ok := state.CachedLatest[name]; ok {
		fmt.Fprintf(&b, "\n**Latest stable:** `%s`\n", latest.Version)
	}

	if versions := state.VersionLists[name]; len(versions) > 0 {
		fmt.Fprintf(&b, "\n**Versions:**\n")
		for i, v := range versions {
			if i == 10 {
				fmt.Fprintf(&b, "- …\n")
				break
			}
			marker := ""
			if v.Yanked {
				marker = " (yanked)"
			} else if v.Prerelease {
				marker = " (pre-release)"
			}
			fmt.Fprintf(&b, "- %s%s\n", v.Version, marker)
		}
	}

	fmt.Fprintf(&b, "\n[Documentation](%s) · [Registry](%s)\n",
		state.Eco.DocURL(d.Name), state.Eco.PackageURL(d.Name))

	hoverRange := spanToRange(state.Text, d.NameSpan)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &hoverRange,
	}
}

// dependencyAt finds the dependency whose name or version span covers the
// byte offset.
func dependencyAt(state DocumentState, offset int) (deps.Dependency, bool) {
	for _, d := range state.Parsed.Dependencies {
		if spanContains(d.NameSpan, offset) || (!d.VersionSpan.Empty() && spanContains(d.VersionSpan, offset)) {
			return d, true
		}
	}
	return deps.Dependency{}, false
}
