package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// offsetToPosition converts a byte offset into an LSP position. LSP
// positions count lines by newline and characters in UTF-16 code units,
// so multi-byte runes must be re-measured rather than counted as bytes.
func offsetToPosition(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	lineStart := 0
	line := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	character := 0
	for _, r := range text[lineStart:offset] {
		character += utf16.RuneLen(r)
	}
	return protocol.Position{Line: uint32(line), Character: uint32(character)}
}

// positionToOffset converts an LSP position back into a byte offset.
// Positions past the end of a line clamp to the line end.
func positionToOffset(text string, pos protocol.Position) int {
	offset := 0
	for line := uint32(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}
	remaining := int(pos.Character)
	for offset < len(text) && remaining > 0 {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		remaining -= utf16.RuneLen(r)
		offset += size
	}
	return offset
}

// spanToRange converts a byte span into an LSP range against the given
// text.
func spanToRange(text string, span deps.Span) protocol.Range {
	return protocol.Range{
		Start: offsetToPosition(text, span.Start),
		End:   offsetToPosition(text, span.End),
	}
}

// spanContains reports whether the byte offset falls inside the span,
// end-inclusive so a cursor sitting right after the last character still
// counts as "on" the text.
func spanContains(span deps.Span, offset int) bool {
	return offset >= span.Start && offset <= span.End
}
