// Package lsp adapts resolver results to Language Server Protocol
// types, so editor integrations can consume go-to-definition answers
// without knowing about the resolver.
package lsp

import (
	"bytes"

	"go.lsp.dev/protocol"

	"github.com/albertocavalcante/skyfind/internal/locate"
)

// LocationFor converts a resolved Location into an LSP Location.
// content is the resolved file's text, used to translate the byte
// offset into a line/character position. A Location without an offset
// maps to the start of the file.
func LocationFor(loc locate.Location, content []byte) protocol.Location {
	pos := protocol.Position{}
	if loc.HasOffset {
		pos = PositionFor(content, loc.Offset)
	}
	return protocol.Location{
		URI:   protocol.DocumentURI("file://" + loc.Path),
		Range: protocol.Range{Start: pos, End: pos},
	}
}

// PositionFor translates a byte offset into a zero-based line/character
// position. Offsets past the end of content clamp to the last position.
func PositionFor(content []byte, offset int64) protocol.Position {
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	head := content[:offset]
	line := bytes.Count(head, []byte("\n"))
	column := int(offset)
	if last := bytes.LastIndexByte(head, '\n'); last >= 0 {
		column = int(offset) - last - 1
	}
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(column),
	}
}
