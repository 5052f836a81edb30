// Package session keeps the parse state of open documents.
//
// Each document owns one syntax tree. Edits arrive as LSP-style ranges,
// are converted to byte edits against the current text, and are applied
// with an incremental reparse, so unchanged statements keep their nodes.
package session

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/leapstack-labs/pgsyntax/pkg/parser"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Position is a zero-based line and UTF-16 character offset, as used by
// LSP clients.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open range between two positions.
type Range struct {
	Start Position
	End   Position
}

// Change is one content change. A nil Range replaces the whole text.
type Change struct {
	Range *Range
	Text  string
}

// Document is an immutable snapshot of an open document.
type Document struct {
	URI     string
	ID      uuid.UUID // stable for the lifetime of the open document
	Version int
	Tree    *parser.Tree

	lines *token.LineIndex
}

func newDocument(uri string, id uuid.UUID, version int, tree *parser.Tree) *Document {
	return &Document{
		URI:     uri,
		ID:      id,
		Version: version,
		Tree:    tree,
		lines:   token.NewLineIndex(tree.Source),
	}
}

// Text returns the document content.
func (d *Document) Text() string {
	return d.Tree.Source
}

// PositionToOffset converts a position to a byte offset. Positions past the
// end of a line clamp to the line end; lines past the end clamp to the end
// of the text.
func (d *Document) PositionToOffset(pos Position) int {
	src := d.Text()
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= d.lines.LineCount() {
		return len(src)
	}

	off := d.lines.LineStart(pos.Line)
	units := 0
	for off < len(src) && src[off] != '\n' && units < pos.Character {
		r, size := utf8.DecodeRuneInString(src[off:])
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		units += n
		off += size
	}
	return off
}

// OffsetToPosition converts a byte offset to a position.
func (d *Document) OffsetToPosition(offset int) Position {
	src := d.Text()
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}

	p := d.lines.Position(offset)
	line := p.Line - 1
	units := 0
	for _, r := range src[d.lines.LineStart(line):offset] {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		units += n
	}
	return Position{Line: line, Character: units}
}

// RangeToSpan converts a range to a byte span.
func (d *Document) RangeToSpan(r Range) token.Span {
	start := d.PositionToOffset(r.Start)
	end := d.PositionToOffset(r.End)
	if end < start {
		end = start
	}
	return token.Span{Start: start, End: end}
}

// SpanToRange converts a byte span to a range.
func (d *Document) SpanToRange(s token.Span) Range {
	return Range{Start: d.OffsetToPosition(s.Start), End: d.OffsetToPosition(s.End)}
}
