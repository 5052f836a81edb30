package token

import "sort"

// Position represents a human-facing location in the source code.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number, in bytes
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span is a half-open byte range [Start, End) in the source.
type Span struct {
	Start int
	End   int
}

// Len returns the width of the span in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Covers reports whether other lies entirely inside s.
func (s Span) Covers(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Shift returns the span moved by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// LineIndex maps byte offsets to line/column positions.
type LineIndex struct {
	starts []int
}

// NewLineIndex builds a line index for src.
func NewLineIndex(src string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts}
}

// Position converts a byte offset to a Position.
func (li *LineIndex) Position(offset int) Position {
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line + 1, Column: offset - li.starts[line] + 1, Offset: offset}
}

// LineStart returns the byte offset of the given 0-based line, clamped to the
// last line.
func (li *LineIndex) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(li.starts) {
		return li.starts[len(li.starts)-1]
	}
	return li.starts[line]
}

// LineCount returns the number of lines.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}
