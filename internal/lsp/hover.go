package lsp

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pgsyntax/internal/session"
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
)

// maxHoverText caps the source excerpt shown in a hover.
const maxHoverText = 80

// hoverAt describes the syntax node under pos: its kind, the field it fills
// in its parent, and the chain of enclosing node kinds. It returns nil when
// the cursor is outside every statement.
func hoverAt(doc *session.Document, pos session.Position) *Hover {
	offset := doc.PositionToOffset(pos)
	path := doc.Tree.Root.Path(offset)
	if len(path) < 2 {
		return nil
	}
	node := path[len(path)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", node.Kind)
	if node.Field != "" {
		fmt.Fprintf(&b, " · field `%s`", node.Field)
	}
	b.WriteString("\n\n")

	b.WriteString(hoverPath(path[1:]))

	if text := excerpt(node.Text(doc.Text())); text != "" {
		fmt.Fprintf(&b, "\n\n```sql\n%s\n```", text)
	}

	r := toProtocolRange(doc.SpanToRange(node.Span))
	return &Hover{
		Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: b.String()},
		Range:    &r,
	}
}

// excerpt shortens s to one line of at most maxHoverText characters.
func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxHoverText {
		return s
	}
	return string(r[:maxHoverText-3]) + "..."
}

// hoverPath renders the kinds of path joined the way hovers show them.
func hoverPath(path []*cst.Node) string {
	kinds := make([]string, len(path))
	for i, n := range path {
		kinds[i] = n.Kind
	}
	return strings.Join(kinds, " › ")
}
