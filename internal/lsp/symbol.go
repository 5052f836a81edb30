package lsp

import (
	"strings"

	"github.com/leapstack-labs/pgsyntax/internal/session"
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
)

// documentSymbols lists the top-level statements of doc as an outline.
// Transactions and blocks nest their inner statements; COPY data and
// unparseable regions are left out.
func documentSymbols(doc *session.Document) []DocumentSymbol {
	out := []DocumentSymbol{}
	for _, n := range doc.Tree.Root.Children {
		if sym, ok := symbolFor(doc, n); ok {
			out = append(out, sym)
		}
	}
	return out
}

func symbolFor(doc *session.Document, n *cst.Node) (DocumentSymbol, bool) {
	src := doc.Text()
	switch n.Kind {
	case cst.KindStatement:
		body := statementBody(n)
		if body == nil {
			return DocumentSymbol{}, false
		}
		sym := DocumentSymbol{
			Name:   body.Kind,
			Detail: body.Kind,
			Kind:   symbolKind(body.Kind),
			Range:  toProtocolRange(doc.SpanToRange(n.Span)),
		}
		sym.SelectionRange = sym.Range
		if ref := symbolReference(n, body); ref != nil {
			sym.Name = body.Kind + " " + ref.Text(src)
			sym.SelectionRange = toProtocolRange(doc.SpanToRange(ref.Span))
		}
		return sym, true

	case "transaction", "block":
		sym := DocumentSymbol{
			Name:  n.Kind,
			Kind:  SymbolKindNamespace,
			Range: toProtocolRange(doc.SpanToRange(n.Span)),
		}
		sym.SelectionRange = sym.Range
		for _, c := range n.Children {
			if child, ok := symbolFor(doc, c); ok {
				sym.Children = append(sym.Children, child)
			}
		}
		return sym, true

	case "psql_meta_command":
		r := toProtocolRange(doc.SpanToRange(n.Span))
		return DocumentSymbol{
			Name:           strings.TrimSpace(n.Text(src)),
			Detail:         n.Kind,
			Kind:           SymbolKindEvent,
			Range:          r,
			SelectionRange: r,
		}, true
	}
	return DocumentSymbol{}, false
}

// statementBody returns the first named child of a statement that is not a
// CTE, which names what the statement does.
func statementBody(st *cst.Node) *cst.Node {
	var first *cst.Node
	for _, c := range st.NamedChildren() {
		if first == nil {
			first = c
		}
		if c.Kind != "cte" && !strings.HasPrefix(c.Kind, "keyword_") {
			return c
		}
	}
	return first
}

// symbolReference picks the name shown for a statement: the object a DDL
// statement acts on, otherwise the first table the statement touches.
func symbolReference(st, body *cst.Node) *cst.Node {
	if isDDL(body.Kind) {
		return firstReference(body, func(kind string) bool { return strings.HasSuffix(kind, "_reference") })
	}
	if ref := firstReference(st, func(kind string) bool { return kind == "table_reference" }); ref != nil {
		return ref
	}
	return firstReference(body, func(kind string) bool { return strings.HasSuffix(kind, "_reference") })
}

func isDDL(kind string) bool {
	for _, prefix := range []string{"create_", "alter_", "drop_"} {
		if strings.HasPrefix(kind, prefix) {
			return true
		}
	}
	return false
}

// firstReference returns the first non-empty node under n whose kind
// satisfies match.
func firstReference(n *cst.Node, match func(kind string) bool) *cst.Node {
	var found *cst.Node
	n.Walk(func(x *cst.Node) bool {
		if found != nil {
			return false
		}
		if match(x.Kind) && x.Span.Len() > 0 {
			found = x
			return false
		}
		return true
	})
	return found
}

func symbolKind(kind string) SymbolKind {
	switch {
	case kind == "create_function":
		return SymbolKindFunction
	case kind == "create_schema":
		return SymbolKindNamespace
	case strings.HasPrefix(kind, "create_"):
		return SymbolKindClass
	default:
		return SymbolKindObject
	}
}
