package cst

import (
	"strconv"
	"strings"
)

// String renders the named structure of n as an S-expression, with field
// names prefixed the way tree-sitter prints them:
//
//	(program (statement (select (keyword_select) end: (select_expression ...))))
//
// Anonymous tokens are omitted; missing tokens print as (MISSING kind).
func (n *Node) String() string {
	var b strings.Builder
	n.writeSexp(&b, true)
	return b.String()
}

func (n *Node) writeSexp(b *strings.Builder, top bool) bool {
	if !n.Named && !n.Missing && !top {
		return false
	}
	if n.Field != "" && !top {
		b.WriteString(n.Field)
		b.WriteString(": ")
	}
	if n.Missing {
		b.WriteString("(MISSING ")
		if n.Named {
			b.WriteString(n.Kind)
		} else {
			b.WriteString(strconv.Quote(n.Kind))
		}
		b.WriteByte(')')
		return true
	}
	b.WriteByte('(')
	b.WriteString(n.Kind)
	for _, c := range n.Children {
		var child strings.Builder
		if c.writeSexp(&child, false) {
			b.WriteByte(' ')
			b.WriteString(child.String())
		}
	}
	b.WriteByte(')')
	return true
}

// Dump renders the named structure of n one node per line, indented by
// depth. Leaves show their source text, which makes the output readable
// for humans where String is meant for comparison in tests:
//
//	program
//	  statement
//	    select
//	      keyword_select `SELECT`
func (n *Node) Dump(src string) string {
	var b strings.Builder
	n.dump(&b, src, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, src string, depth int) {
	if !n.Named && !n.Missing && depth > 0 {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	if n.Field != "" {
		b.WriteString(n.Field)
		b.WriteString(": ")
	}
	switch {
	case n.Missing:
		b.WriteString("MISSING ")
		b.WriteString(n.Kind)
	case n.IsLeaf():
		b.WriteString(n.Kind)
		b.WriteString(" `")
		b.WriteString(n.Text(src))
		b.WriteByte('`')
	default:
		b.WriteString(n.Kind)
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.dump(b, src, depth+1)
	}
}
