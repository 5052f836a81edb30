package parser

import (
	"fmt"

	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Program assembly and error recovery.
//
// A program is parsed as a sequence of independent items. Every item starts
// with a fresh parser at the offset where the previous item ended, so an
// item depends on nothing but the bytes it examined. That is what makes the
// item list reusable by Reparse.
//
//	item → statement-like [";"] [copy data lines [terminator]]
//	     | ";"
//	     | psql_meta_command
//	     | ERROR ";"
//	     | trailing comments at end of input

// item is one top-level unit of a program.
type item struct {
	nodes     []*cst.Node // top-level children contributed to the program
	start     int         // offset parsing began at
	end       int         // end of the last consumed byte
	lookahead int         // one past the furthest byte examined
	diags     []Diagnostic
	eof       bool // the final item, holding trailing comments
}

// shifted returns a copy of it moved by delta bytes. Nodes are cloned so
// that the tree it came from stays untouched.
func (it item) shifted(delta int) item {
	out := it
	out.start += delta
	out.end += delta
	out.lookahead += delta
	out.nodes = make([]*cst.Node, len(it.nodes))
	for i, n := range it.nodes {
		c := n.Clone()
		c.Shift(delta)
		out.nodes[i] = c
	}
	out.diags = make([]Diagnostic, len(it.diags))
	for i, d := range it.diags {
		out.diags[i] = d.shift(delta)
	}
	return out
}

// parseItems parses items from start to the end of src. When sync is not
// nil it is asked at every item boundary whether the remaining items are
// already known.
func parseItems(src string, start int, sync func(offset int) ([]item, bool)) []item {
	var items []item
	for {
		it := parseItem(src, start)
		items = append(items, it)
		if it.eof {
			return items
		}
		start = it.end
		if sync != nil {
			if rest, ok := sync(start); ok {
				return append(items, rest...)
			}
		}
	}
}

// parseItem parses the item starting at offset start.
func parseItem(src string, start int) item {
	p := newParser(src, newBoundedLexer(src, start, len(src)))
	it := item{start: start}

	var nodes []*cst.Node
	switch p.cur().Type {
	case token.EOF:
		p.nextToken()
		it.eof = true
	case token.META_COMMAND:
		nodes = append(nodes, p.leaf("psql_meta_command", true))
	case token.SEMICOLON:
		nodes = append(nodes, p.punct())
	default:
		nodes = p.parseItemStatement()
	}

	it.end = p.last
	if it.eof {
		it.end = len(src)
	}
	it.lookahead = p.maxRead

	// COPY ... FROM STDIN; switches to line mode until a meta-command or EOF
	if n := len(nodes); n >= 2 && nodes[n-1].Kind == ";" && startsCopyFromStdin(nodes[n-2]) {
		data, ok := scanCopyData(src, it.end)
		if data.scanned > it.lookahead {
			it.lookahead = data.scanned
		}
		if ok && (len(data.lines) > 0 || data.terminator != nil) {
			nodes = append(nodes, data.lines...)
			if data.terminator != nil {
				nodes = append(nodes, data.terminator)
			}
			it.end = data.end
		}
	}

	it.nodes = cst.AttachExtras(nodes, p.extras)
	it.diags = p.diags
	return it
}

// startsCopyFromStdin reports whether st is a statement made of a
// COPY ... FROM STDIN header.
func startsCopyFromStdin(st *cst.Node) bool {
	return st.Kind == cst.KindStatement && len(st.Children) == 1 && isCopyFromStdin(st.Children[0])
}

// parseItemStatement parses a statement-like unit and its terminator,
// wrapping whatever cannot be parsed in an ERROR node that runs to the next
// statement boundary.
func (p *Parser) parseItemStatement() []*cst.Node {
	var nodes []*cst.Node
	if st := p.parseTopLevel(); st != nil {
		nodes = append(nodes, st)
	}
	if !p.atEnd() {
		nodes = append(nodes, p.recover())
	}
	if p.check(token.SEMICOLON) {
		nodes = append(nodes, p.punct())
	}
	return nodes
}

// recover consumes tokens up to the next ";", meta-command or end of input
// into an ERROR node. One diagnostic is reported at the first token unless
// that token already carried a lexical one.
func (p *Parser) recover() *cst.Node {
	bad := cst.NewBranch(cst.KindError)
	first := p.cur()
	before := len(p.diags)
	bad.Add(p.recoveryLeaf())
	if len(p.diags) == before {
		p.errorAt(first.Span, fmt.Sprintf(errSyntaxNear, first.Literal))
	}
	for !p.atEnd() {
		bad.Add(p.recoveryLeaf())
	}
	return bad
}

// recoveryLeaf consumes one token inside an ERROR node, keeping what it
// recognizably is: words become identifiers and literals stay literals.
func (p *Parser) recoveryLeaf() *cst.Node {
	switch tok := p.cur(); tok.Type {
	case token.IDENT, token.QUOTED_IDENT, token.BACKTICK_IDENT:
		return p.leaf("identifier", true)
	case token.PARAM, token.POSITIONAL_PARAM:
		return p.leaf("parameter", true)
	case token.INTEGER, token.DECIMAL, token.STRING, token.ESCAPE_STRING, token.BIT_STRING:
		return p.leaf("literal", true)
	case token.DOLLAR_TAG_START:
		return p.parseDollarLiteral()
	default:
		return p.punct()
	}
}

// buildTree assembles the program node from items.
func buildTree(src string, items []item) *Tree {
	root := cst.NewBranch(cst.KindProgram)
	var diags []Diagnostic
	for _, it := range items {
		root.Add(it.nodes...)
		diags = append(diags, it.diags...)
	}
	root.Span = token.Span{Start: 0, End: len(src)}
	return &Tree{Root: root, Source: src, Diagnostics: diags, items: items}
}
