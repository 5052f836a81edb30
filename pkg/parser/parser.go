// Package parser turns PostgreSQL source text into a lossless concrete
// syntax tree plus a list of syntax diagnostics.
//
// # Usage
//
//	tree := parser.Parse("SELECT a FROM t WHERE b > 1;")
//	fmt.Println(tree.Root)          // (program (statement (select ...) ...) )
//	for _, d := range tree.Diagnostics {
//	    // squiggle d.Span
//	}
//
//	// After the editor changes the buffer:
//	tree = parser.Reparse(tree, parser.Edit{Start: 7, OldEnd: 8, NewEnd: 9, NewText: "ab"})
//
// Parsing never fails. Malformed input yields ERROR nodes and zero-width
// missing nodes together with diagnostics, and incomplete statements yield
// partial nodes that simply stop where the input stops.
//
// # Grammar Overview
//
// The parser is hand-written recursive descent with a precedence-climbing
// expression engine:
//
//	program     → { copy_stream | (transaction | statement | block) ";" | meta_command } [statement]
//	statement   → ddl | [cte] dml_write | [cte] dml_read | explain | analyze
//	dml_read    → (select_stmt | values | table_stmt) { (UNION [ALL] | EXCEPT | INTERSECT) ... } | SHOW ...
//	select_stmt → select [INTO ...] [from] [where] [group_by] [window] [order_by] [limit] [offset] [locking]
//	expression  → primary { infix_operator expression }
//
// Expression precedence lives in precedence.go, every deliberate choice
// between overlapping rules is listed in conflicts.go, and each statement
// family has its own parser_*.go file.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Tree is the result of a parse. Trees are immutable once returned and may
// share unchanged subtrees with the tree they were reparsed from.
type Tree struct {
	Root        *cst.Node
	Source      string
	Diagnostics []Diagnostic

	items []item
}

// Parse parses src from scratch.
func Parse(src string) *Tree {
	return buildTree(src, parseItems(src, 0, nil))
}

// lexeme is a token together with the comments that precede it.
type lexeme struct {
	tok     token.Token
	err     string
	leading []trivia
}

type trivia struct {
	tok token.Token
	err string
}

// Parser builds syntax nodes from a token stream.
type Parser struct {
	src string
	lex Lexer
	buf []lexeme

	last    int // end offset of the last consumed token
	maxRead int // furthest byte examined, for incremental reuse

	extras []*cst.Node // comment leaves consumed so far
	diags  []Diagnostic

	parens parenRun // last run of "(" classified by atSubquery
}

// parenRun caches whether the run of "(" starting in [from, to) opens a
// query, so nested parentheses are scanned once rather than once per level.
type parenRun struct {
	from, to int
	subquery bool
}

func newParser(src string, lex Lexer) *Parser {
	return &Parser{src: src, lex: lex, last: lex.pos}
}

// ---------- Token Helpers ----------

// fill makes sure at least n lexemes are buffered.
func (p *Parser) fill(n int) {
	for len(p.buf) < n {
		if k := len(p.buf); k > 0 && p.buf[k-1].tok.Type == token.EOF {
			p.buf = append(p.buf, lexeme{tok: p.buf[k-1].tok})
			continue
		}
		var lx lexeme
		for {
			tok, err := p.lex.NextToken()
			if tok.Type == token.WHITESPACE {
				continue
			}
			if tok.Type == token.LINE_COMMENT || tok.Type == token.BLOCK_COMMENT {
				lx.leading = append(lx.leading, trivia{tok: tok, err: err})
				continue
			}
			lx.tok, lx.err = tok, err
			break
		}
		if p.lex.maxRead > p.maxRead {
			p.maxRead = p.lex.maxRead
		}
		p.buf = append(p.buf, lx)
	}
}

// peekAt returns the token k positions ahead (0 is the current token).
func (p *Parser) peekAt(k int) token.Token {
	p.fill(k + 1)
	return p.buf[k].tok
}

// cur returns the current token.
func (p *Parser) cur() token.Token {
	return p.peekAt(0)
}

// nextToken consumes the current token, recording its leading comments as
// extras and its lexical error, if any, as a diagnostic.
func (p *Parser) nextToken() token.Token {
	p.fill(1)
	lx := p.buf[0]
	p.buf = p.buf[1:]
	for _, c := range lx.leading {
		kind, _ := token.CommentKindOf(c.tok.Type)
		leaf := cst.NewLeaf(kind.NodeKind(), c.tok.Span, true)
		leaf.Extra = true
		p.extras = append(p.extras, leaf)
		if c.err != "" {
			p.diags = append(p.diags, newDiagnostic(c.tok.Span, c.err))
		}
	}
	if lx.err != "" {
		p.diags = append(p.diags, newDiagnostic(lx.tok.Span, lx.err))
	}
	if lx.tok.Type != token.EOF {
		p.last = lx.tok.Span.End
	}
	return lx.tok
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.cur().Type == t
}

// checkAt returns true if the token k ahead is of the given type.
func (p *Parser) checkAt(k int, t token.TokenType) bool {
	return p.peekAt(k).Type == t
}

// at reports whether the current token is the keyword kw.
func (p *Parser) at(kw string) bool {
	return p.cur().IsKeyword(kw)
}

// atAny reports whether the current token is any of the keywords.
func (p *Parser) atAny(kws ...string) bool {
	tok := p.cur()
	for _, kw := range kws {
		if tok.IsKeyword(kw) {
			return true
		}
	}
	return false
}

// atSeq reports whether the upcoming tokens are exactly the keywords kws.
func (p *Parser) atSeq(kws ...string) bool {
	for i, kw := range kws {
		if !p.peekAt(i).IsKeyword(kw) {
			return false
		}
	}
	return true
}

// atOp reports whether the current token is the operator sym.
func (p *Parser) atOp(sym string) bool {
	return p.cur().IsOp(sym)
}

// atEnd reports whether the current token ends a statement.
func (p *Parser) atEnd() bool {
	switch p.cur().Type {
	case token.EOF, token.SEMICOLON, token.META_COMMAND:
		return true
	}
	return false
}

// ---------- Node Helpers ----------

// leaf consumes the current token as a leaf node.
func (p *Parser) leaf(kind string, named bool) *cst.Node {
	tok := p.nextToken()
	return cst.NewLeaf(kind, tok.Span, named)
}

// punct consumes the current token as an anonymous leaf named after its text.
func (p *Parser) punct() *cst.Node {
	return p.leaf(p.cur().Literal, false)
}

// keyword consumes the current token as a keyword leaf.
func (p *Parser) keyword() *cst.Node {
	kw := p.cur().Keyword
	return p.leaf("keyword_"+kw, true)
}

// optKeyword appends keyword kw to n when it is next.
func (p *Parser) optKeyword(n *cst.Node, kw string) bool {
	if !p.at(kw) {
		return false
	}
	n.Add(p.keyword())
	return true
}

// optKeywords appends the keyword sequence kws to n when all of it is next.
func (p *Parser) optKeywords(n *cst.Node, kws ...string) bool {
	if !p.atSeq(kws...) {
		return false
	}
	for range kws {
		n.Add(p.keyword())
	}
	return true
}

// expectKeyword appends keyword kw, or a missing node when it is absent.
func (p *Parser) expectKeyword(n *cst.Node, kw string) bool {
	if p.optKeyword(n, kw) {
		return true
	}
	n.Add(p.missing("keyword_"+kw, true))
	return false
}

// optPunct appends the punctuation token of type t when it is next.
func (p *Parser) optPunct(n *cst.Node, t token.TokenType) bool {
	if !p.check(t) {
		return false
	}
	n.Add(p.punct())
	return true
}

// expectPunct appends the punctuation t under field, or a missing node.
func (p *Parser) expectPunct(n *cst.Node, t token.TokenType, field string) bool {
	if p.check(t) {
		n.AddField(field, p.punct())
		return true
	}
	n.AddField(field, p.missing(t.String(), false))
	return false
}

// missing creates a zero-width placeholder after the last consumed token
// and reports it.
func (p *Parser) missing(kind string, named bool) *cst.Node {
	p.errorAt(token.Span{Start: p.last, End: p.last}, fmt.Sprintf(errMissing, kind))
	return cst.NewMissing(kind, p.last, named)
}

// errorAt records a grammar diagnostic.
func (p *Parser) errorAt(span token.Span, msg string) {
	p.diags = append(p.diags, newDiagnostic(span, msg))
}

// ---------- Backtracking ----------

// snapshot captures everything needed to undo speculative parsing.
type snapshot struct {
	lex    Lexer
	buf    []lexeme
	last   int
	extras int
	diags  int
}

func (p *Parser) mark() snapshot {
	return snapshot{lex: p.lex, buf: p.buf, last: p.last, extras: len(p.extras), diags: len(p.diags)}
}

// restore rewinds to s. maxRead is deliberately kept: bytes examined by the
// abandoned attempt still influenced the final result.
func (p *Parser) restore(s snapshot) {
	p.lex = s.lex
	p.buf = s.buf
	p.last = s.last
	p.extras = p.extras[:s.extras]
	p.diags = p.diags[:s.diags]
}

// try runs fn speculatively and keeps its result only when it returns a
// node without adding diagnostics.
func (p *Parser) try(fn func() *cst.Node) *cst.Node {
	s := p.mark()
	n := fn()
	if n == nil || len(p.diags) > s.diags {
		p.restore(s)
		return nil
	}
	return n
}

// resetAt discards lookahead and restarts lexing at offset.
func (p *Parser) resetAt(offset int) {
	p.buf = nil
	p.lex.reset(offset)
	if p.lex.maxRead > p.maxRead {
		p.maxRead = p.lex.maxRead
	}
}
