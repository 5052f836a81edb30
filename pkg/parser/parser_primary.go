package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// ---------- Identifiers ----------

// isIdentToken reports whether tok can stand for an identifier without
// quoting: any word that is not a reserved keyword, a quoted or backtick
// identifier, or a named parameter.
func isIdentToken(tok token.Token) bool {
	switch tok.Type {
	case token.QUOTED_IDENT, token.BACKTICK_IDENT, token.PARAM:
		return true
	case token.IDENT:
		return tok.Keyword == "" || !token.IsReserved(tok.Keyword)
	}
	return false
}

// isWordToken is isIdentToken without the reserved-word restriction, for
// positions where only a name can follow (after AS, after a dot).
func isWordToken(tok token.Token) bool {
	return tok.Type == token.IDENT || isIdentToken(tok)
}

func (p *Parser) atIdent() bool {
	return isIdentToken(p.cur())
}

// ident consumes the current token as an identifier leaf of the given kind.
func (p *Parser) ident(kind string) *cst.Node {
	return p.leaf(kind, true)
}

// optIdent appends an identifier under field when one is next.
func (p *Parser) optIdent(n *cst.Node, kind, field string) bool {
	if !p.atIdent() {
		return false
	}
	n.AddField(field, p.ident(kind))
	return true
}

// expectIdent appends an identifier under field, or a missing one.
func (p *Parser) expectIdent(n *cst.Node, kind, field string) bool {
	if p.optIdent(n, kind, field) {
		return true
	}
	n.AddField(field, p.missing(kind, true))
	return false
}

// parseDottedName collects up to max dot-separated name parts. A dot is only
// consumed when a name follows it.
func (p *Parser) parseDottedName(max int) (parts, dots []*cst.Node) {
	parts = append(parts, p.ident("any_identifier"))
	for len(parts) < max && p.check(token.DOT) && isWordToken(p.peekAt(1)) {
		dots = append(dots, p.punct())
		parts = append(parts, p.ident("any_identifier"))
	}
	return parts, dots
}

// parseReference parses a dotted name as a reference of the given kind.
func (p *Parser) parseReference(kind string) *cst.Node {
	parts, dots := p.parseDottedName(MaxParts(kind))
	return QualifiedReference(kind, parts, dots)
}

// optReference appends a reference under field when a name is next.
func (p *Parser) optReference(n *cst.Node, kind, field string) bool {
	if !p.atIdent() {
		return false
	}
	n.AddField(field, p.parseReference(kind))
	return true
}

// expectReference appends a reference under field, or a missing one.
func (p *Parser) expectReference(n *cst.Node, kind, field string) bool {
	if p.optReference(n, kind, field) {
		return true
	}
	n.AddField(field, p.missing(kind, true))
	return false
}

// reservedFunctions are reserved words that are still callable by name.
var reservedFunctions = map[string]bool{"left": true, "right": true}

// ---------- Primaries ----------

// parsePrimary parses an atomic expression, or returns nil when none starts
// at the current token.
func (p *Parser) parsePrimary() *cst.Node {
	tok := p.cur()
	switch tok.Type {
	case token.INTEGER, token.DECIMAL, token.STRING, token.ESCAPE_STRING, token.BIT_STRING:
		return p.leaf("literal", true)
	case token.DOLLAR_TAG_START:
		return p.parseDollarLiteral()
	case token.POSITIONAL_PARAM:
		return p.leaf("parameter", true)
	case token.OP:
		if tok.Literal == "?" {
			return p.leaf("parameter", true)
		}
		return nil
	case token.LPAREN:
		return p.parseParenthesized(true)
	case token.QUOTED_IDENT, token.BACKTICK_IDENT, token.PARAM:
		return p.parseNamePrimary()
	case token.IDENT:
		switch tok.Keyword {
		case "true", "false", "null":
			lit := cst.NewBranch("literal")
			lit.Add(p.keyword())
			return lit
		case "case":
			return p.parseCase()
		case "cast":
			return p.parseCast()
		case "array":
			return p.parseArray()
		case "exists":
			if p.checkAt(1, token.LPAREN) {
				return p.parseExists()
			}
		case "interval":
			if p.checkAt(1, token.STRING) {
				return p.parseInterval()
			}
		}
		if p.atIdent() || (reservedFunctions[tok.Keyword] && p.checkAt(1, token.LPAREN)) {
			return p.parseNamePrimary()
		}
	}
	return nil
}

// parseNamePrimary parses what can start with a name: a string cast
// (date '2024-01-01'), an invocation, or an object reference.
func (p *Parser) parseNamePrimary() *cst.Node {
	if p.cur().Type == token.IDENT && p.checkAt(1, token.STRING) {
		lit := cst.NewBranch("literal")
		lit.Add(p.ident("any_identifier"), p.leaf("string", false))
		return lit
	}

	parts, dots := p.parseDottedName(3)
	if p.check(token.LPAREN) && len(parts) <= MaxParts(RefFunction) {
		return p.parseInvocation(QualifiedReference(RefFunction, parts, dots))
	}
	return QualifiedReference(RefObject, parts, dots)
}

// parseDollarLiteral parses a dollar-quoted string as one literal.
func (p *Parser) parseDollarLiteral() *cst.Node {
	lit := cst.NewBranch("literal")
	lit.Add(p.leaf("dollar_quote", false))
	if p.check(token.DOLLAR_BODY) {
		lit.Add(p.leaf("string", false))
	}
	if p.check(token.DOLLAR_TAG_END) {
		lit.Add(p.leaf("dollar_quote", false))
	}
	return lit
}

// atSubquery reports whether the "(" at offset k opens a query, looking
// through further opening parentheses.
func (p *Parser) atSubquery(k int) bool {
	if !p.checkAt(k, token.LPAREN) {
		return startsQuery(p.peekAt(k))
	}
	start := p.peekAt(k).Span.Start
	if r := p.parens; start >= r.from && start < r.to {
		return r.subquery
	}
	for p.checkAt(k, token.LPAREN) {
		k++
	}
	tok := p.peekAt(k)
	p.parens = parenRun{from: start, to: tok.Span.Start, subquery: startsQuery(tok)}
	return p.parens.subquery
}

func startsQuery(tok token.Token) bool {
	return tok.IsKeyword("select") || tok.IsKeyword("values") || tok.IsKeyword("with") ||
		tok.IsKeyword("table") || tok.IsKeyword("show")
}

// parseParenthesized parses "(" ... ")" as a subquery, a list, or (when
// allowExpr) a parenthesized expression with optional field selection.
func (p *Parser) parseParenthesized(allowExpr bool) *cst.Node {
	if p.atSubquery(1) {
		return p.parseSubquery()
	}
	open := p.punct()
	first := p.parseExpr()
	if first == nil || !allowExpr || p.check(token.COMMA) {
		list := cst.NewBranch("list")
		list.Add(open)
		if first != nil {
			list.Add(first)
			for p.check(token.COMMA) {
				list.Add(p.punct())
				next := p.parseExpr()
				if next == nil {
					list.Add(p.missing("expression", true))
					break
				}
				list.Add(next)
			}
		}
		p.expectPunct(list, token.RPAREN, cst.FieldEnd)
		return list
	}

	paren := cst.NewBranch("parenthesized_expression")
	paren.Add(open, first)
	p.expectPunct(paren, token.RPAREN, cst.FieldEnd)
	if p.check(token.DOT) && isWordToken(p.peekAt(1)) {
		sel := cst.NewBranch("field_selection")
		sel.Add(paren, p.punct())
		sel.AddEnd(p.ident("any_identifier"))
		return sel
	}
	return paren
}

// parseSubquery parses "(" [query] ")".
func (p *Parser) parseSubquery() *cst.Node {
	sub := cst.NewBranch("subquery")
	sub.Add(p.punct())
	p.parseDmlRead(sub)
	p.expectPunct(sub, token.RPAREN, cst.FieldEnd)
	return sub
}

// parseCase parses CASE [expr] WHEN expr THEN expr ... [ELSE expr] END.
func (p *Parser) parseCase() *cst.Node {
	c := cst.NewBranch("case")
	c.Add(p.keyword())
	if !p.at("when") {
		if operand := p.parseExpr(); operand != nil {
			c.Add(operand)
		}
	}
	if !p.at("when") {
		c.Add(p.missing("keyword_when", true))
		return c
	}
	for p.at("when") {
		c.Add(p.keyword())
		if !p.expectExpr(c) || !p.expectKeyword(c, "then") || !p.expectExpr(c) {
			return c
		}
	}
	if p.optKeyword(c, "else") && !p.expectExpr(c) {
		return c
	}
	p.expectKeyword(c, "end")
	return c
}

// expectExpr appends an expression to n, or a missing one.
func (p *Parser) expectExpr(n *cst.Node) bool {
	if e := p.parseExpr(); e != nil {
		n.Add(e)
		return true
	}
	n.Add(p.missing("expression", true))
	return false
}

// parseCast parses CAST ( expr AS type ).
func (p *Parser) parseCast() *cst.Node {
	c := cst.NewBranch("cast")
	c.Add(p.keyword())
	if !p.check(token.LPAREN) {
		return c
	}
	c.Add(p.punct())
	if p.expectExpr(c) && p.optKeyword(c, "as") {
		if typ := p.parseType(); typ != nil {
			c.Add(typ)
		}
	}
	p.expectPunct(c, token.RPAREN, cst.FieldEnd)
	return c
}

// parseExists parses EXISTS (query).
func (p *Parser) parseExists() *cst.Node {
	e := cst.NewBranch("exists")
	e.Add(p.keyword())
	e.AddEnd(p.parseSubquery())
	return e
}

// parseInterval parses INTERVAL 'text'.
func (p *Parser) parseInterval() *cst.Node {
	iv := cst.NewBranch("interval")
	iv.Add(p.keyword())
	iv.AddEnd(p.leaf("literal", true))
	return iv
}

// parseArray parses ARRAY[expr, ...] and ARRAY(query).
func (p *Parser) parseArray() *cst.Node {
	arr := cst.NewBranch("array")
	arr.Add(p.keyword())
	switch {
	case p.check(token.LBRACKET):
		arr.Add(p.punct())
		p.parseCommaList(arr, false, p.parseExpr, "expression")
		p.expectPunct(arr, token.RBRACKET, cst.FieldEnd)
	case p.check(token.LPAREN):
		arr.Add(p.punct())
		p.parseDmlRead(arr)
		p.expectPunct(arr, token.RPAREN, cst.FieldEnd)
	}
	return arr
}

// ---------- Terms and Aliases ----------

// parseTerm parses a select-list item: all_fields or an expression, with an
// optional alias.
func (p *Parser) parseTerm() *cst.Node {
	body := p.parseAllFields()
	if body == nil {
		body = p.parseExpr()
	}
	if body == nil {
		return nil
	}
	term := cst.NewBranch("term")
	term.AddEnd(body)
	if alias := p.parseAlias(); alias != nil {
		term.Add(alias)
	}
	return term
}

// parseAllFields parses *, table.* and schema.table.*.
func (p *Parser) parseAllFields() *cst.Node {
	star := func(k int) bool { return p.peekAt(k).IsOp("*") }
	af := cst.NewBranch("all_fields")
	switch {
	case star(0):
	case p.atIdent() && p.checkAt(1, token.DOT) && star(2):
		af.Add(p.ident("table_identifier"), p.punct())
	case p.atIdent() && p.checkAt(1, token.DOT) && isWordToken(p.peekAt(2)) && p.checkAt(3, token.DOT) && star(4):
		af.Add(p.ident("schema_identifier"), p.punct(), p.ident("table_identifier"), p.punct())
	default:
		return nil
	}
	af.AddEnd(p.leaf("*", false))
	return af
}

// parseAlias parses [AS] name. A bare name is only taken when it is not a
// reserved keyword.
func (p *Parser) parseAlias() *cst.Node {
	alias := cst.NewBranch("alias")
	if p.at("as") {
		alias.Add(p.keyword())
		if isWordToken(p.cur()) {
			alias.AddEnd(p.ident("any_identifier"))
		}
		return alias
	}
	if !p.atIdent() {
		return nil
	}
	alias.AddEnd(p.ident("any_identifier"))
	return alias
}

// parseSelectExpression parses a comma list of terms.
func (p *Parser) parseSelectExpression() *cst.Node {
	se := cst.NewBranch("select_expression")
	p.parseCommaList(se, true, endField(p.parseTerm), "term")
	return se
}
