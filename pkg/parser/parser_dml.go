package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Write statements.
//
//	dml_write → delete_statement | insert [returning] | update [returning]
//	          | TRUNCATE ... | copy_statement
//	merge     → MERGE INTO table [alias] USING source [alias] ON expr when_clause...

// atDmlWrite reports whether a write statement starts at the current token.
func (p *Parser) atDmlWrite() bool {
	return p.atAny("delete", "insert", "update", "truncate", "copy")
}

// parseDmlWrite appends a write statement to n and reports whether one was
// found.
func (p *Parser) parseDmlWrite(n *cst.Node) bool {
	switch {
	case p.at("delete"):
		n.Add(p.parseDelete())
	case p.at("insert"):
		n.Add(p.parseInsert())
		p.parseReturning(n)
	case p.at("update"):
		n.Add(p.parseUpdate())
		p.parseReturning(n)
	case p.at("truncate"):
		p.parseTruncate(n)
	case p.at("copy"):
		n.Add(p.parseCopy())
	default:
		return false
	}
	return true
}

// parseReturning appends RETURNING term, ... to n when it is next.
func (p *Parser) parseReturning(n *cst.Node) {
	if !p.at("returning") {
		return
	}
	ret := cst.NewBranch("returning")
	ret.Add(p.keyword())
	se := cst.NewBranch("select_expression")
	if p.parseCommaList(se, false, endField(p.parseTerm), "term") > 0 {
		ret.Add(se)
	}
	n.Add(ret)
}

// ---------- DELETE ----------

// parseDelete parses DELETE FROM [ONLY] table [WHERE] [ORDER BY] [LIMIT]
// [OFFSET] [RETURNING].
func (p *Parser) parseDelete() *cst.Node {
	del := cst.NewBranch("delete_statement")
	del.Add(p.keyword())
	if !p.at("from") {
		del.Add(p.missing("keyword_from", true))
		return del
	}
	from := cst.NewBranch("from")
	from.Add(p.keyword())
	p.optKeyword(from, "only")
	if !p.expectReference(from, RefTable, "") {
		del.Add(from)
		return del
	}
	if p.at("where") {
		from.Add(p.parseWhere())
	}
	if p.atSeq("order", "by") {
		from.Add(p.parseOrderBy())
	}
	if p.at("limit") {
		from.Add(p.parseLimit())
	}
	if p.at("offset") {
		from.Add(p.parseOffset())
	}
	del.Add(from)
	p.parseReturning(del)
	return del
}

// ---------- INSERT ----------

// parseInsert parses INSERT INTO table [alias] [(cols)] [OVERRIDING ...]
// (DEFAULT VALUES | VALUES ... | query) [ON CONFLICT ...].
func (p *Parser) parseInsert() *cst.Node {
	ins := cst.NewBranch("insert")
	ins.Add(p.keyword())
	if !p.optKeyword(ins, "into") || !p.optReference(ins, RefTable, "") {
		return ins
	}
	if alias := p.parseAlias(); alias != nil {
		ins.Add(alias)
	}
	if p.check(token.LPAREN) && !p.atSubquery(0) {
		ins.Add(p.parseInsertColumns())
	}
	if p.at("overriding") {
		ins.Add(p.keyword())
		if !p.atAny("user", "system") {
			ins.Add(p.missing("keyword_system", true))
			return ins
		}
		ins.Add(p.keyword())
		if !p.expectKeyword(ins, "value") {
			return ins
		}
	}

	switch {
	case p.at("default"):
		ins.Add(p.keyword())
		if !p.at("values") {
			return ins
		}
		ins.AddEnd(p.keyword())
	case p.at("values"):
		ins.AddEnd(p.parseInsertValues())
	case p.at("select") || (p.check(token.LPAREN) && p.atSubquery(0)):
		mark := len(ins.Children)
		p.parseSelectOperand(ins)
		markEnd(ins, mark)
	default:
		return ins
	}

	if p.atSeq("on", "conflict") {
		p.parseOnConflict(ins)
	}
	return ins
}

// parseSelectOperand appends a possibly parenthesised SELECT to n.
func (p *Parser) parseSelectOperand(n *cst.Node) {
	if p.check(token.LPAREN) {
		n.Add(p.punct())
		p.parseSelectOperand(n)
		p.expectPunct(n, token.RPAREN, cst.FieldEnd)
		return
	}
	if p.at("select") {
		p.parseSelectStatement(n)
		return
	}
	n.Add(p.missing("select", true))
}

// markEnd gives every child of n from index from onwards the end field,
// unless it already has a field.
func markEnd(n *cst.Node, from int) {
	for _, c := range n.Children[from:] {
		if c.Field == "" && !c.Extra {
			c.Field = cst.FieldEnd
		}
	}
}

// parseInsertColumns parses (col[.field][[i]], ...).
func (p *Parser) parseInsertColumns() *cst.Node {
	cols := cst.NewBranch("insert_columns")
	cols.Add(p.punct())
	first := true
	for {
		if !p.atIdent() {
			if !first {
				cols.Add(p.missing("column_identifier", true))
			}
			break
		}
		first = false
		cols.AddEnd(p.ident("column_identifier"))
		for {
			if p.check(token.DOT) {
				acc := cst.NewBranch("column_indirection_property_access")
				acc.Add(p.punct())
				if isWordToken(p.cur()) {
					acc.AddEnd(p.ident("identifier"))
				}
				cols.Add(acc)
				continue
			}
			if p.check(token.LBRACKET) {
				acc := cst.NewBranch("column_indirection_array_access")
				acc.Add(p.punct())
				if e := p.parseExpr(); e != nil {
					acc.Add(e)
				}
				p.expectPunct(acc, token.RBRACKET, cst.FieldEnd)
				cols.Add(acc)
				continue
			}
			break
		}
		if !p.check(token.COMMA) {
			break
		}
		cols.Add(p.punct())
	}
	p.expectPunct(cols, token.RPAREN, cst.FieldEnd)
	return cols
}

// parseInsertValues parses VALUES (expr | DEFAULT, ...), ...
func (p *Parser) parseInsertValues() *cst.Node {
	iv := cst.NewBranch("insert_values")
	iv.Add(p.keyword())
	for p.check(token.LPAREN) {
		iv.Add(p.punct())
		p.parseCommaList(iv, false, p.parseExprOrDefault, "expression")
		p.expectPunct(iv, token.RPAREN, cst.FieldEnd)
		if !p.check(token.COMMA) {
			break
		}
		iv.Add(p.punct())
		if !p.check(token.LPAREN) {
			iv.Add(p.missing("(", false))
			break
		}
	}
	return iv
}

// parseExprOrDefault parses an expression or the DEFAULT keyword.
func (p *Parser) parseExprOrDefault() *cst.Node {
	if p.at("default") {
		return p.keyword()
	}
	return p.parseExpr()
}

// parseOnConflict parses ON CONFLICT [target] DO (NOTHING | UPDATE SET ...
// [WHERE]). The conflict target is kept as plain tokens.
func (p *Parser) parseOnConflict(ins *cst.Node) {
	ins.Add(p.keyword(), p.keyword())
	for !p.at("do") && !p.atEnd() {
		tok := p.cur()
		if tok.Type == token.IDENT && tok.Keyword != "" {
			ins.Add(p.keyword())
			continue
		}
		ins.Add(p.leaf(tok.Literal, false))
	}
	if !p.expectKeyword(ins, "do") {
		return
	}
	switch {
	case p.at("nothing"):
		ins.Add(p.keyword())
	case p.at("update"):
		ins.Add(p.keyword())
		if !p.at("set") {
			ins.Add(p.missing("keyword_set", true))
			return
		}
		p.parseSetValues(ins)
		if p.at("where") {
			ins.Add(p.parseWhere())
		}
	default:
		ins.Add(p.missing("keyword_nothing", true))
	}
}

// ---------- UPDATE ----------

// parseUpdate parses UPDATE [ONLY] relation SET assignments [FROM ...]
// [WHERE expr].
func (p *Parser) parseUpdate() *cst.Node {
	upd := cst.NewBranch("update")
	upd.Add(p.keyword())
	p.optKeyword(upd, "only")
	rel := p.parseRelation()
	if rel == nil {
		return upd
	}
	upd.Add(rel)
	if !p.at("set") {
		return upd
	}
	p.parseSetValues(upd)
	if p.at("from") {
		upd.Add(p.parseFrom())
	}
	if p.at("where") {
		upd.Add(p.parseWhere())
	}
	return upd
}

// parseSetValues appends SET assignment, ... to n.
func (p *Parser) parseSetValues(n *cst.Node) {
	n.Add(p.keyword())
	p.parseCommaList(n, false, p.parseAssignment, "assignment")
}

// parseAssignment parses column = expr.
func (p *Parser) parseAssignment() *cst.Node {
	if !p.atIdent() {
		return nil
	}
	as := cst.NewBranch("assignment")
	as.AddField("left", p.parseReference(RefColumn))
	if !p.atOp("=") {
		return as
	}
	as.Add(p.punct())
	if right := p.parseExprOrDefault(); right != nil {
		as.AddField("right", right)
	}
	return as
}

// ---------- TRUNCATE ----------

// parseTruncate appends TRUNCATE [TABLE] [ONLY] table, ... [CASCADE |
// RESTRICT] to n.
func (p *Parser) parseTruncate(n *cst.Node) {
	n.Add(p.keyword())
	p.optKeyword(n, "table")
	p.optKeyword(n, "only")
	p.parseCommaList(n, false, func() *cst.Node {
		if !p.atIdent() {
			return nil
		}
		return p.parseReference(RefTable)
	}, RefTable)
	if p.atAny("cascade", "restrict") {
		n.Add(p.keyword())
	}
}

// ---------- MERGE ----------

// parseMerge appends MERGE INTO target USING source ON predicate
// when_clause... to n.
func (p *Parser) parseMerge(n *cst.Node) {
	n.Add(p.keyword())
	if !p.expectKeyword(n, "into") || !p.expectReference(n, RefTable, "") {
		return
	}
	if alias := p.parseAlias(); alias != nil {
		n.Add(alias)
	}
	if !p.expectKeyword(n, "using") {
		return
	}
	switch {
	case p.check(token.LPAREN):
		n.Add(p.parseSubquery())
	case !p.expectReference(n, RefTable, ""):
		return
	}
	if alias := p.parseAlias(); alias != nil {
		n.Add(alias)
	}
	if !p.expectKeyword(n, "on") {
		return
	}
	if !p.parsePredicate(n) {
		return
	}
	if !p.at("when") {
		n.Add(p.missing("when_clause", true))
		return
	}
	for p.at("when") {
		wc := p.parseWhenClause()
		n.Add(wc)
		if wc.HasError() {
			return
		}
	}
}

// parsePredicate appends an expression under the predicate field, or a
// missing one.
func (p *Parser) parsePredicate(n *cst.Node) bool {
	e := p.parseExpr()
	if e == nil {
		n.AddField("predicate", p.missing("expression", true))
		return false
	}
	n.AddField("predicate", e)
	return true
}

// parseWhenClause parses WHEN [NOT] MATCHED [AND expr] THEN action.
func (p *Parser) parseWhenClause() *cst.Node {
	wc := cst.NewBranch("when_clause")
	wc.Add(p.keyword())
	p.optKeyword(wc, "not")
	if !p.expectKeyword(wc, "matched") {
		return wc
	}
	if p.optKeyword(wc, "and") && !p.parsePredicate(wc) {
		return wc
	}
	if !p.expectKeyword(wc, "then") {
		return wc
	}
	switch {
	case p.at("insert"):
		p.parseMergeInsert(wc)
	case p.at("update"):
		wc.Add(p.keyword())
		if !p.at("set") {
			wc.Add(p.missing("keyword_set", true))
			return wc
		}
		p.parseSetValues(wc)
	case p.at("delete"):
		wc.Add(p.keyword())
	case p.at("do"):
		wc.Add(p.keyword())
		p.expectKeyword(wc, "nothing")
	default:
		wc.Add(p.missing("keyword_update", true))
	}
	return wc
}

// parseMergeInsert parses INSERT [(cols)] [OVERRIDING ...] (DEFAULT VALUES |
// VALUES (...)).
func (p *Parser) parseMergeInsert(wc *cst.Node) {
	wc.Add(p.keyword())
	if p.check(token.LPAREN) {
		wc.Add(p.punct())
		p.parseCommaList(wc, true, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			return p.ident("column_identifier")
		}, "column_identifier")
		p.expectPunct(wc, token.RPAREN, cst.FieldEnd)
	}
	if p.at("overriding") {
		wc.Add(p.keyword())
		if p.atAny("system", "user") {
			wc.Add(p.keyword())
		}
		p.expectKeyword(wc, "value")
	}
	switch {
	case p.at("default"):
		wc.Add(p.keyword())
		p.expectKeyword(wc, "values")
	case p.at("values"):
		wc.Add(p.keyword())
		if !p.check(token.LPAREN) {
			wc.Add(p.missing("(", false))
			return
		}
		wc.Add(p.punct())
		p.parseCommaList(wc, true, p.parseExprOrDefault, "expression")
		p.expectPunct(wc, token.RPAREN, cst.FieldEnd)
	default:
		wc.Add(p.missing("keyword_values", true))
	}
}
