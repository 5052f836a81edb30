package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Read statements. Their top-level parts are appended straight into the
// enclosing node (statement, subquery, array, create_query) rather than
// wrapped in a node of their own:
//
//	dml_read    → [cte] operand { (UNION [ALL] | EXCEPT | INTERSECT) operand }
//	operand     → select_stmt | values | table_statement | SHOW ... | "(" dml_read ")"
//	select_stmt → select [INTO select_expression] [from] [where] [group_by]
//	              [window_clause] [order_by] [limit] [offset] [select_row_locking]

// atDmlRead reports whether a read statement starts at the current token.
func (p *Parser) atDmlRead() bool {
	if p.atAny("select", "values", "table", "show", "with") {
		return true
	}
	return p.check(token.LPAREN) && p.atSubquery(0)
}

// parseDmlRead appends a read statement to n and reports whether one was
// found.
func (p *Parser) parseDmlRead(n *cst.Node) bool {
	if p.at("with") {
		n.Add(p.parseCte())
	}
	return p.parseReadChain(n)
}

// parseReadChain parses operands joined by set operators. A trailing set
// operator without an operand is left partial.
func (p *Parser) parseReadChain(n *cst.Node) bool {
	if !p.parseReadOperand(n) {
		return false
	}
	for p.atAny("union", "except", "intersect") {
		union := p.at("union")
		n.Add(p.keyword())
		if union {
			p.optKeyword(n, "all")
		}
		if !p.parseReadOperand(n) {
			break
		}
	}
	return true
}

func (p *Parser) parseReadOperand(n *cst.Node) bool {
	switch {
	case p.at("select"):
		p.parseSelectStatement(n)
	case p.at("values"):
		n.Add(p.parseValues())
	case p.at("table"):
		n.Add(p.parseTableStatement())
	case p.at("show"):
		n.Add(p.keyword())
		switch {
		case p.at("all"):
			n.Add(p.keyword())
		case isWordToken(p.cur()):
			n.Add(p.ident("any_identifier"))
		default:
			n.Add(p.missing("any_identifier", true))
		}
	case p.check(token.LPAREN) && p.atSubquery(0):
		n.Add(p.punct())
		if !p.parseDmlRead(n) {
			n.Add(p.missing("select", true))
		}
		p.expectPunct(n, token.RPAREN, cst.FieldEnd)
	default:
		return false
	}
	return true
}

// parseSelectStatement appends SELECT and its trailing clauses to n.
func (p *Parser) parseSelectStatement(n *cst.Node) {
	n.Add(p.parseSelect())
	if p.at("into") {
		n.Add(p.keyword(), p.parseSelectExpression())
	}
	if p.at("from") {
		n.Add(p.parseFrom())
	}
	if p.at("where") {
		n.Add(p.parseWhere())
	}
	if p.atSeq("group", "by") {
		n.Add(p.parseGroupBy())
	}
	if p.at("window") {
		n.Add(p.parseWindowClause())
	}
	if p.atSeq("order", "by") {
		n.Add(p.parseOrderBy())
	}
	if p.at("limit") {
		n.Add(p.parseLimit())
	}
	if p.at("offset") {
		n.Add(p.parseOffset())
	}
	if p.at("for") {
		n.Add(p.parseRowLocking())
	}
}

// parseSelect parses SELECT [DISTINCT] term, ...
func (p *Parser) parseSelect() *cst.Node {
	sel := cst.NewBranch("select")
	sel.Add(p.keyword())
	distinct := p.optKeyword(sel, "distinct")
	se := cst.NewBranch("select_expression")
	if p.parseCommaList(se, distinct, endField(p.parseTerm), "term") > 0 || distinct {
		sel.AddEnd(se)
	}
	return sel
}

// parseRowLocking parses FOR UPDATE, FOR NO KEY UPDATE, FOR SHARE and
// FOR KEY SHARE.
func (p *Parser) parseRowLocking() *cst.Node {
	lock := cst.NewBranch("select_row_locking")
	lock.Add(p.keyword())
	switch {
	case p.atAny("update", "share"):
		lock.AddEnd(p.keyword())
	case p.atSeq("no", "key"):
		lock.Add(p.keyword(), p.keyword())
		if p.at("update") {
			lock.AddEnd(p.keyword())
		} else {
			lock.AddEnd(p.missing("keyword_update", true))
		}
	case p.at("key"):
		lock.Add(p.keyword())
		if p.at("share") {
			lock.AddEnd(p.keyword())
		} else {
			lock.AddEnd(p.missing("keyword_share", true))
		}
	}
	return lock
}

// parseValues parses VALUES (expr, ...), ...
func (p *Parser) parseValues() *cst.Node {
	v := cst.NewBranch("values")
	v.Add(p.keyword())
	p.parseCommaList(v, false, p.parseList, "list")
	return v
}

// parseList parses a parenthesised expression list.
func (p *Parser) parseList() *cst.Node {
	if !p.check(token.LPAREN) {
		return nil
	}
	list := cst.NewBranch("list")
	list.Add(p.punct())
	p.parseCommaList(list, false, p.parseExpr, "expression")
	p.expectPunct(list, token.RPAREN, cst.FieldEnd)
	return list
}

// parseTableStatement parses TABLE [ONLY] name [*].
func (p *Parser) parseTableStatement() *cst.Node {
	ts := cst.NewBranch("table_statement")
	ts.Add(p.keyword())
	p.optKeyword(ts, "only")
	if !p.optReference(ts, RefTable, cst.FieldEnd) {
		return ts
	}
	if p.atOp("*") {
		ts.Add(p.punct())
	}
	return ts
}

// ---------- Common Table Expressions ----------

// parseCte parses WITH [RECURSIVE] with_query, ...
func (p *Parser) parseCte() *cst.Node {
	cte := cst.NewBranch("cte")
	cte.Add(p.keyword())
	p.optKeyword(cte, "recursive")
	p.parseCommaList(cte, false, endField(p.parseWithQuery), "with_query")
	return cte
}

// parseWithQuery parses name [(cols)] AS [[NOT] MATERIALIZED] (statement).
func (p *Parser) parseWithQuery() *cst.Node {
	if !p.atIdent() {
		return nil
	}
	wq := cst.NewBranch("with_query")
	wq.Add(p.ident("any_identifier"))
	if p.check(token.LPAREN) {
		wq.Add(p.punct())
		p.parseCommaList(wq, false, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			arg := p.ident("any_identifier")
			arg.Field = "argument"
			return arg
		}, "any_identifier")
		p.expectPunct(wq, token.RPAREN, cst.FieldEnd)
	}
	if !p.optKeyword(wq, "as") {
		return wq
	}
	if p.atSeq("not", "materialized") {
		wq.Add(p.keyword(), p.keyword())
	} else {
		p.optKeyword(wq, "materialized")
	}
	if !p.check(token.LPAREN) {
		return wq
	}
	wq.Add(p.punct())
	stmt := cst.NewBranch(cst.KindStatement)
	if p.parseDmlWrite(stmt) || p.parseDmlRead(stmt) {
		wq.Add(stmt)
	}
	p.expectPunct(wq, token.RPAREN, cst.FieldEnd)
	return wq
}

// ---------- FROM and Joins ----------

// parseFrom parses FROM [ONLY] relation, ... followed by joins.
func (p *Parser) parseFrom() *cst.Node {
	from := cst.NewBranch("from")
	from.Add(p.keyword())
	p.optKeyword(from, "only")
	if p.parseCommaList(from, false, endField(p.parseRelation), "relation") == 0 {
		return from
	}
	for {
		join := p.parseJoin()
		if join == nil {
			return from
		}
		from.Add(join)
	}
}

// parseRelation parses a table, subquery or set-returning call with an
// optional alias and column alias list.
func (p *Parser) parseRelation() *cst.Node {
	rel := cst.NewBranch("relation")
	switch {
	case p.check(token.LPAREN) && p.atSubquery(0):
		rel.AddEnd(p.parseSubquery())
	case p.atIdent():
		parts, dots := p.parseDottedName(MaxParts(RefTable))
		if p.check(token.LPAREN) {
			rel.AddEnd(p.parseInvocation(QualifiedReference(RefFunction, parts, dots)))
		} else {
			rel.AddEnd(QualifiedReference(RefTable, parts, dots))
			if p.atOp("*") {
				rel.Add(p.punct())
			}
		}
	default:
		return nil
	}
	if alias := p.parseAlias(); alias != nil {
		rel.Add(alias)
		if p.check(token.LPAREN) {
			rel.Add(p.parseColumnList())
		}
	}
	return rel
}

// parseColumnList parses (col, ...) where a column may also be a string.
func (p *Parser) parseColumnList() *cst.Node {
	list := cst.NewBranch("list")
	list.Add(p.punct())
	p.parseCommaList(list, false, func() *cst.Node {
		switch {
		case p.atIdent():
			col := cst.NewBranch("column")
			col.Add(p.ident("column_identifier"))
			return col
		case p.check(token.STRING):
			col := cst.NewBranch("column")
			col.Add(p.leaf("literal", true))
			return col
		}
		return nil
	}, "column")
	p.expectPunct(list, token.RPAREN, cst.FieldEnd)
	return list
}

// parseJoin parses one join clause, or returns nil when none is next.
func (p *Parser) parseJoin() *cst.Node {
	if p.at("cross") {
		if p.peekAt(1).IsKeyword("join") && p.peekAt(2).IsKeyword("lateral") {
			return p.parseLateralCrossJoin()
		}
		return p.parseCrossJoin()
	}

	k := 0
	natural := p.peekAt(k).IsKeyword("natural")
	if natural {
		k++
	}
	side := p.peekAt(k)
	switch {
	case side.IsKeyword("left"), side.IsKeyword("right"), side.IsKeyword("full"):
		k++
		if p.peekAt(k).IsKeyword("outer") {
			k++
		}
	case side.IsKeyword("inner"):
		k++
	}
	if !p.peekAt(k).IsKeyword("join") {
		if k == 0 {
			return nil
		}
		// modifiers typed without JOIN yet
		join := cst.NewBranch("join")
		for i := 0; i < k; i++ {
			join.Add(p.keyword())
		}
		return join
	}

	lateral := p.peekAt(k + 1).IsKeyword("lateral")
	if lateral && !natural && !side.IsKeyword("right") && !side.IsKeyword("full") {
		lj := cst.NewBranch("lateral_join")
		for i := 0; i <= k+1; i++ {
			lj.Add(p.keyword())
		}
		return p.parseLateralJoinRest(lj)
	}

	join := cst.NewBranch("join")
	for i := 0; i <= k; i++ {
		join.Add(p.keyword())
	}
	rel := p.parseRelation()
	if rel == nil {
		return join
	}
	join.Add(rel)
	switch {
	case p.at("on"):
		join.Add(p.keyword())
		if e := p.parseExpr(); e != nil {
			join.AddEnd(e)
		}
	case p.at("using"):
		join.Add(p.keyword())
		if p.check(token.LPAREN) {
			join.AddEnd(p.parseColumnList())
		}
	}
	return join
}

// parseLateralJoinRest parses (call | subquery) [[AS] alias] ON expr.
func (p *Parser) parseLateralJoinRest(lj *cst.Node) *cst.Node {
	source := p.parseLateralSource()
	if source == nil {
		return lj
	}
	lj.Add(source)
	if p.at("as") {
		lj.Add(p.keyword())
		if !isWordToken(p.cur()) {
			return lj
		}
		lj.AddField("alias", p.ident("any_identifier"))
	} else {
		p.optIdent(lj, "any_identifier", "alias")
	}
	if !p.optKeyword(lj, "on") {
		return lj
	}
	if e := p.parseExpr(); e != nil {
		lj.AddEnd(e)
	}
	return lj
}

// parseLateralSource parses the invocation or subquery after LATERAL.
func (p *Parser) parseLateralSource() *cst.Node {
	switch {
	case p.check(token.LPAREN):
		return p.parseSubquery()
	case p.atIdent():
		parts, dots := p.parseDottedName(MaxParts(RefFunction))
		ref := QualifiedReference(RefFunction, parts, dots)
		if !p.check(token.LPAREN) {
			inv := cst.NewBranch("invocation")
			inv.Add(ref, p.missing("(", false))
			return inv
		}
		return p.parseInvocation(ref)
	}
	return nil
}

// parseCrossJoin parses CROSS JOIN relation [WITH ORDINALITY alias (cols)].
func (p *Parser) parseCrossJoin() *cst.Node {
	cj := cst.NewBranch("cross_join")
	cj.Add(p.keyword())
	if !p.optKeyword(cj, "join") {
		return cj
	}
	rel := p.parseRelation()
	if rel == nil {
		return cj
	}
	cj.Add(rel)
	if !p.optKeyword(cj, "with") || !p.optKeyword(cj, "ordinality") {
		return cj
	}
	alias := p.parseAlias()
	if alias == nil {
		return cj
	}
	cj.AddEnd(alias)
	if p.check(token.LPAREN) {
		cj.Add(p.punct())
		p.parseCommaList(cj, false, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			return p.ident("any_identifier")
		}, "any_identifier")
		p.expectPunct(cj, token.RPAREN, cst.FieldEnd)
	}
	return cj
}

// parseLateralCrossJoin parses CROSS JOIN LATERAL (call | subquery) [alias].
func (p *Parser) parseLateralCrossJoin() *cst.Node {
	lcj := cst.NewBranch("lateral_cross_join")
	lcj.Add(p.keyword(), p.keyword(), p.keyword())
	source := p.parseLateralSource()
	if source == nil {
		return lcj
	}
	lcj.AddEnd(source)
	if alias := p.parseAlias(); alias != nil {
		lcj.Add(alias)
	}
	return lcj
}

// ---------- Filtering and Grouping ----------

// parseWhere parses WHERE expr.
func (p *Parser) parseWhere() *cst.Node {
	w := cst.NewBranch("where")
	w.Add(p.keyword())
	if e := p.parseExpr(); e != nil {
		w.AddEnd(e)
	}
	return w
}

// parseGroupBy parses GROUP BY expr, ... [HAVING expr].
func (p *Parser) parseGroupBy() *cst.Node {
	gb := cst.NewBranch("group_by")
	gb.Add(p.keyword(), p.keyword())
	if p.parseCommaList(gb, false, endField(p.parseExpr), "expression") == 0 {
		return gb
	}
	if p.at("having") {
		h := cst.NewBranch("group_by_having")
		h.Add(p.keyword())
		if e := p.parseExpr(); e != nil {
			h.AddEnd(e)
		}
		gb.Add(h)
	}
	return gb
}
