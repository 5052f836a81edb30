package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Function calls and window functions.
//
//	invocation      → function_reference "(" [args] ")" [filter_expression]
//	args            → [DISTINCT] term [order_by] { "," ... } | one arg [LIMIT] [OFFSET]
//	window_function → invocation OVER (name | window_specification)
//	window_spec     → "(" [partition_by] [order_by] [window_frame] ")"
//	window_frame    → (RANGE | ROWS | GROUPS) (BETWEEN frame AND frame | frame) [exclusion]

// parseInvocation parses the argument list after a function reference.
func (p *Parser) parseInvocation(ref *cst.Node) *cst.Node {
	inv := cst.NewBranch("invocation")
	inv.Add(ref, p.punct())

	args := 0
	for {
		distinct := p.optKeyword(inv, "distinct")
		term := p.parseTerm()
		if term == nil {
			if distinct || args > 0 {
				inv.AddField("parameter", p.missing("term", true))
			}
			break
		}
		inv.AddField("parameter", term)
		args++
		if p.atSeq("order", "by") {
			inv.Add(p.parseOrderBy())
		}
		if !p.check(token.COMMA) {
			break
		}
		inv.Add(p.punct())
	}
	if args == 1 {
		if p.at("limit") {
			inv.Add(p.parseLimit())
		}
		if p.at("offset") {
			inv.Add(p.parseOffset())
		}
	}

	if p.check(token.RPAREN) {
		inv.Add(p.punct())
	} else {
		inv.Add(p.missing(")", false))
		return inv
	}

	if p.at("filter") && p.checkAt(1, token.LPAREN) {
		inv.Add(p.parseFilter())
	}
	if p.at("over") {
		return p.parseWindowFunction(inv)
	}
	return inv
}

// parseFilter parses FILTER (WHERE expr).
func (p *Parser) parseFilter() *cst.Node {
	f := cst.NewBranch("filter_expression")
	f.Add(p.keyword(), p.punct())
	if p.at("where") {
		f.Add(p.parseWhere())
	} else {
		f.Add(p.missing("where", true))
	}
	p.expectPunct(f, token.RPAREN, cst.FieldEnd)
	return f
}

// parseWindowFunction parses OVER (name | window_specification) after inv.
func (p *Parser) parseWindowFunction(inv *cst.Node) *cst.Node {
	wf := cst.NewBranch("window_function")
	wf.Add(inv, p.keyword())
	switch {
	case p.check(token.LPAREN):
		wf.AddEnd(p.parseWindowSpecification())
	case p.atIdent():
		wf.AddEnd(p.ident("any_identifier"))
	}
	return wf
}

// parseWindowSpecification parses ( [PARTITION BY] [ORDER BY] [frame] ).
func (p *Parser) parseWindowSpecification() *cst.Node {
	spec := cst.NewBranch("window_specification")
	spec.Add(p.punct())
	if p.atSeq("partition", "by") {
		spec.Add(p.parsePartitionBy())
	}
	if p.atSeq("order", "by") {
		spec.Add(p.parseOrderBy())
	}
	if p.atAny("range", "rows", "groups") {
		spec.Add(p.parseWindowFrame())
	}
	p.expectPunct(spec, token.RPAREN, cst.FieldEnd)
	return spec
}

// parsePartitionBy parses PARTITION BY expr, ...
func (p *Parser) parsePartitionBy() *cst.Node {
	pb := cst.NewBranch("partition_by")
	pb.Add(p.keyword(), p.keyword())
	p.parseCommaList(pb, false, p.parseExpr, "expression")
	return pb
}

// parseWindowFrame parses a ROWS/RANGE/GROUPS frame.
func (p *Parser) parseWindowFrame() *cst.Node {
	wf := cst.NewBranch("window_frame")
	wf.Add(p.keyword())
	if p.optKeyword(wf, "between") {
		if !p.expectFrame(wf) {
			return wf
		}
		if p.optKeyword(wf, "and") && !p.expectFrame(wf) {
			return wf
		}
	} else if !p.expectFrame(wf) {
		return wf
	}
	if p.at("exclude") {
		switch next := p.peekAt(1); {
		case next.IsKeyword("current") && p.peekAt(2).IsKeyword("row"):
			wf.Add(p.keyword(), p.keyword(), p.keyword())
		case next.IsKeyword("no") && p.peekAt(2).IsKeyword("others"):
			wf.Add(p.keyword(), p.keyword(), p.keyword())
		case next.IsKeyword("group"), next.IsKeyword("ties"):
			wf.Add(p.keyword(), p.keyword())
		}
	}
	return wf
}

// expectFrame appends a frame_definition to wf, or a missing one.
func (p *Parser) expectFrame(wf *cst.Node) bool {
	if fd := p.parseFrameDefinition(); fd != nil {
		wf.Add(fd)
		return !fd.HasError()
	}
	wf.Add(p.missing("frame_definition", true))
	return false
}

// parseFrameDefinition parses UNBOUNDED PRECEDING|FOLLOWING, CURRENT ROW
// and <offset> PRECEDING|FOLLOWING.
func (p *Parser) parseFrameDefinition() *cst.Node {
	fd := cst.NewBranch("frame_definition")
	switch {
	case p.at("unbounded"):
		fd.Add(p.keyword())
		if p.atAny("preceding", "following") {
			fd.Add(p.keyword())
		} else {
			fd.Add(p.missing("keyword_preceding", true))
		}
	case p.atSeq("current", "row"):
		fd.Add(p.keyword(), p.keyword())
	default:
		bound := p.parseExprPrec(precBetween + 1)
		if bound == nil {
			return nil
		}
		switch {
		case p.at("preceding"):
			fd.AddField("start", bound)
			fd.Add(p.keyword())
		case p.at("following"):
			fd.AddField("end", bound)
			fd.Add(p.keyword())
		default:
			fd.AddField("start", bound)
			fd.Add(p.missing("keyword_preceding", true))
		}
	}
	return fd
}

// parseWindowClause parses WINDOW name AS (spec).
func (p *Parser) parseWindowClause() *cst.Node {
	wc := cst.NewBranch("window_clause")
	wc.Add(p.keyword())
	if !p.optIdent(wc, "any_identifier", "") || !p.optKeyword(wc, "as") {
		return wc
	}
	if p.check(token.LPAREN) {
		wc.AddEnd(p.parseWindowSpecification())
	}
	return wc
}

// ---------- Ordering ----------

// parseOrderBy parses ORDER BY target, ...
func (p *Parser) parseOrderBy() *cst.Node {
	ob := cst.NewBranch("order_by")
	ob.Add(p.keyword(), p.keyword())
	p.parseCommaList(ob, false, endField(p.parseOrderTarget), "order_target")
	return ob
}

// parseOrderTarget parses expr [ASC|DESC | USING op] [NULLS FIRST|LAST].
func (p *Parser) parseOrderTarget() *cst.Node {
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	ot := cst.NewBranch("order_target")
	switch {
	case p.atAny("asc", "desc"):
		ot.Add(expr)
		dir := cst.NewBranch("direction")
		dir.AddEnd(p.keyword())
		ot.AddEnd(dir)
	case p.at("using"):
		ot.Add(expr, p.keyword())
		if tok := p.cur(); tok.IsOp("<") || tok.IsOp(">") || tok.IsOp("<=") || tok.IsOp(">=") {
			ot.AddEnd(p.punct())
		}
	default:
		ot.AddEnd(expr)
	}
	if p.at("nulls") {
		nulls := cst.NewBranch("order_target_nulls")
		nulls.Add(p.keyword())
		if p.atAny("first", "last") {
			nulls.AddEnd(p.keyword())
		}
		ot.Add(nulls)
	}
	return ot
}

// parseLimit parses LIMIT count.
func (p *Parser) parseLimit() *cst.Node {
	l := cst.NewBranch("limit")
	l.Add(p.keyword())
	if e := p.parseExpr(); e != nil {
		l.AddEnd(e)
	}
	return l
}

// parseOffset parses OFFSET count.
func (p *Parser) parseOffset() *cst.Node {
	o := cst.NewBranch("offset")
	o.Add(p.keyword())
	if e := p.parseExpr(); e != nil {
		o.AddEnd(e)
	}
	return o
}
