package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Expression parsing uses precedence climbing over the table in
// precedence.go:
//
//	expr    → prefix { infix }
//	prefix  → unary_op expr | primary
//	infix   → binary_op expr | [NOT] IN (list|subquery) | IS [NOT] ...
//	        | [NOT] BETWEEN expr AND expr | "[" ... "]" | "::" type
//
// Every binary form is partial: when the right operand is absent the node
// stops after its operator without a diagnostic, so "a +" is still a
// binary_expression.

// parseExpr parses a full expression, or returns nil when none starts at
// the current token.
func (p *Parser) parseExpr() *cst.Node {
	return p.parseExprPrec(precDisjunctive)
}

// parseExprPrec parses an expression whose operators all bind at least as
// tightly as min.
func (p *Parser) parseExprPrec(min int) *cst.Node {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	return p.parseInfix(left, min)
}

// parseInfix extends left with infix operators of level min or tighter.
func (p *Parser) parseInfix(left *cst.Node, min int) *cst.Node {
	for {
		op := p.infixAt()
		if op.kind == infixNone || op.level < min {
			return left
		}
		switch op.kind {
		case infixCast:
			left = p.parseImplicitCast(left)
		case infixSubscript:
			left = p.parseSubscript(left)
		case infixBinary:
			left = p.parseBinary(left, op)
		case infixIn:
			left = p.parseIn(left, op)
		case infixIs:
			left = p.parseIs(left)
		case infixBetween:
			left = p.parseBetween(left, op)
		}
	}
}

// parseBinary parses left <op> right. The right operand binds one level
// tighter for left-associative classes and at the same level for ^.
func (p *Parser) parseBinary(left *cst.Node, op infixOp) *cst.Node {
	bin := cst.NewBranch("binary_expression")
	bin.AddField("binary_expr_left", left)
	bin.AddField("binary_expr_operator", p.parseOperator(op))

	next := op.level + 1
	if op.level == precExp {
		next = op.level
	}
	if right := p.parseExprPrec(next); right != nil {
		bin.AddEnd(right)
	}
	return bin
}

// parseOperator consumes the op.width tokens of a binary operator.
func (p *Parser) parseOperator(op infixOp) *cst.Node {
	tok := p.cur()
	switch {
	case tok.Type == token.OP && otherOps[tok.Literal] && binaryOps[tok.Literal] == 0:
		return p.leaf("op_other", true)
	case tok.Type == token.OP:
		return p.punct()
	case op.width == 1:
		return p.keyword()
	}

	// multi-word operators: NOT LIKE, SIMILAR TO, NOT SIMILAR TO, NOT IN
	var kind string
	switch {
	case tok.IsKeyword("similar"):
		kind = "similar_to"
	case p.peekAt(1).IsKeyword("like"):
		kind = "not_like"
	case p.peekAt(1).IsKeyword("in"):
		kind = "not_in"
	default:
		kind = "not_similar_to"
	}
	node := cst.NewBranch(kind)
	for i := 0; i < op.width; i++ {
		node.Add(p.keyword())
	}
	return node
}

// parseIn parses left [NOT] IN (list | subquery).
func (p *Parser) parseIn(left *cst.Node, op infixOp) *cst.Node {
	bin := cst.NewBranch("binary_expression")
	bin.AddField("binary_expr_left", left)
	bin.AddField("binary_expr_operator", p.parseOperator(op))
	if p.check(token.LPAREN) {
		bin.AddEnd(p.parseParenthesized(false))
	}
	return bin
}

// parseIs parses left IS [NOT] (NULL | TRUE | FALSE | DISTINCT FROM expr).
func (p *Parser) parseIs(left *cst.Node) *cst.Node {
	is := cst.NewBranch("is_expression")
	is.Add(left, p.keyword())
	p.optKeyword(is, "not")
	switch {
	case p.atAny("null", "true", "false"):
		is.AddEnd(p.keyword())
	case p.at("distinct"):
		is.Add(p.keyword())
		if !p.optKeyword(is, "from") {
			return is
		}
		if right := p.parseExprPrec(precIs + 1); right != nil {
			is.AddEnd(right)
		}
	}
	return is
}

// parseBetween parses left [NOT] BETWEEN low AND high. Both bounds stop
// before AND so the trailing AND belongs to this node.
func (p *Parser) parseBetween(left *cst.Node, op infixOp) *cst.Node {
	btw := cst.NewBranch("between_expression")
	btw.Add(left)
	for i := 0; i < op.width; i++ {
		btw.Add(p.keyword())
	}
	low := p.parseExprPrec(precBetween + 1)
	if low == nil {
		return btw
	}
	btw.Add(low)
	if !p.optKeyword(btw, "and") {
		return btw
	}
	if high := p.parseExprPrec(precBetween + 1); high != nil {
		btw.AddEnd(high)
	}
	return btw
}

// parseSubscript parses expr[i] and expr[lo:hi].
func (p *Parser) parseSubscript(left *cst.Node) *cst.Node {
	sub := cst.NewBranch("subscript")
	sub.AddField("expression", left)
	sub.Add(p.punct())

	first := p.parseExpr()
	if p.check(token.COLON) {
		sub.AddField("lower", first)
		sub.Add(p.punct())
		sub.AddField("upper", p.parseExpr())
	} else if first != nil {
		sub.AddField("subscript", first)
	} else {
		sub.AddField("subscript", p.missing("expression", true))
	}
	p.expectPunct(sub, token.RBRACKET, cst.FieldEnd)
	return sub
}

// parseImplicitCast parses expr::type.
func (p *Parser) parseImplicitCast(left *cst.Node) *cst.Node {
	cast := cst.NewBranch("cast")
	cast.Add(left, p.punct())
	if typ := p.parseType(); typ != nil {
		cast.AddEnd(typ)
	} else {
		cast.AddEnd(p.missing("type", true))
	}
	return cast
}

// ---------- Prefix Forms ----------

// parsePrefix parses a unary expression or a primary.
func (p *Parser) parsePrefix() *cst.Node {
	tok := p.cur()
	switch {
	case tok.Type == token.IDENT && unaryNotKeywords[tok.Keyword]:
		return p.parseUnary(p.keyword(), precUnaryNot)
	case tok.IsOp("!"):
		return p.parseUnary(p.leaf("bang", true), precUnaryNot)
	case (tok.IsOp("-") || tok.IsOp("+")) && p.signedNumberAhead():
		lit := cst.NewBranch("literal")
		lit.Add(p.punct(), p.leaf("number", false))
		return lit
	case tok.IsOp("-") || tok.IsOp("+"):
		return p.parseUnary(p.punct(), precIs)
	case tok.Type == token.OP && unaryOtherOps[tok.Literal]:
		return p.parseUnary(p.leaf("op_unary_other", true), precUnaryOther)
	}
	return p.parsePrimary()
}

// signedNumberAhead reports whether the sign at the current token is
// directly followed by a number.
func (p *Parser) signedNumberAhead() bool {
	next := p.peekAt(1)
	return (next.Type == token.INTEGER || next.Type == token.DECIMAL) && next.Span.Start == p.cur().Span.End
}

// parseUnary parses the operand of a prefix operator. Without an operand the
// node is left partial.
func (p *Parser) parseUnary(op *cst.Node, level int) *cst.Node {
	un := cst.NewBranch("unary_expression")
	un.Add(op)
	if operand := p.parseExprPrec(level + 1); operand != nil {
		un.AddEnd(operand)
	}
	return un
}

// ---------- Lists ----------

// parseCommaList parses elem {"," elem} into n and returns the number of
// elements. A comma must be followed by an element; when it is not, a
// missing node of the given kind takes its place.
func (p *Parser) parseCommaList(n *cst.Node, requireFirst bool, elem func() *cst.Node, kind string) int {
	first := elem()
	if first == nil {
		if requireFirst {
			n.Add(p.missing(kind, true))
		}
		return 0
	}
	n.Add(first)
	count := 1
	for p.check(token.COMMA) {
		n.Add(p.punct())
		next := elem()
		if next == nil {
			n.Add(p.missing(kind, true))
			break
		}
		n.Add(next)
		count++
	}
	return count
}

// endField wraps elem so that every element gets the end field.
func endField(elem func() *cst.Node) func() *cst.Node {
	return func() *cst.Node {
		n := elem()
		if n != nil {
			n.Field = cst.FieldEnd
		}
		return n
	}
}
