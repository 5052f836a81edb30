package parser

import (
	"fmt"

	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// CREATE FUNCTION.
//
//	create_function → CREATE [OR REPLACE] FUNCTION name (args) RETURNS ret
//	                  option... function_body option...
//	function_body   → RETURN expr
//	                | BEGIN ATOMIC (stmt ;)... END
//	                | AS 'text'
//	                | AS $$ [DECLARE decl...] BEGIN (stmt ;)... END [;] $$
//	                | AS $$ stmt [;] $$
//
// A dollar-quoted body is parsed as SQL when its content parses cleanly, and
// kept as an opaque literal otherwise (PL/pgSQL control flow, other
// languages).

func (p *Parser) parseCreateFunction() *cst.Node {
	cf := cst.NewBranch("create_function")
	cf.Add(p.keyword())
	p.optOrReplace(cf)
	cf.Add(p.keyword())
	if !p.optReference(cf, RefObject, "") || !p.check(token.LPAREN) {
		return cf
	}
	cf.Add(p.parseFunctionArguments())
	if !p.optKeyword(cf, "returns") {
		return cf
	}
	ret := p.parseFunctionReturn()
	if ret == nil {
		return cf
	}
	cf.Add(ret)
	p.parseFunctionOptions(cf)
	body := p.parseFunctionBody()
	if body == nil {
		return cf
	}
	cf.AddEnd(body)
	p.parseFunctionOptions(cf)
	return cf
}

// parseFunctionReturn parses TRIGGER, SETOF type, TABLE (cols) or a type.
func (p *Parser) parseFunctionReturn() *cst.Node {
	switch {
	case p.at("trigger"):
		return p.keyword()
	case p.at("setof"):
		so := cst.NewBranch("create_function_returns_setof_type")
		so.Add(p.keyword())
		if typ := p.parseType(); typ != nil {
			so.AddEnd(typ)
		}
		return so
	case p.at("table"):
		td := cst.NewBranch("create_function_returns_table_definitions")
		td.Add(p.keyword())
		if p.check(token.LPAREN) {
			td.AddEnd(p.parseColumnDefinitions())
		}
		return td
	}
	return p.parseType()
}

// ---------- Arguments ----------

// parseFunctionArguments parses ( [argument, ...] ).
func (p *Parser) parseFunctionArguments() *cst.Node {
	args := cst.NewBranch("function_arguments")
	args.Add(p.punct())
	p.parseCommaList(args, false, p.parseFunctionArgument, "function_argument")
	p.expectPunct(args, token.RPAREN, cst.FieldEnd)
	return args
}

// typeContinuations are words that continue a multi-word type name, so the
// word before them is not an argument name.
var typeContinuations = map[string]bool{"precision": true, "varying": true}

// parseFunctionArgument parses [mode] [name] type [DEFAULT | = expr].
func (p *Parser) parseFunctionArgument() *cst.Node {
	fa := cst.NewBranch("function_argument")
	switch {
	case p.at("in"):
		fa.Add(p.keyword())
		p.optKeyword(fa, "out")
	case p.atAny("out", "inout", "variadic"):
		fa.Add(p.keyword())
	}
	if next := p.peekAt(1); p.atIdent() && isIdentToken(next) && !typeContinuations[next.Keyword] {
		fa.Add(p.ident("any_identifier"))
	}
	typ := p.parseType()
	if typ == nil {
		if len(fa.Children) == 0 {
			return nil
		}
		fa.Add(p.missing("type", true))
		return fa
	}
	fa.Add(typ)
	if p.at("default") || p.atOp("=") {
		if p.at("default") {
			fa.Add(p.keyword())
		} else {
			fa.Add(p.punct())
		}
		p.expectExpr(fa)
	}
	return fa
}

// ---------- Options ----------

// parseFunctionOptions appends LANGUAGE, volatility, LEAKPROOF, SECURITY,
// PARALLEL, strictness, COST, ROWS and SUPPORT options.
func (p *Parser) parseFunctionOptions(n *cst.Node) {
	for {
		opt := p.parseFunctionOption()
		if opt == nil {
			return
		}
		n.Add(opt)
	}
}

func (p *Parser) parseFunctionOption() *cst.Node {
	switch {
	case p.at("language"):
		fl := cst.NewBranch("function_language")
		fl.Add(p.keyword())
		switch {
		case p.check(token.STRING):
			fl.AddEnd(p.leaf("literal", true))
		case isWordToken(p.cur()):
			fl.AddEnd(p.ident("any_identifier"))
		}
		return fl
	case p.atAny("immutable", "stable", "volatile"):
		fv := cst.NewBranch("function_volatility")
		fv.Add(p.keyword())
		return fv
	case p.at("leakproof"), p.atSeq("not", "leakproof"):
		fl := cst.NewBranch("function_leakproof")
		p.optKeyword(fl, "not")
		fl.Add(p.keyword())
		return fl
	case p.at("security"), p.atSeq("external", "security"):
		fs := cst.NewBranch("function_security")
		p.optKeyword(fs, "external")
		fs.Add(p.keyword())
		if p.atAny("invoker", "definer") {
			fs.AddEnd(p.keyword())
		}
		return fs
	case p.at("parallel"):
		fs := cst.NewBranch("function_safety")
		fs.Add(p.keyword())
		if p.atAny("safe", "unsafe", "restricted") {
			fs.AddEnd(p.keyword())
		}
		return fs
	case p.at("strict"):
		fs := cst.NewBranch("function_strictness")
		fs.Add(p.keyword())
		return fs
	case p.at("called"), p.atSeq("returns", "null"):
		fs := cst.NewBranch("function_strictness")
		if p.at("returns") {
			fs.Add(p.keyword())
		}
		fs.Add(p.keyword())
		for _, kw := range []string{"on", "null", "input"} {
			if !p.expectKeyword(fs, kw) {
				break
			}
		}
		return fs
	case p.atAny("cost", "rows"):
		kind := "function_cost"
		if p.at("rows") {
			kind = "function_rows"
		}
		fc := cst.NewBranch(kind)
		fc.Add(p.keyword())
		if p.check(token.INTEGER) {
			fc.Add(p.leaf("literal", true))
		} else {
			fc.Add(p.missing("literal", true))
		}
		return fc
	case p.at("support"):
		fs := cst.NewBranch("function_support")
		fs.Add(p.keyword())
		p.parseLiteralString(fs, "")
		return fs
	}
	return nil
}

// ---------- Bodies ----------

// parseFunctionBody parses one of the body forms, or returns nil when none
// starts here.
func (p *Parser) parseFunctionBody() *cst.Node {
	fb := cst.NewBranch("function_body")
	switch {
	case p.at("return"):
		fb.Add(p.keyword())
		if e := p.parseExpr(); e != nil {
			fb.AddEnd(e)
		}
	case p.atSeq("begin", "atomic"):
		fb.Add(p.keyword(), p.keyword())
		if !p.parseBodyStatements(fb) {
			return fb
		}
		if p.at("end") {
			fb.AddEnd(p.keyword())
		} else {
			fb.AddEnd(p.missing("keyword_end", true))
		}
	case p.at("as"):
		fb.Add(p.keyword())
		switch {
		case p.check(token.STRING), p.check(token.QUOTED_IDENT):
			fb.AddEnd(p.leaf("literal", true))
		case p.check(token.DOLLAR_TAG_START):
			p.parseDollarBody(fb)
		default:
			fb.Add(p.missing("literal", true))
		}
	default:
		return nil
	}
	return fb
}

// parseBodyStatements appends one or more "statement ;" pairs, stopping
// before END. RETURN expr counts as a statement.
func (p *Parser) parseBodyStatements(n *cst.Node) bool {
	count := 0
	for !p.at("end") && !p.check(token.EOF) {
		if p.at("return") {
			n.Add(p.keyword())
			if !p.expectExpr(n) {
				return false
			}
		} else {
			st := p.parseStatement()
			if st == nil {
				n.Add(p.missing(cst.KindStatement, true))
				return false
			}
			n.Add(st)
		}
		count++
		if !p.expectPunct(n, token.SEMICOLON, "") {
			return false
		}
	}
	if count == 0 {
		n.Add(p.missing(cst.KindStatement, true))
		return false
	}
	return true
}

// parseDollarBody appends the structured form of a dollar-quoted body when
// its content parses without diagnostics, and the opaque literal otherwise.
func (p *Parser) parseDollarBody(fb *cst.Node) {
	if p.checkAt(1, token.DOLLAR_BODY) && p.checkAt(2, token.DOLLAR_TAG_END) {
		span := p.peekAt(1).Span
		sub := newParser(p.src, newBoundedLexer(p.src, span.Start, span.End))
		content := sub.parseDollarContent()
		if sub.check(token.EOF) {
			// comments after the last statement ride on EOF
			sub.nextToken()
		}
		if len(sub.diags) == 0 && len(content) > 0 {
			fb.Add(p.leaf("dollar_quote", true))
			p.nextToken()
			fb.Add(content...)
			fb.AddEnd(p.leaf("dollar_quote", true))
			p.extras = append(p.extras, sub.extras...)
			return
		}
	}
	fb.AddEnd(p.parseDollarLiteral())
}

// parseDollarContent parses the inside of a dollar-quoted body.
func (p *Parser) parseDollarContent() []*cst.Node {
	holder := cst.NewBranch("function_body")
	if p.at("declare") {
		holder.Add(p.keyword())
		decls := 0
		for p.atIdent() && !p.at("begin") {
			d := p.parseFunctionDeclaration()
			holder.Add(d)
			decls++
			if d.HasError() {
				return holder.Children
			}
		}
		if decls == 0 {
			holder.Add(p.missing("function_declaration", true))
			return holder.Children
		}
		if !p.expectKeyword(holder, "begin") {
			return holder.Children
		}
	} else if p.at("begin") {
		holder.Add(p.keyword())
	}

	if len(holder.Children) > 0 {
		if !p.parseBodyStatements(holder) || !p.expectKeyword(holder, "end") {
			return holder.Children
		}
		p.optPunct(holder, token.SEMICOLON)
	} else {
		if p.at("return") {
			holder.Add(p.keyword())
			if !p.expectExpr(holder) {
				return holder.Children
			}
		} else {
			st := p.parseStatement()
			if st == nil {
				holder.Add(p.missing(cst.KindStatement, true))
				return holder.Children
			}
			holder.Add(st)
		}
		p.optPunct(holder, token.SEMICOLON)
	}
	if tok := p.cur(); tok.Type != token.EOF {
		p.errorAt(tok.Span, fmt.Sprintf(errSyntaxNear, tok.Literal))
	}
	return holder.Children
}

// parseFunctionDeclaration parses name type [:= ((statement) | expr)] ;
func (p *Parser) parseFunctionDeclaration() *cst.Node {
	fd := cst.NewBranch("function_declaration")
	fd.Add(p.ident("any_identifier"))
	typ := p.parseType()
	if typ == nil {
		fd.Add(p.missing("type", true))
		return fd
	}
	fd.Add(typ)
	if p.check(token.COLON_EQ) {
		fd.Add(p.punct())
		if p.check(token.LPAREN) && p.atSubquery(0) {
			fd.Add(p.punct())
			st := p.parseStatement()
			if st == nil {
				fd.Add(p.missing(cst.KindStatement, true))
				return fd
			}
			fd.Add(st)
			if !p.expectPunct(fd, token.RPAREN, "") {
				return fd
			}
		} else if !p.expectExpr(fd) {
			return fd
		}
	}
	p.expectPunct(fd, token.SEMICOLON, "")
	return fd
}
