package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// DROP, COMMENT ON, SET, RESET, GRANT, REVOKE, VACUUM, ANALYZE and EXPLAIN.

// ---------- DROP ----------

// dropForms maps the object keyword after DROP to its node kind and the
// kind of name it takes.
var dropForms = map[string]struct{ kind, name string }{
	"table":     {"drop_table", RefTable},
	"view":      {"drop_view", RefObject},
	"index":     {"drop_index", "any_identifier"},
	"type":      {"drop_type", RefType},
	"schema":    {"drop_schema", "schema_identifier"},
	"database":  {"drop_database", "any_identifier"},
	"role":      {"drop_role", "role_identifier"},
	"group":     {"drop_role", "role_identifier"},
	"user":      {"drop_role", "role_identifier"},
	"sequence":  {"drop_sequence", RefObject},
	"extension": {"drop_extension", "any_identifier"},
	"function":  {"drop_function", RefFunction},
	"policy":    {"drop_policy", "policy_identifier"},
}

// parseDrop appends a DROP statement to n.
func (p *Parser) parseDrop(n *cst.Node) bool {
	form, ok := dropForms[p.peekAt(1).Keyword]
	if !ok {
		return false
	}
	d := cst.NewBranch(form.kind)
	d.Add(p.keyword(), p.keyword())
	if form.kind == "drop_index" {
		p.optKeyword(d, "concurrently")
	}
	p.optIfExists(d)

	switch form.kind {
	case "drop_table", "drop_index", "drop_function":
		// partial forms: the name is the end and may be absent
		if !p.atIdent() {
			n.Add(d)
			return true
		}
		if form.kind == "drop_index" {
			d.AddEnd(p.ident(form.name))
		} else {
			d.AddEnd(p.parseReference(form.name))
		}
		if form.kind == "drop_function" && p.check(token.LPAREN) {
			d.Add(p.parseFunctionArguments())
		}
		p.optDropBehavior(d)
	case "drop_extension":
		p.parseCommaList(d, true, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			return p.ident(form.name)
		}, form.name)
		p.optDropBehavior(d)
	case "drop_database":
		if p.expectIdent(d, form.name, "") {
			p.optKeyword(d, "with")
			p.optKeyword(d, "force")
		}
	case "drop_role":
		p.expectIdent(d, form.name, "")
	case "drop_policy":
		if p.expectIdent(d, form.name, "") && p.optKeyword(d, "on") && p.expectReference(d, RefTable, "") {
			p.optDropBehavior(d)
		}
	case "drop_schema":
		if p.expectIdent(d, form.name, "") {
			p.optDropBehavior(d)
		}
	default:
		if p.expectReference(d, form.name, "") {
			p.optDropBehavior(d)
		}
	}
	n.Add(d)
	return true
}

// ---------- COMMENT ON ----------

// parseComment parses COMMENT ON target IS ('text' | NULL).
func (p *Parser) parseComment() *cst.Node {
	cs := cst.NewBranch("comment_statement")
	cs.Add(p.keyword())
	if !p.expectKeyword(cs, "on") || !p.parseCommentTarget(cs) || !p.expectKeyword(cs, "is") {
		return cs
	}
	if p.at("null") {
		cs.Add(p.keyword())
		return cs
	}
	p.parseLiteralString(cs, "")
	return cs
}

// parseCommentTarget appends the object a comment is attached to.
func (p *Parser) parseCommentTarget(n *cst.Node) bool {
	switch {
	case p.at("cast"):
		n.Add(p.parseCast())
	case p.at("column"):
		n.Add(p.keyword())
		return p.expectReference(n, RefColumn, "")
	case p.at("database"), p.at("tablespace"):
		n.Add(p.keyword())
		return p.expectIdent(n, "any_identifier", "")
	case p.at("extension"), p.at("index"), p.at("sequence"), p.at("view"):
		n.Add(p.keyword())
		return p.expectReference(n, RefObject, "")
	case p.at("function"):
		n.Add(p.keyword())
		if !p.expectReference(n, RefFunction, "") {
			return false
		}
		if p.check(token.LPAREN) {
			n.Add(p.parseFunctionArguments())
		}
	case p.atSeq("materialized", "view"):
		n.Add(p.keyword(), p.keyword())
		return p.expectReference(n, RefObject, "")
	case p.at("role"):
		n.Add(p.keyword())
		return p.expectIdent(n, "role_identifier", "")
	case p.at("schema"):
		n.Add(p.keyword())
		return p.expectIdent(n, "schema_identifier", "")
	case p.at("table"):
		n.Add(p.keyword())
		return p.expectReference(n, RefTable, "")
	case p.at("trigger"):
		n.Add(p.keyword())
		return p.expectIdent(n, "any_identifier", "") && p.expectKeyword(n, "on") &&
			p.expectReference(n, RefTable, "")
	case p.at("type"):
		n.Add(p.keyword())
		return p.expectReference(n, RefType, "")
	default:
		n.Add(p.missing("keyword_table", true))
		return false
	}
	return true
}

// ---------- SET and RESET ----------

// parseSet parses every SET form: configuration parameters, SCHEMA, NAMES,
// TIME ZONE, SESSION AUTHORIZATION, ROLE, CONSTRAINTS, TRANSACTION,
// TRANSACTION SNAPSHOT and SESSION CHARACTERISTICS.
func (p *Parser) parseSet() *cst.Node {
	ss := cst.NewBranch("set_statement")
	ss.Add(p.keyword())
	switch {
	case p.at("constraints"):
		ss.Add(p.keyword())
		if p.at("all") {
			ss.Add(p.keyword())
		} else if p.parseCommaList(ss, true, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			return p.ident("any_identifier")
		}, "any_identifier") == 0 {
			return ss
		}
		if p.atAny("deferred", "immediate") {
			ss.AddEnd(p.keyword())
		}
		return ss
	case p.atSeq("transaction", "snapshot"):
		ss.Add(p.keyword(), p.keyword())
		if p.check(token.STRING) {
			ss.AddEnd(p.leaf("literal", true))
		}
		return ss
	case p.at("transaction"):
		ss.Add(p.keyword())
		p.parseTransactionModes(ss)
		return ss
	case p.atSeq("session", "characteristics"):
		ss.Add(p.keyword(), p.keyword())
		if p.optKeyword(ss, "as") && p.optKeyword(ss, "transaction") {
			p.parseTransactionModes(ss)
		}
		return ss
	case p.atSeq("session", "authorization"):
		ss.Add(p.keyword(), p.keyword())
		p.parseSetRole(ss)
		return ss
	}

	if p.atAny("session", "local") {
		ss.Add(p.keyword())
	}
	switch {
	case p.at("schema"), p.at("names"):
		ss.Add(p.keyword())
		if lit := p.parseLiteralValue(); lit != nil {
			ss.AddEnd(lit)
		}
	case p.atSeq("time", "zone"):
		ss.Add(p.keyword(), p.keyword())
		switch {
		case p.atAny("local", "default"):
			ss.AddEnd(p.keyword())
		default:
			if lit := p.parseLiteralValue(); lit != nil {
				ss.AddEnd(lit)
			}
		}
	case p.atSeq("session", "authorization"):
		ss.Add(p.keyword(), p.keyword())
		p.parseSetRole(ss)
	case p.at("role"):
		ss.Add(p.keyword())
		if p.at("none") {
			ss.AddEnd(p.keyword())
		} else {
			p.optIdent(ss, "role_identifier", cst.FieldEnd)
		}
	case isWordToken(p.cur()) && !p.atEnd():
		ss.Add(p.ident("any_identifier"))
		if !p.at("to") && !p.atOp("=") {
			return ss
		}
		ss.Add(p.punct())
		if p.atAny("default", "on", "off") {
			ss.AddEnd(p.keyword())
			return ss
		}
		// a list value: SET search_path TO app, public
		for {
			var v *cst.Node
			if p.atIdent() {
				v = p.ident("any_identifier")
			} else {
				v = p.parseLiteralValue()
			}
			if v == nil {
				return ss
			}
			ss.AddEnd(v)
			if !p.check(token.COMMA) {
				return ss
			}
			ss.Add(p.punct())
		}
	}
	return ss
}

// parseSetRole appends role | DEFAULT as the end of a SET SESSION
// AUTHORIZATION.
func (p *Parser) parseSetRole(ss *cst.Node) {
	if p.at("default") {
		ss.AddEnd(p.keyword())
		return
	}
	p.optIdent(ss, "role_identifier", cst.FieldEnd)
}

// parseTransactionModes appends mode, ... where a mode is
// ISOLATION LEVEL level, READ WRITE | READ ONLY, [NOT] DEFERRABLE.
func (p *Parser) parseTransactionModes(n *cst.Node) {
	first := true
	for {
		if !p.parseTransactionMode(n) {
			if !first {
				n.Add(p.missing("keyword_isolation", true))
			}
			return
		}
		first = false
		if !p.optPunct(n, token.COMMA) {
			return
		}
	}
}

func (p *Parser) parseTransactionMode(n *cst.Node) bool {
	switch {
	case p.atSeq("isolation", "level"):
		n.Add(p.keyword(), p.keyword())
		switch {
		case p.at("serializable"):
			n.Add(p.keyword())
		case p.atSeq("repeatable", "read"), p.atSeq("read", "committed"), p.atSeq("read", "uncommitted"):
			n.Add(p.keyword(), p.keyword())
		default:
			n.Add(p.missing("keyword_serializable", true))
		}
	case p.atSeq("read", "write"), p.atSeq("read", "only"):
		n.Add(p.keyword(), p.keyword())
	case p.atSeq("not", "deferrable"):
		n.Add(p.keyword())
		n.AddEnd(p.keyword())
	case p.at("deferrable"):
		n.AddEnd(p.keyword())
	default:
		return false
	}
	return true
}

// parseReset parses RESET (ALL | name).
func (p *Parser) parseReset() *cst.Node {
	rs := cst.NewBranch("reset_statement")
	rs.Add(p.keyword())
	switch {
	case p.at("all"):
		rs.AddEnd(p.keyword())
	case isWordToken(p.cur()):
		rs.AddEnd(p.ident("any_identifier"))
	}
	return rs
}

// ---------- GRANT and REVOKE ----------

// privileges are the keywords a grantable list is made of.
var privileges = []string{
	"select", "insert", "update", "delete", "truncate", "references",
	"trigger", "maintain", "execute",
}

// parseGrant parses GRANT grantables TO role, ... [WITH GRANT OPTION]
// [GRANTED BY role].
func (p *Parser) parseGrant() *cst.Node {
	gs := cst.NewBranch("grant_statement")
	gs.Add(p.keyword())
	if !p.parseGrantables(gs) || !p.expectKeyword(gs, "to") || !p.parseRoleList(gs) {
		return gs
	}
	if p.at("with") {
		gs.Add(p.keyword())
		if !p.expectKeyword(gs, "grant") || !p.expectKeyword(gs, "option") {
			return gs
		}
	}
	p.parseGrantedBy(gs)
	return gs
}

// parseRevoke parses REVOKE [GRANT OPTION FOR | [ADMIN|INHERIT|SET] OPTION
// FOR] grantables FROM role, ... [GRANTED BY role] [CASCADE | RESTRICT].
func (p *Parser) parseRevoke() *cst.Node {
	rs := cst.NewBranch("revoke_statement")
	rs.Add(p.keyword())
	switch {
	case p.atSeq("grant", "option", "for"):
		rs.Add(p.keyword(), p.keyword(), p.keyword())
	case p.atSeq("admin", "option", "for"), p.atSeq("inherit", "option", "for"), p.atSeq("set", "option", "for"):
		rs.Add(p.keyword(), p.keyword(), p.keyword())
	case p.atSeq("option", "for"):
		rs.Add(p.keyword(), p.keyword())
	}
	if !p.parseGrantables(rs) || !p.expectKeyword(rs, "from") || !p.parseRoleList(rs) {
		return rs
	}
	if !p.parseGrantedBy(rs) {
		return rs
	}
	p.optDropBehavior(rs)
	return rs
}

func (p *Parser) parseRoleList(n *cst.Node) bool {
	return p.parseCommaList(n, true, func() *cst.Node {
		return p.parseRoleSpecification()
	}, "role_specification") > 0 && !n.HasError()
}

func (p *Parser) parseGrantedBy(n *cst.Node) bool {
	if !p.at("granted") {
		return true
	}
	n.Add(p.keyword())
	return p.expectKeyword(n, "by") && p.expectRoleSpecification(n)
}

// parseGrantables parses privileges ON target, or a list of role names.
func (p *Parser) parseGrantables(n *cst.Node) bool {
	g := cst.NewBranch("grantables")
	defer n.Add(g)

	if !p.atAny(privileges...) && !p.at("all") {
		return p.parseCommaList(g, true, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			return p.ident("role_identifier")
		}, "role_identifier") > 0 && !g.HasError()
	}

	grantable := cst.NewBranch("grantable")
	if p.at("all") {
		grantable.Add(p.keyword())
		p.optKeyword(grantable, "privileges")
	} else {
		p.parseCommaList(grantable, true, func() *cst.Node {
			if !p.atAny(privileges...) {
				return nil
			}
			return p.keyword()
		}, "keyword_select")
	}
	g.Add(grantable)
	if grantable.HasError() {
		return false
	}
	if p.check(token.LPAREN) {
		p.parseIdentList(g, "column_identifier", false)
	}
	if !p.at("on") {
		g.Add(p.missing("keyword_on", true))
		return false
	}
	target := p.parseGrantTarget()
	g.Add(target)
	return !target.HasError()
}

// parseGrantTarget parses ON [TABLE] tables, ON FUNCTION fns and
// ON ALL TABLES|FUNCTIONS|... IN SCHEMA schemas.
func (p *Parser) parseGrantTarget() *cst.Node {
	switch next := p.peekAt(1); {
	case next.IsKeyword("all"):
		ga := cst.NewBranch("grantable_on_all")
		ga.Add(p.keyword(), p.keyword())
		if !p.atAny("tables", "functions", "procedures", "routines") {
			ga.Add(p.missing("keyword_tables", true))
			return ga
		}
		ga.Add(p.keyword())
		if !p.expectKeyword(ga, "in") || !p.expectKeyword(ga, "schema") {
			return ga
		}
		p.parseCommaList(ga, true, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			return p.ident("schema_identifier")
		}, "schema_identifier")
		return ga
	case next.IsKeyword("function"), next.IsKeyword("procedure"), next.IsKeyword("routine"):
		gf := cst.NewBranch("grantable_on_function")
		gf.Add(p.keyword(), p.keyword())
		p.parseCommaList(gf, true, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			ref := p.parseReference(RefFunction)
			if !p.check(token.LPAREN) {
				return ref
			}
			gf.Add(ref)
			return p.parseFunctionArguments()
		}, RefFunction)
		return gf
	}
	gt := cst.NewBranch("grantable_on_table")
	gt.Add(p.keyword())
	p.optKeyword(gt, "table")
	p.parseCommaList(gt, true, func() *cst.Node {
		if !p.atIdent() {
			return nil
		}
		return p.parseReference(RefTable)
	}, RefTable)
	return gt
}

// ---------- VACUUM, ANALYZE, EXPLAIN ----------

// parseVacuum appends VACUUM [option] [ONLY] table [(cols)] to n.
func (p *Parser) parseVacuum(n *cst.Node) {
	n.Add(p.keyword())
	if p.atAny("full", "parallel", "analyze") {
		n.Add(p.keyword())
		if p.atAny("true", "false") {
			n.Add(p.keyword())
		}
	}
	p.optKeyword(n, "only")
	if !p.expectReference(n, RefTable, "") {
		return
	}
	if p.check(token.LPAREN) {
		n.Add(p.punct())
		p.parseCommaList(n, false, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			f := cst.NewBranch("field")
			f.AddField("column", p.ident("column_identifier"))
			return f
		}, "field")
		p.expectPunct(n, token.RPAREN, cst.FieldEnd)
	}
}

// parseAnalyze parses ANALYZE [(option, ...)] [[ONLY] table [*] [(cols)]].
func (p *Parser) parseAnalyze() *cst.Node {
	as := cst.NewBranch("analyze_statement")
	as.AddEnd(p.keyword())
	if p.check(token.LPAREN) {
		opts := cst.NewBranch("analyze_options")
		opts.Add(p.punct())
		p.parseCommaList(opts, true, p.parseAnalyzeOption, "analyze_option")
		p.expectPunct(opts, token.RPAREN, cst.FieldEnd)
		as.Add(opts)
	}
	if p.at("only") || p.atIdent() {
		tc := cst.NewBranch("analyze_table_and_columns")
		p.optKeyword(tc, "only")
		if !p.atIdent() {
			tc.AddEnd(p.missing(RefTable, true))
			as.Add(tc)
			return as
		}
		tc.AddEnd(p.parseReference(RefTable))
		if p.atOp("*") {
			tc.Add(p.punct())
		}
		if p.check(token.LPAREN) {
			cols := cst.NewBranch("analyze_columns")
			p.parseIdentList(cols, "column_identifier", true)
			tc.Add(cols)
		}
		as.Add(tc)
	}
	return as
}

func (p *Parser) parseAnalyzeOption() *cst.Node {
	ao := cst.NewBranch("analyze_option")
	switch {
	case p.atAny("verbose", "skip_locked"):
		ao.AddEnd(p.keyword())
		if p.atAny("true", "false") {
			ao.Add(p.keyword())
		}
	case p.at("buffer_usage_limit"):
		ao.Add(p.keyword())
		if p.check(token.INTEGER) {
			ao.AddEnd(p.leaf("literal", true))
		}
	default:
		return nil
	}
	return ao
}

// explainFlags are the EXPLAIN options that take an optional boolean.
var explainFlags = []string{
	"verbose", "analyze", "costs", "settings", "generic_plan", "buffers",
	"wal", "timing", "summary", "memory",
}

// parseExplain appends EXPLAIN [(option, ...)] statement to n.
func (p *Parser) parseExplain(n *cst.Node) {
	n.Add(p.keyword())
	if p.check(token.LPAREN) {
		n.Add(p.punct())
		p.parseCommaList(n, false, func() *cst.Node {
			return p.parseExplainOption(n)
		}, "keyword_verbose")
		if !p.optPunct(n, token.RPAREN) {
			return
		}
	} else {
		// pre-9.0 option syntax
		p.optKeyword(n, "analyze")
		p.optKeyword(n, "verbose")
	}

	mark := len(n.Children)
	switch {
	case p.at("with"), p.atDmlRead():
		p.parseDmlRead(n)
		// insert, update and delete may also follow a WITH
		if len(n.Children) > mark && n.Children[len(n.Children)-1].Kind == "cte" {
			p.parseDmlWrite(n)
		}
	case p.atAny("insert", "update", "delete"):
		p.parseDmlWrite(n)
	case p.at("merge"):
		p.parseMerge(n)
	case p.at("create") && (p.createKind() == "table" || p.createKind() == "materialized"):
		p.parseCreate(n)
	default:
		return
	}
	if len(n.Children) > mark {
		n.Children[len(n.Children)-1].Field = cst.FieldEnd
	}
}

// parseExplainOption appends one option to n and returns its last node,
// which is all parseCommaList needs to count it.
func (p *Parser) parseExplainOption(n *cst.Node) *cst.Node {
	switch {
	case p.atAny(explainFlags...):
		kw := p.keyword()
		if !p.atBooleanOnOff() {
			return kw
		}
		n.Add(kw)
		return p.parseBooleanOnOff()
	case p.at("format"):
		fo := cst.NewBranch("explain_format_option")
		fo.Add(p.keyword())
		if p.atAny("text", "xml", "json", "yaml") {
			fo.AddEnd(p.keyword())
		}
		return fo
	case p.at("serialize"):
		so := cst.NewBranch("explain_serializable_option")
		so.Add(p.keyword())
		if p.atAny("none", "text", "binary") {
			so.AddEnd(p.keyword())
		}
		return so
	}
	return nil
}

func (p *Parser) atBooleanOnOff() bool {
	tok := p.cur()
	return p.atAny("true", "false", "on", "off") ||
		(tok.Type == token.INTEGER && (tok.Literal == "0" || tok.Literal == "1"))
}

func (p *Parser) parseBooleanOnOff() *cst.Node {
	if p.check(token.INTEGER) {
		return p.punct()
	}
	return p.keyword()
}
