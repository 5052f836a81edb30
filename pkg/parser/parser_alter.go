package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// ALTER statements.

// parseAlter appends an ALTER statement to n.
func (p *Parser) parseAlter(n *cst.Node) bool {
	var a *cst.Node
	switch next := p.peekAt(1); next.Keyword {
	case "table":
		a = p.parseAlterTable()
	case "view":
		a = p.parseAlterView()
	case "schema":
		a = p.parseAlterSchema()
	case "type":
		a = p.parseAlterType()
	case "index":
		a = p.parseAlterIndex()
	case "database":
		a = p.parseAlterDatabase()
	case "role", "group", "user":
		a = p.parseAlterRole()
	case "sequence":
		a = p.parseAlterSequence()
	case "policy":
		a = p.parseAlterPolicy()
	default:
		return false
	}
	n.Add(a)
	return true
}

// ---------- Shared Actions ----------

// parseRenameObject parses RENAME TO name.
func (p *Parser) parseRenameObject() *cst.Node {
	ro := cst.NewBranch("rename_object")
	ro.Add(p.keyword())
	if p.optKeyword(ro, "to") {
		p.optIdent(ro, "any_identifier", "")
	}
	return ro
}

// parseRenameColumn parses RENAME [COLUMN] col TO new_name.
func (p *Parser) parseRenameColumn() *cst.Node {
	rc := cst.NewBranch("rename_column")
	rc.Add(p.keyword())
	p.optKeyword(rc, "column")
	if !p.optIdent(rc, "column_identifier", "") || !p.optKeyword(rc, "to") {
		return rc
	}
	p.optIdent(rc, "any_identifier", "new_name")
	return rc
}

// parseRename picks between RENAME TO and RENAME [COLUMN] ... TO.
func (p *Parser) parseRename() *cst.Node {
	if p.peekAt(1).IsKeyword("to") {
		return p.parseRenameObject()
	}
	return p.parseRenameColumn()
}

// parseSetSchema parses SET SCHEMA name.
func (p *Parser) parseSetSchema() *cst.Node {
	ss := cst.NewBranch("set_schema")
	ss.Add(p.keyword(), p.keyword())
	p.optIdent(ss, "schema_identifier", "")
	return ss
}

// parseChangeOwnership parses OWNER TO role.
func (p *Parser) parseChangeOwnership() *cst.Node {
	co := cst.NewBranch("change_ownership")
	co.Add(p.keyword())
	if p.optKeyword(co, "to") {
		if rs := p.parseRoleSpecification(); rs != nil {
			co.Add(rs)
		}
	}
	return co
}

// parseCommonAlterAction parses RENAME, SET SCHEMA and OWNER TO, returning
// nil for anything else.
func (p *Parser) parseCommonAlterAction() *cst.Node {
	switch {
	case p.at("rename"):
		return p.parseRename()
	case p.atSeq("set", "schema"):
		return p.parseSetSchema()
	case p.at("owner"):
		return p.parseChangeOwnership()
	}
	return nil
}

func (p *Parser) optDropBehavior(n *cst.Node) bool {
	if p.atAny("cascade", "restrict") {
		n.Add(p.keyword())
		return true
	}
	return false
}

// ---------- ALTER TABLE ----------

// parseAlterTable parses ALTER TABLE [IF EXISTS] [ONLY] table action, ...
func (p *Parser) parseAlterTable() *cst.Node {
	at := cst.NewBranch("alter_table")
	at.Add(p.keyword(), p.keyword())
	p.optIfExists(at)
	p.optKeyword(at, "only")
	if !p.optReference(at, RefTable, "") {
		return at
	}
	first := true
	for {
		spec := p.parseAlterTableAction()
		if spec == nil {
			if !first {
				at.Add(p.missing("keyword_add", true))
			}
			return at
		}
		first = false
		at.Add(spec)
		if spec.HasError() || !p.optPunct(at, token.COMMA) {
			return at
		}
	}
}

// parseAlterTableAction parses one ALTER TABLE action.
func (p *Parser) parseAlterTableAction() *cst.Node {
	if n := p.parseCommonAlterAction(); n != nil {
		return n
	}
	switch {
	case p.at("add"):
		switch next := p.peekAt(1); next.Keyword {
		case "constraint", "primary", "unique", "foreign", "check":
			return p.parseAddConstraint()
		}
		return p.parseAddColumn()
	case p.atSeq("drop", "constraint"):
		dc := cst.NewBranch("drop_constraint")
		dc.Add(p.keyword(), p.keyword())
		p.optIfExists(dc)
		if p.optIdent(dc, "any_identifier", "") {
			p.optDropBehavior(dc)
		}
		return dc
	case p.at("drop"):
		dc := cst.NewBranch("drop_column")
		dc.Add(p.keyword())
		p.optKeyword(dc, "column")
		p.optIfExists(dc)
		p.expectIdent(dc, "column_identifier", "")
		return dc
	case p.at("alter"):
		return p.parseAlterColumn()
	case p.atIdent():
		return p.parseAddColumn()
	}
	return nil
}

// parseAddColumn parses [ADD] [COLUMN] [IF NOT EXISTS] definition
// [FIRST | AFTER col].
func (p *Parser) parseAddColumn() *cst.Node {
	ac := cst.NewBranch("add_column")
	p.optKeyword(ac, "add")
	p.optKeyword(ac, "column")
	p.optIfNotExists(ac)
	if !p.atIdent() {
		ac.Add(p.missing("column_definition", true))
		return ac
	}
	ac.Add(p.parseColumnDefinition())
	switch {
	case p.at("first"):
		pos := cst.NewBranch("column_position")
		pos.Add(p.keyword())
		ac.Add(pos)
	case p.at("after"):
		pos := cst.NewBranch("column_position")
		pos.Add(p.keyword())
		p.expectIdent(pos, "column_identifier", "")
		ac.Add(pos)
	}
	return ac
}

// parseAddConstraint parses ADD [CONSTRAINT name] constraint.
func (p *Parser) parseAddConstraint() *cst.Node {
	ac := cst.NewBranch("add_constraint")
	ac.Add(p.keyword())
	if p.at("constraint") {
		ac.Add(p.keyword())
		if !p.optIdent(ac, "any_identifier", "") {
			return ac
		}
	}
	if p.atTableConstraint() {
		ac.Add(p.parseConstraint())
	}
	return ac
}

// parseAlterColumn parses ALTER [COLUMN] col followed by one change.
func (p *Parser) parseAlterColumn() *cst.Node {
	ac := cst.NewBranch("alter_column")
	ac.Add(p.keyword())
	p.optKeyword(ac, "column")
	if !p.optIdent(ac, "column_identifier", "") {
		return ac
	}
	switch {
	case p.atSeq("set", "not", "null"), p.atSeq("drop", "not", "null"):
		ac.Add(p.keyword(), p.keyword(), p.keyword())
	case p.atSeq("drop", "default"):
		ac.Add(p.keyword(), p.keyword())
	case p.atSeq("set", "data", "type"), p.at("type"):
		if p.at("set") {
			ac.Add(p.keyword(), p.keyword())
		}
		ac.Add(p.keyword())
		if typ := p.parseType(); typ != nil {
			ac.AddField("type", typ)
		} else {
			ac.AddField("type", p.missing("type", true))
		}
	case p.at("set"):
		ac.Add(p.keyword())
		p.parseAlterColumnSet(ac)
	}
	return ac
}

// parseAlterColumnSet parses what follows ALTER COLUMN col SET.
func (p *Parser) parseAlterColumnSet(ac *cst.Node) {
	switch {
	case p.at("statistics"):
		ac.Add(p.keyword())
		if p.check(token.INTEGER) {
			ac.AddField("statistics", p.leaf("literal", true))
		} else {
			ac.AddField("statistics", p.missing("literal", true))
		}
	case p.at("storage"):
		ac.Add(p.keyword())
		if p.atAny("plain", "external", "extended", "main", "default") {
			ac.Add(p.keyword())
		} else {
			ac.Add(p.missing("keyword_plain", true))
		}
	case p.at("compression"):
		ac.Add(p.keyword())
		if isWordToken(p.cur()) {
			ac.AddField("compression_method", p.ident("identifier"))
		} else {
			ac.AddField("compression_method", p.missing("identifier", true))
		}
	case p.at("default"):
		ac.Add(p.keyword())
		p.expectExpr(ac)
	case p.check(token.LPAREN):
		ac.Add(p.punct())
		p.parseCommaList(ac, true, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			kv := cst.NewBranch("key_value_pair")
			kv.AddField("key", p.ident("any_identifier"))
			if !p.atOp("=") {
				kv.Add(p.missing("=", false))
				return kv
			}
			kv.Add(p.punct())
			p.parseLiteralString(kv, "value")
			return kv
		}, "key_value_pair")
		p.expectPunct(ac, token.RPAREN, cst.FieldEnd)
	default:
		ac.Add(p.missing("keyword_default", true))
	}
}

// ---------- ALTER VIEW, SCHEMA, TYPE ----------

// parseAlterView parses ALTER VIEW [IF EXISTS] name (rename | set schema |
// owner to).
func (p *Parser) parseAlterView() *cst.Node {
	av := cst.NewBranch("alter_view")
	av.Add(p.keyword(), p.keyword())
	p.optIfExists(av)
	if !p.expectReference(av, RefObject, "") {
		return av
	}
	p.expectAlterAction(av, p.parseCommonAlterAction())
	return av
}

// expectAlterAction appends action, or a missing node when it is nil.
func (p *Parser) expectAlterAction(n, action *cst.Node) bool {
	if action == nil {
		n.Add(p.missing("keyword_rename", true))
		return false
	}
	n.Add(action)
	return true
}

// parseAlterSchema parses ALTER SCHEMA name (RENAME | OWNER) TO name.
func (p *Parser) parseAlterSchema() *cst.Node {
	as := cst.NewBranch("alter_schema")
	as.Add(p.keyword(), p.keyword())
	if !p.expectIdent(as, "schema_identifier", "") {
		return as
	}
	if !p.atAny("rename", "owner") {
		as.Add(p.missing("keyword_rename", true))
		return as
	}
	as.Add(p.keyword())
	if p.expectKeyword(as, "to") {
		p.expectIdent(as, "any_identifier", "")
	}
	return as
}

// parseAlterType parses the ALTER TYPE actions: ownership, schema, renames
// of the type, its attributes and enum values, ADD VALUE and attribute
// changes.
func (p *Parser) parseAlterType() *cst.Node {
	at := cst.NewBranch("alter_type")
	at.Add(p.keyword(), p.keyword())
	if !p.expectIdent(at, "type_identifier", "") {
		return at
	}
	switch {
	case p.atSeq("rename", "attribute"):
		at.Add(p.keyword(), p.keyword())
		if p.expectIdent(at, "any_identifier", "") && p.expectKeyword(at, "to") &&
			p.expectIdent(at, "any_identifier", "") {
			p.optDropBehavior(at)
		}
	case p.atSeq("rename", "value"):
		at.Add(p.keyword(), p.keyword())
		if p.parseLiteralString(at, "") && p.expectKeyword(at, "to") {
			p.parseLiteralString(at, "")
		}
	case p.atSeq("add", "value"):
		at.Add(p.keyword(), p.keyword())
		p.optIfNotExists(at)
		if p.parseLiteralString(at, "") && p.atAny("before", "after") {
			at.Add(p.keyword())
			p.parseLiteralString(at, "")
		}
	case p.atSeq("add", "attribute"):
		at.Add(p.keyword(), p.keyword())
		if p.expectIdent(at, "any_identifier", "") && p.expectTypeNode(at) {
			p.parseAttributeTail(at)
		}
	case p.atSeq("drop", "attribute"):
		at.Add(p.keyword(), p.keyword())
		p.optIfExists(at)
		if p.expectIdent(at, "any_identifier", "") {
			p.parseAttributeTail(at)
		}
	case p.atSeq("alter", "attribute"):
		at.Add(p.keyword(), p.keyword())
		if !p.expectIdent(at, "any_identifier", "") {
			return at
		}
		p.optKeywords(at, "set", "data")
		if p.expectKeyword(at, "type") && p.expectTypeNode(at) {
			p.parseAttributeTail(at)
		}
	default:
		p.expectAlterAction(at, p.parseCommonAlterAction())
	}
	return at
}

func (p *Parser) expectTypeNode(n *cst.Node) bool {
	if typ := p.parseType(); typ != nil {
		n.Add(typ)
		return true
	}
	n.Add(p.missing("type", true))
	return false
}

// parseAttributeTail parses [COLLATE name] [CASCADE | RESTRICT].
func (p *Parser) parseAttributeTail(n *cst.Node) {
	if p.optKeyword(n, "collate") && !p.expectIdent(n, "any_identifier", "") {
		return
	}
	p.optDropBehavior(n)
}

// ---------- ALTER INDEX, DATABASE, ROLE ----------

// parseAlterIndex parses ALTER INDEX [IF EXISTS] name followed by RENAME,
// ALTER [COLUMN] n SET STATISTICS n, RESET (...) or SET ....
func (p *Parser) parseAlterIndex() *cst.Node {
	ai := cst.NewBranch("alter_index")
	ai.Add(p.keyword(), p.keyword())
	p.optIfExists(ai)
	if !p.expectIdent(ai, "any_identifier", "") {
		return ai
	}
	switch {
	case p.at("rename"):
		ai.Add(p.parseRenameObject())
	case p.at("alter"):
		ai.Add(p.keyword())
		p.optKeyword(ai, "column")
		if !p.expectIntegerLiteral(ai) || !p.expectKeyword(ai, "set") || !p.expectKeyword(ai, "statistics") {
			return ai
		}
		p.expectIntegerLiteral(ai)
	case p.at("reset"):
		ai.Add(p.keyword())
		if !p.check(token.LPAREN) {
			ai.Add(p.missing("(", false))
			return ai
		}
		p.parseIdentList(ai, "any_identifier", false)
	case p.at("set"):
		ai.Add(p.keyword())
		switch {
		case p.at("tablespace"):
			ai.Add(p.keyword())
			p.expectIdent(ai, "any_identifier", "")
		case p.check(token.LPAREN):
			ai.Add(p.punct())
			p.parseCommaList(ai, false, func() *cst.Node {
				if !p.atIdent() {
					return nil
				}
				kv := cst.NewBranch("key_value_pair")
				kv.Add(p.ident("any_identifier"))
				if !p.atOp("=") {
					kv.Add(p.missing("=", false))
					return kv
				}
				kv.Add(p.punct())
				if e := p.parseExpr(); e != nil {
					kv.AddField("value", e)
				} else {
					kv.AddField("value", p.missing("literal", true))
				}
				return kv
			}, "key_value_pair")
			p.expectPunct(ai, token.RPAREN, cst.FieldEnd)
		default:
			ai.Add(p.missing("keyword_tablespace", true))
		}
	default:
		ai.Add(p.missing("keyword_rename", true))
	}
	return ai
}

func (p *Parser) expectIntegerLiteral(n *cst.Node) bool {
	if p.check(token.INTEGER) {
		n.Add(p.leaf("literal", true))
		return true
	}
	n.Add(p.missing("literal", true))
	return false
}

// parseAlterDatabase parses ALTER DATABASE name [WITH] (RENAME | OWNER TO |
// RESET ... | SET ...).
func (p *Parser) parseAlterDatabase() *cst.Node {
	ad := cst.NewBranch("alter_database")
	ad.Add(p.keyword(), p.keyword())
	if !p.expectIdent(ad, "any_identifier", "") {
		return ad
	}
	p.optKeyword(ad, "with")
	switch {
	case p.at("rename"):
		ad.Add(p.parseRenameObject())
	case p.at("owner"):
		ad.Add(p.parseChangeOwnership())
	case p.at("reset"):
		p.parseResetTarget(ad, "configuration_parameter")
	case p.at("set"):
		ad.Add(p.keyword())
		if p.at("tablespace") {
			ad.Add(p.keyword())
			p.expectIdent(ad, "any_identifier", "")
		} else {
			ad.Add(p.parseSetConfiguration())
		}
	default:
		ad.Add(p.missing("keyword_rename", true))
	}
	return ad
}

// parseResetTarget appends RESET (ALL | name).
func (p *Parser) parseResetTarget(n *cst.Node, field string) {
	n.Add(p.keyword())
	if p.at("all") {
		n.Add(p.keyword())
		return
	}
	p.expectIdent(n, "any_identifier", field)
}

// parseSetConfiguration parses name (FROM CURRENT | (TO | =) value).
func (p *Parser) parseSetConfiguration() *cst.Node {
	sc := cst.NewBranch("set_configuration")
	if !isWordToken(p.cur()) {
		sc.AddField("option", p.missing("any_identifier", true))
		return sc
	}
	sc.AddField("option", p.ident("any_identifier"))
	switch {
	case p.atSeq("from", "current"):
		sc.Add(p.keyword(), p.keyword())
	case p.at("to"), p.atOp("="):
		if p.at("to") {
			sc.Add(p.keyword())
		} else {
			sc.Add(p.punct())
		}
		switch {
		case p.at("default"):
			sc.Add(p.keyword())
		case p.atIdent():
			sc.AddField("parameter", p.ident("any_identifier"))
		default:
			if lit := p.parseLiteralValue(); lit != nil {
				sc.Add(lit)
			} else {
				sc.Add(p.missing("literal", true))
			}
		}
	default:
		sc.Add(p.missing("keyword_to", true))
	}
	return sc
}

// parseLiteralValue parses a literal: a number, a string, a signed number,
// or TRUE/FALSE/NULL.
func (p *Parser) parseLiteralValue() *cst.Node {
	switch tok := p.cur(); {
	case tok.Type == token.INTEGER, tok.Type == token.DECIMAL, tok.Type == token.STRING,
		tok.Type == token.ESCAPE_STRING, tok.Type == token.BIT_STRING:
		return p.leaf("literal", true)
	case tok.IsKeyword("true"), tok.IsKeyword("false"), tok.IsKeyword("null"):
		lit := cst.NewBranch("literal")
		lit.Add(p.keyword())
		return lit
	case tok.Type == token.DOLLAR_TAG_START:
		return p.parseDollarLiteral()
	case (tok.IsOp("-") || tok.IsOp("+")) && p.signedNumberAhead():
		return p.parsePrefix()
	}
	return nil
}

// parseAlterRole parses ALTER ROLE|GROUP|USER (name | ALL) followed by a
// rename, role options, or [IN DATABASE db] SET/RESET.
func (p *Parser) parseAlterRole() *cst.Node {
	ar := cst.NewBranch("alter_role")
	ar.Add(p.keyword(), p.keyword())
	switch {
	case p.at("all"):
		ar.Add(p.keyword())
	case !p.expectIdent(ar, "role_identifier", ""):
		return ar
	}
	switch {
	case p.at("rename"):
		ar.Add(p.parseRenameObject())
		return ar
	case p.atSeq("in", "database"):
		ar.Add(p.keyword(), p.keyword())
		if !p.expectIdent(ar, "any_identifier", "") {
			return ar
		}
	}
	switch {
	case p.at("set"):
		ar.Add(p.keyword())
		ar.Add(p.parseSetConfiguration())
	case p.at("reset"):
		p.parseResetTarget(ar, "option")
	default:
		p.optKeyword(ar, "with")
		for p.parseRoleOption(ar) {
		}
	}
	return ar
}

// ---------- ALTER SEQUENCE, POLICY ----------

// parseAlterSequence parses ALTER SEQUENCE [IF EXISTS] name followed by
// sequence options, a rename, OWNER TO, SET LOGGED/UNLOGGED or SET SCHEMA.
func (p *Parser) parseAlterSequence() *cst.Node {
	as := cst.NewBranch("alter_sequence")
	as.Add(p.keyword(), p.keyword())
	p.optIfExists(as)
	if !p.expectReference(as, RefObject, "") {
		return as
	}
	switch {
	case p.atSeq("set", "logged"), p.atSeq("set", "unlogged"):
		as.Add(p.keyword(), p.keyword())
	case p.at("rename"), p.atSeq("set", "schema"), p.at("owner"):
		as.Add(p.parseCommonAlterAction())
	default:
		count := 0
		for p.parseSequenceOption(as) {
			count++
		}
		if count == 0 {
			as.Add(p.missing("keyword_rename", true))
		}
	}
	return as
}

// parseAlterPolicy parses ALTER POLICY name [ON table (RENAME TO name |
// TO roles | USING/WITH CHECK)].
func (p *Parser) parseAlterPolicy() *cst.Node {
	ap := cst.NewBranch("alter_policy")
	ap.Add(p.keyword(), p.keyword())
	if !p.expectIdent(ap, "policy_identifier", "") {
		return ap
	}
	if !p.optKeyword(ap, "on") {
		return ap
	}
	if !p.expectReference(ap, RefTable, "") {
		return ap
	}
	switch {
	case p.at("rename"):
		ap.Add(p.keyword())
		if p.expectKeyword(ap, "to") {
			p.expectIdent(ap, "any_identifier", "")
		}
	case p.at("to"):
		ap.Add(p.parsePolicyToRole())
	case p.atCheckOrUsing():
		ap.Add(p.parseCheckOrUsing())
	}
	return ap
}
