package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// CREATE statements. The object kind is known after at most a few modifier
// keywords (OR REPLACE, TEMP, UNIQUE, ...), so dispatch peeks past them.

// createModifiers lists, per object keyword, the words allowed between
// CREATE and it.
var createModifiers = map[string]map[string]bool{
	"table":    {"temp": true, "temporary": true, "unlogged": true, "external": true},
	"view":     {"or": true, "replace": true, "temp": true, "temporary": true, "recursive": true},
	"index":    {"unique": true},
	"function": {"or": true, "replace": true},
	"sequence": {"temp": true, "temporary": true, "unlogged": true},
	"trigger":  {"or": true, "replace": true, "constraint": true},
}

// anyCreateModifier is the union of createModifiers.
var anyCreateModifier = func() map[string]bool {
	all := make(map[string]bool)
	for _, mods := range createModifiers {
		for m := range mods {
			all[m] = true
		}
	}
	return all
}()

// createKind returns the object keyword following CREATE, or "" when a
// modifier is present that the object does not take.
func (p *Parser) createKind() string {
	k := 1
	for anyCreateModifier[p.peekAt(k).Keyword] {
		k++
	}
	kind := p.peekAt(k).Keyword
	for i := 1; i < k; i++ {
		if !createModifiers[kind][p.peekAt(i).Keyword] {
			return ""
		}
	}
	return kind
}

// parseCreate appends a CREATE statement to n. CREATE SCHEMA may be followed
// by further CREATE statements that belong to the same statement.
func (p *Parser) parseCreate(n *cst.Node) bool {
	var c *cst.Node
	switch p.createKind() {
	case "table":
		c = p.parseCreateTable()
	case "view":
		c = p.parseCreateView()
	case "materialized":
		c = p.parseCreateMaterializedView()
	case "index":
		c = p.parseCreateIndex()
	case "function":
		c = p.parseCreateFunction()
	case "type":
		c = p.parseCreateType()
	case "database":
		c = p.parseCreateDatabase()
	case "user", "role", "group":
		c = p.parseCreateRole()
	case "sequence":
		c = p.parseCreateSequence()
	case "extension":
		c = p.parseCreateExtension()
	case "trigger":
		c = p.parseCreateTrigger()
	case "policy":
		c = p.parseCreatePolicy()
	case "schema":
		n.Add(p.parseCreateSchema())
		for p.at("create") && !p.atEnd() {
			if !p.parseCreate(n) {
				break
			}
		}
		return true
	default:
		return false
	}
	n.Add(c)
	return true
}

// ---------- Shared Pieces ----------

func (p *Parser) optIfNotExists(n *cst.Node) bool {
	return p.optKeywords(n, "if", "not", "exists")
}

func (p *Parser) optIfExists(n *cst.Node) bool {
	return p.optKeywords(n, "if", "exists")
}

func (p *Parser) optOrReplace(n *cst.Node) bool {
	return p.optKeywords(n, "or", "replace")
}

func (p *Parser) optTemporary(n *cst.Node) bool {
	if p.atAny("temp", "temporary") {
		n.Add(p.keyword())
		return true
	}
	return false
}

// skipUntil appends every token up to keyword kw, or the end of the
// statement, as anonymous leaves.
func (p *Parser) skipUntil(n *cst.Node, kw string) {
	for !p.at(kw) && !p.atEnd() {
		n.Add(p.punct())
	}
}

// parseIdentList parses "(" name, ... ")" into n.
func (p *Parser) parseIdentList(n *cst.Node, kind string, requireFirst bool) {
	n.Add(p.punct())
	p.parseCommaList(n, requireFirst, func() *cst.Node {
		if !p.atIdent() {
			return nil
		}
		return p.ident(kind)
	}, kind)
	p.expectPunct(n, token.RPAREN, cst.FieldEnd)
}

// parseLiteralString consumes a string token as a literal leaf.
func (p *Parser) parseLiteralString(n *cst.Node, field string) bool {
	if !p.check(token.STRING) {
		n.AddField(field, p.missing("literal", true))
		return false
	}
	n.AddField(field, p.leaf("literal", true))
	return true
}

// parseRoleSpecification parses [GROUP] role | PUBLIC | CURRENT_ROLE |
// CURRENT_USER | SESSION_USER.
func (p *Parser) parseRoleSpecification() *cst.Node {
	rs := cst.NewBranch("role_specification")
	switch {
	case p.atAny("public", "current_role", "current_user", "session_user"):
		rs.Add(p.keyword())
	case p.at("group"):
		rs.Add(p.keyword())
		p.expectIdent(rs, "role_identifier", "")
	case p.atIdent():
		rs.Add(p.ident("role_identifier"))
	default:
		return nil
	}
	return rs
}

// ---------- CREATE TABLE ----------

// parseCreateTable parses
//
//	CREATE [TEMP | UNLOGGED | EXTERNAL] TABLE [IF NOT EXISTS] name
//	  ( (columns) settings [AS query] | settings AS query | PARTITION OF ... )
func (p *Parser) parseCreateTable() *cst.Node {
	ct := cst.NewBranch("create_table")
	ct.Add(p.keyword())
	if !p.optTemporary(ct) {
		if p.atAny("unlogged", "external") {
			ct.Add(p.keyword())
		}
	}
	if !p.optKeyword(ct, "table") {
		return ct
	}
	p.optIfNotExists(ct)
	if !p.optReference(ct, RefObject, "") {
		return ct
	}

	switch {
	case p.check(token.LPAREN):
		ct.AddEnd(p.parseColumnDefinitions())
		p.parseTableSettings(ct)
		if p.optKeyword(ct, "as") {
			p.parseSelectOperand(ct)
		}
	case p.atSeq("partition", "of"):
		ct.AddEnd(p.parsePartitionOf())
		p.parseTableSettings(ct)
	default:
		p.parseTableSettings(ct)
		if p.optKeyword(ct, "as") {
			cq := cst.NewBranch("create_query")
			if p.parseDmlRead(cq) {
				ct.AddEnd(cq)
			} else {
				ct.Add(p.missing("create_query", true))
			}
		}
	}
	return ct
}

// parseTableSettings appends PARTITION BY, WITHOUT OIDS, WITH (...) and
// table options in any order.
func (p *Parser) parseTableSettings(n *cst.Node) {
	for {
		switch {
		case p.atSeq("partition", "by"):
			n.Add(p.parseTablePartition())
		case p.atSeq("without", "oids"):
			n.Add(p.keyword(), p.keyword())
		case p.at("with") && p.checkAt(1, token.LPAREN):
			n.Add(p.parseStorageParameters())
		default:
			opt := p.parseTableOption()
			if opt == nil {
				return
			}
			n.Add(opt)
		}
	}
}

// parseTablePartition parses PARTITION BY RANGE|HASH|LIST (cols).
func (p *Parser) parseTablePartition() *cst.Node {
	tp := cst.NewBranch("table_partition")
	tp.Add(p.keyword(), p.keyword())
	if !p.atAny("range", "hash", "list") {
		return tp
	}
	tp.Add(p.keyword())
	if p.check(token.LPAREN) {
		p.parseIdentList(tp, "any_identifier", false)
	}
	return tp
}

// parsePartitionOf parses PARTITION OF parent [(cols)] bound.
func (p *Parser) parsePartitionOf() *cst.Node {
	po := cst.NewBranch("partition_of")
	po.Add(p.keyword(), p.keyword())
	if !p.optReference(po, RefTable, "") {
		return po
	}
	if p.check(token.LPAREN) {
		po.Add(p.parseColumnDefinitions())
	}
	if b := p.parsePartitionBound(); b != nil {
		po.AddEnd(b)
	}
	return po
}

// parsePartitionBound parses DEFAULT, FOR VALUES IN (...) and
// FOR VALUES FROM (...) TO (...).
func (p *Parser) parsePartitionBound() *cst.Node {
	pb := cst.NewBranch("partition_bound")
	switch {
	case p.at("default"):
		pb.Add(p.keyword())
		return pb
	case p.at("for"):
		pb.Add(p.keyword())
	default:
		return nil
	}
	if !p.optKeyword(pb, "values") {
		return pb
	}
	switch {
	case p.at("in"):
		pb.Add(p.keyword())
		if p.check(token.LPAREN) {
			pb.Add(p.parseList())
		}
	case p.at("from"):
		pb.Add(p.keyword())
		if !p.check(token.LPAREN) {
			return pb
		}
		pb.Add(p.parseList())
		if p.optKeyword(pb, "to") && p.check(token.LPAREN) {
			pb.Add(p.parseList())
		}
	}
	return pb
}

// parseStorageParameters parses WITH (name [= value], ...).
func (p *Parser) parseStorageParameters() *cst.Node {
	sp := cst.NewBranch("storage_parameters")
	sp.Add(p.keyword(), p.punct())
	for {
		if !isWordToken(p.cur()) {
			sp.Add(p.missing("any_identifier", true))
			return sp
		}
		sp.Add(p.ident("any_identifier"))
		if p.atOp("=") {
			sp.Add(p.punct())
			if !p.expectExpr(sp) {
				return sp
			}
		}
		if !p.optPunct(sp, token.COMMA) {
			break
		}
	}
	p.expectPunct(sp, token.RPAREN, cst.FieldEnd)
	return sp
}

// parseTableOption parses DEFAULT CHARACTER SET x, COLLATE x, DEFAULT and
// name = value.
func (p *Parser) parseTableOption() *cst.Node {
	to := cst.NewBranch("table_option")
	switch {
	case p.atSeq("default", "char", "set"):
		to.Add(p.keyword(), p.keyword(), p.keyword())
		p.expectIdent(to, "any_identifier", "")
	case p.at("collate"):
		to.Add(p.keyword())
		p.expectIdent(to, "any_identifier", "")
	case p.at("default"):
		to.AddField("name", p.keyword())
	case (p.atIdent() || p.check(token.STRING)) && p.peekAt(1).IsOp("="):
		if p.check(token.STRING) {
			to.AddField("name", p.leaf("string", false))
		} else {
			to.AddField("name", p.ident("any_identifier"))
		}
		to.Add(p.punct())
		switch {
		case p.check(token.STRING):
			to.AddField("value", p.leaf("string", false))
		case p.atIdent():
			to.AddField("value", p.ident("any_identifier"))
		default:
			to.AddField("value", p.missing("any_identifier", true))
		}
	default:
		return nil
	}
	return to
}

// ---------- Column Definitions and Constraints ----------

// parseColumnDefinitions parses ( column_definition, ... [, constraint, ...] ).
// Postgres allows the two to interleave, so this does too.
func (p *Parser) parseColumnDefinitions() *cst.Node {
	cd := cst.NewBranch("column_definitions")
	cd.Add(p.punct())
	if p.check(token.RPAREN) {
		cd.AddEnd(p.punct())
		return cd
	}
	first := true
	for {
		var el *cst.Node
		switch {
		case p.atTableConstraint():
			el = p.parseConstraint()
		case p.atIdent():
			el = p.parseColumnDefinition()
		}
		if el == nil {
			if !first {
				cd.Add(p.missing("column_definition", true))
			}
			return cd
		}
		first = false
		cd.Add(el)
		if el.HasError() || !p.check(token.COMMA) {
			break
		}
		cd.Add(p.punct())
	}
	if p.check(token.RPAREN) {
		cd.AddEnd(p.punct())
	}
	return cd
}

// atTableConstraint reports whether a table constraint starts here. KEY and
// INDEX are ordinary column names unless a column list follows.
func (p *Parser) atTableConstraint() bool {
	if p.atAny("constraint", "primary", "unique", "foreign", "check") {
		return true
	}
	if !p.atAny("key", "index") {
		return false
	}
	next := p.peekAt(1)
	if next.Type == token.LPAREN {
		return true
	}
	return next.Type == token.IDENT && next.Keyword == "" && p.checkAt(2, token.LPAREN)
}

// parseColumnDefinition parses name type constraint...
func (p *Parser) parseColumnDefinition() *cst.Node {
	col := cst.NewBranch("column_definition")
	col.Add(p.ident("any_identifier"))
	typ := p.parseType()
	if typ == nil {
		return col
	}
	col.AddEnd(typ)
	for p.parseColumnConstraint(col) {
	}
	return col
}

// parseColumnConstraint appends one column constraint to col.
func (p *Parser) parseColumnConstraint(col *cst.Node) bool {
	switch {
	case p.at("null"):
		col.Add(p.keyword())
	case p.atSeq("not", "null"):
		col.Add(p.keyword(), p.keyword())
	case p.at("references"):
		p.parseReferencesClause(col)
	case p.at("default"):
		p.parseDefaultExpression(col)
	case p.atSeq("primary", "key"):
		col.Add(p.keyword(), p.keyword())
	case p.atAny("asc", "desc"):
		dir := cst.NewBranch("direction")
		dir.AddEnd(p.keyword())
		col.Add(dir)
	case p.at("comment"):
		col.Add(p.keyword())
		p.parseLiteralString(col, "")
	case p.at("check"):
		p.parseCheckConstraint(col)
	case p.at("constraint"):
		col.Add(p.keyword())
		switch {
		case p.check(token.STRING):
			col.Add(p.leaf("literal", true))
		case p.atIdent():
			col.Add(p.ident("any_identifier"))
		default:
			col.Add(p.missing("any_identifier", true))
			return false
		}
	case p.atSeq("generated", "always"):
		col.Add(p.keyword(), p.keyword())
		if !p.expectKeyword(col, "as") {
			return false
		}
		return p.expectExpr(col)
	case p.at("as"):
		col.Add(p.keyword())
		return p.expectExpr(col)
	case p.atAny("stored", "unique"):
		col.Add(p.keyword())
	default:
		return false
	}
	return true
}

// parseDefaultExpression appends DEFAULT expr.
func (p *Parser) parseDefaultExpression(n *cst.Node) {
	n.Add(p.keyword())
	if p.at("current_timestamp") {
		n.Add(p.keyword())
		return
	}
	p.expectExpr(n)
}

// parseCheckConstraint appends CHECK (expr).
func (p *Parser) parseCheckConstraint(n *cst.Node) bool {
	n.Add(p.keyword())
	if !p.check(token.LPAREN) {
		n.Add(p.missing("(", false))
		return false
	}
	n.Add(p.punct())
	if !p.expectExpr(n) {
		return false
	}
	return p.expectPunct(n, token.RPAREN, cst.FieldEnd)
}

// parseReferencesClause appends REFERENCES table (cols) [ON DELETE|UPDATE
// action]...
func (p *Parser) parseReferencesClause(n *cst.Node) bool {
	n.Add(p.keyword())
	if !p.expectReference(n, RefTable, "") {
		return false
	}
	if p.check(token.LPAREN) {
		p.parseIdentList(n, "column_identifier", true)
	}
	for p.at("on") && (p.peekAt(1).IsKeyword("delete") || p.peekAt(1).IsKeyword("update")) {
		n.Add(p.keyword(), p.keyword())
		switch {
		case p.atSeq("no", "action"):
			n.Add(p.keyword(), p.keyword())
		case p.atAny("restrict", "cascade"):
			n.Add(p.keyword())
		case p.at("set"):
			n.Add(p.keyword())
			if !p.atAny("null", "default") {
				n.Add(p.missing("keyword_null", true))
				return false
			}
			n.Add(p.keyword())
			if p.check(token.LPAREN) {
				p.parseIdentList(n, "any_identifier", true)
			}
		default:
			n.Add(p.missing("keyword_cascade", true))
			return false
		}
	}
	return true
}

// parseConstraint parses a table constraint.
func (p *Parser) parseConstraint() *cst.Node {
	c := cst.NewBranch("constraint")
	if p.at("constraint") {
		c.Add(p.keyword())
		if !p.expectIdent(c, "any_identifier", "name") {
			return c
		}
	}
	switch {
	case p.atSeq("primary", "key"):
		c.Add(p.keyword(), p.keyword())
		p.expectOrderedColumns(c)
	case p.at("check"):
		p.parseCheckConstraint(c)
	case p.at("unique"):
		c.Add(p.keyword())
		switch {
		case p.atAny("index", "key"):
			c.Add(p.keyword())
		case p.at("nulls"):
			c.Add(p.keyword())
			p.optKeyword(c, "not")
			if !p.expectKeyword(c, "distinct") {
				return c
			}
		}
		p.parseKeyConstraintRest(c)
	case p.at("foreign"):
		c.Add(p.keyword())
		if !p.expectKeyword(c, "key") {
			return c
		}
		p.optIfNotExists(c)
		p.parseKeyConstraintRest(c)
	case p.atAny("key", "index"):
		c.Add(p.keyword())
		p.parseKeyConstraintRest(c)
	default:
		c.Add(p.missing("keyword_primary", true))
	}
	return c
}

// parseKeyConstraintRest parses [name] (cols) [REFERENCES ...].
func (p *Parser) parseKeyConstraintRest(c *cst.Node) {
	p.optIdent(c, "any_identifier", "name")
	if !p.expectOrderedColumns(c) {
		return
	}
	if p.at("references") {
		p.parseReferencesClause(c)
	}
}

// expectOrderedColumns appends (col [ASC|DESC], ...), or a missing node.
func (p *Parser) expectOrderedColumns(n *cst.Node) bool {
	if !p.check(token.LPAREN) {
		n.Add(p.missing("ordered_columns", true))
		return false
	}
	oc := cst.NewBranch("ordered_columns")
	oc.Add(p.punct())
	p.parseCommaList(oc, true, func() *cst.Node {
		col := cst.NewBranch("column")
		switch {
		case p.atIdent():
			col.AddField("name", p.ident("column_identifier"))
		case p.check(token.STRING):
			col.AddField("name", p.leaf("literal", true))
		default:
			return nil
		}
		if p.atAny("asc", "desc") {
			dir := cst.NewBranch("direction")
			dir.AddEnd(p.keyword())
			col.Add(dir)
		}
		return col
	}, "column")
	ok := p.expectPunct(oc, token.RPAREN, cst.FieldEnd)
	n.Add(oc)
	return ok
}

// ---------- CREATE VIEW ----------

// parseCreateView parses CREATE [OR REPLACE] [TEMP] [RECURSIVE] VIEW name
// [(cols)] ... AS query [WITH [LOCAL | CASCADED] CHECK OPTION].
func (p *Parser) parseCreateView() *cst.Node {
	cv := cst.NewBranch("create_view")
	cv.Add(p.keyword())
	p.optOrReplace(cv)
	p.optTemporary(cv)
	p.optKeyword(cv, "recursive")
	if !p.expectKeyword(cv, "view") || !p.expectReference(cv, RefObject, "") {
		return cv
	}
	if p.check(token.LPAREN) {
		p.parseIdentList(cv, "any_identifier", true)
	}
	if !p.parseViewQuery(cv) {
		return cv
	}
	if p.at("with") {
		cv.Add(p.keyword())
		if p.atAny("local", "cascaded") {
			cv.Add(p.keyword())
		}
		if p.expectKeyword(cv, "check") {
			p.expectKeyword(cv, "option")
		}
	}
	return cv
}

// parseViewQuery skips view options up to AS and appends the query.
func (p *Parser) parseViewQuery(n *cst.Node) bool {
	p.skipUntil(n, "as")
	if !p.expectKeyword(n, "as") {
		return false
	}
	cq := cst.NewBranch("create_query")
	if !p.parseDmlRead(cq) {
		n.Add(p.missing("create_query", true))
		return false
	}
	n.Add(cq)
	return true
}

// parseCreateMaterializedView parses CREATE MATERIALIZED VIEW [IF NOT EXISTS]
// name [(cols)] ... AS query [WITH [NO] DATA].
func (p *Parser) parseCreateMaterializedView() *cst.Node {
	mv := cst.NewBranch("create_materialized_view")
	mv.Add(p.keyword(), p.keyword())
	if !p.expectKeyword(mv, "view") {
		return mv
	}
	p.optIfNotExists(mv)
	if !p.expectReference(mv, RefObject, "") {
		return mv
	}
	if p.check(token.LPAREN) {
		p.parseIdentList(mv, "any_identifier", true)
	}
	if !p.parseViewQuery(mv) {
		return mv
	}
	if p.at("with") {
		mv.Add(p.keyword())
		p.optKeyword(mv, "no")
		p.expectKeyword(mv, "data")
	}
	return mv
}

// ---------- CREATE INDEX ----------

var indexMethods = []string{"btree", "hash", "gist", "spgist", "gin", "brin"}

// parseCreateIndex parses CREATE [UNIQUE] INDEX [CONCURRENTLY] [[IF NOT
// EXISTS] name] ON [ONLY] table [USING method] (fields) [WHERE expr].
func (p *Parser) parseCreateIndex() *cst.Node {
	ci := cst.NewBranch("create_index")
	ci.Add(p.keyword())
	p.optKeyword(ci, "unique")
	if !p.optKeyword(ci, "index") {
		return ci
	}
	p.optKeyword(ci, "concurrently")
	if p.optIfNotExists(ci) {
		if !p.expectIdent(ci, "column_identifier", "column") {
			return ci
		}
	} else if !p.at("on") {
		p.optIdent(ci, "column_identifier", "column")
	}
	if !p.optKeyword(ci, "on") {
		return ci
	}
	p.optKeyword(ci, "only")
	if !p.optReference(ci, RefTable, "") {
		return ci
	}
	if p.at("using") {
		ci.Add(p.keyword())
		if !p.atAny(indexMethods...) {
			ci.Add(p.missing("keyword_btree", true))
			return ci
		}
		ci.Add(p.keyword())
	}
	if !p.check(token.LPAREN) {
		return ci
	}
	ci.AddEnd(p.parseIndexFields())
	if p.at("where") {
		ci.Add(p.parseWhere())
	}
	return ci
}

// parseIndexFields parses ( field, ... ).
func (p *Parser) parseIndexFields() *cst.Node {
	fields := cst.NewBranch("index_fields")
	fields.Add(p.punct())
	p.parseCommaList(fields, false, p.parseIndexField, "field")
	p.expectPunct(fields, token.RPAREN, cst.FieldEnd)
	return fields
}

// parseIndexField parses (expr) | call | column, followed by COLLATE,
// an operator class with parameters, direction and NULLS ordering.
func (p *Parser) parseIndexField() *cst.Node {
	f := cst.NewBranch("field")
	switch {
	case p.check(token.LPAREN):
		paren := cst.NewBranch("parenthesized_expression")
		paren.Add(p.punct())
		if !p.expectExpr(paren) {
			f.AddField("expression", paren)
			return f
		}
		p.expectPunct(paren, token.RPAREN, cst.FieldEnd)
		f.AddField("expression", paren)
	case p.atIdent() && p.checkAt(1, token.LPAREN):
		parts, dots := p.parseDottedName(1)
		f.AddField("function", p.parseInvocation(QualifiedReference(RefFunction, parts, dots)))
	case p.atIdent() && p.checkAt(1, token.DOT):
		parts, dots := p.parseDottedName(MaxParts(RefFunction))
		ref := QualifiedReference(RefFunction, parts, dots)
		if !p.check(token.LPAREN) {
			f.AddField("function", ref)
			return f
		}
		f.AddField("function", p.parseInvocation(ref))
	case p.atIdent():
		f.AddField("column", p.ident("column_identifier"))
	case p.check(token.STRING):
		f.AddField("column", p.leaf("literal", true))
	default:
		return nil
	}
	if p.at("collate") {
		ic := cst.NewBranch("index_collate")
		ic.Add(p.keyword())
		p.optIdent(ic, "any_identifier", cst.FieldEnd)
		f.Add(ic)
	}
	if p.atIdent() && !p.atAny("asc", "desc", "nulls") {
		f.AddField("opclass", p.ident("any_identifier"))
		if p.check(token.LPAREN) {
			params := cst.NewBranch("opclass_parameters")
			params.Add(p.punct())
			p.parseCommaList(params, false, p.parseTerm, "term")
			p.expectPunct(params, token.RPAREN, cst.FieldEnd)
			params.Field = "opclass_parameters"
			f.Add(params)
		}
	}
	if p.atAny("asc", "desc") {
		dir := cst.NewBranch("direction")
		dir.AddEnd(p.keyword())
		f.Add(dir)
	}
	if p.at("nulls") {
		in := cst.NewBranch("index_nulls")
		in.Add(p.keyword())
		if p.atAny("first", "last") {
			in.AddEnd(p.keyword())
		}
		f.Add(in)
	}
	return f
}

// ---------- CREATE TYPE ----------

// parseCreateType parses CREATE TYPE name [AS (cols) [COLLATE x] | AS ENUM
// ('a', ...) | [AS RANGE] (setting, ...)].
func (p *Parser) parseCreateType() *cst.Node {
	ct := cst.NewBranch("create_type")
	ct.Add(p.keyword(), p.keyword())
	if !p.expectReference(ct, RefObject, "") {
		return ct
	}
	switch {
	case p.atSeq("as", "enum"):
		ct.Add(p.keyword(), p.keyword())
		if !p.check(token.LPAREN) {
			ct.Add(p.missing("enum_elements", true))
			return ct
		}
		ct.Add(p.parseEnumElements())
	case p.atSeq("as", "range"):
		ct.Add(p.keyword(), p.keyword())
		if !p.check(token.LPAREN) {
			ct.Add(p.missing("(", false))
			return ct
		}
		p.parseWithSettingsList(ct)
	case p.at("as"):
		ct.Add(p.keyword())
		if !p.check(token.LPAREN) {
			ct.Add(p.missing("column_definitions", true))
			return ct
		}
		ct.Add(p.parseColumnDefinitions())
		if p.at("collate") {
			ct.Add(p.keyword())
			p.expectIdent(ct, "any_identifier", "")
		}
	case p.check(token.LPAREN):
		p.parseWithSettingsList(ct)
	}
	return ct
}

// parseEnumElements parses ('a', 'b', ...).
func (p *Parser) parseEnumElements() *cst.Node {
	ee := cst.NewBranch("enum_elements")
	ee.Add(p.punct())
	p.parseCommaList(ee, false, func() *cst.Node {
		if !p.check(token.STRING) {
			return nil
		}
		el := p.leaf("literal", true)
		el.Field = "enum_element"
		return el
	}, "literal")
	p.expectPunct(ee, token.RPAREN, cst.FieldEnd)
	return ee
}

// parseWithSettingsList parses ( setting, ... ).
func (p *Parser) parseWithSettingsList(n *cst.Node) {
	n.Add(p.punct())
	first := true
	for {
		if !p.parseWithSetting(n) {
			if !first {
				n.Add(p.missing("any_identifier", true))
			}
			break
		}
		first = false
		if !p.optPunct(n, token.COMMA) {
			break
		}
	}
	p.expectPunct(n, token.RPAREN, cst.FieldEnd)
}

// parseWithSetting parses OWNER [=] role | name [=] value, as used by
// CREATE DATABASE and CREATE TYPE.
func (p *Parser) parseWithSetting(n *cst.Node) bool {
	if p.at("owner") {
		n.Add(p.keyword())
		if p.atOp("=") {
			n.Add(p.punct())
		}
		switch {
		case p.at("default"):
			n.Add(p.keyword())
		default:
			p.expectIdent(n, "role_identifier", "")
		}
		return true
	}
	if !isWordToken(p.cur()) || p.atEnd() {
		return false
	}
	n.AddField("name", p.ident("any_identifier"))
	if p.atOp("=") {
		n.Add(p.punct())
	}
	switch {
	case p.check(token.STRING):
		n.AddField("value", p.leaf("literal", true))
	case p.check(token.INTEGER), p.check(token.DECIMAL):
		n.AddField("value", p.leaf("literal", true))
	case isWordToken(p.cur()):
		n.AddField("value", p.ident("any_identifier"))
	default:
		n.AddField("value", p.missing("any_identifier", true))
	}
	return true
}

// ---------- CREATE DATABASE, ROLE, SEQUENCE, EXTENSION ----------

// parseCreateDatabase parses CREATE DATABASE [IF NOT EXISTS] name [WITH]
// setting...
func (p *Parser) parseCreateDatabase() *cst.Node {
	cd := cst.NewBranch("create_database")
	cd.Add(p.keyword(), p.keyword())
	p.optIfNotExists(cd)
	if !p.expectIdent(cd, "any_identifier", "") {
		return cd
	}
	p.optKeyword(cd, "with")
	for !p.atEnd() && p.parseWithSetting(cd) {
	}
	return cd
}

// parseCreateRole parses CREATE USER|ROLE|GROUP name [WITH] option...
func (p *Parser) parseCreateRole() *cst.Node {
	cr := cst.NewBranch("create_role")
	cr.Add(p.keyword(), p.keyword())
	if !p.expectIdent(cr, "any_identifier", "") {
		return cr
	}
	p.optKeyword(cr, "with")
	for p.parseRoleOption(cr) {
	}
	return cr
}

// parseRoleOption appends one role option.
func (p *Parser) parseRoleOption(n *cst.Node) bool {
	switch {
	case p.atSeq("in", "role"), p.at("role"), p.at("admin"):
		if p.at("in") {
			n.Add(p.keyword())
		}
		n.Add(p.keyword())
		p.parseCommaList(n, true, func() *cst.Node {
			if !p.atIdent() {
				return nil
			}
			return p.ident("role_identifier")
		}, "role_identifier")
	case p.atSeq("valid", "until"):
		n.Add(p.keyword(), p.keyword())
		return p.parseLiteralString(n, "valid_until")
	case p.atSeq("connection", "limit"):
		n.Add(p.keyword(), p.keyword())
		if !p.check(token.INTEGER) {
			n.AddField("connection_limit", p.missing("literal", true))
			return false
		}
		n.AddField("connection_limit", p.leaf("literal", true))
	case p.atSeq("encrypted", "password"), p.at("password"):
		p.optKeyword(n, "encrypted")
		n.Add(p.keyword())
		if p.at("null") {
			n.Add(p.keyword())
			return true
		}
		return p.parseLiteralString(n, "password")
	case p.atIdent():
		n.AddField("option", p.ident("any_identifier"))
	default:
		return false
	}
	return true
}

// parseCreateSequence parses CREATE [TEMP | UNLOGGED] SEQUENCE [IF NOT
// EXISTS] name option...
func (p *Parser) parseCreateSequence() *cst.Node {
	cs := cst.NewBranch("create_sequence")
	cs.Add(p.keyword())
	if !p.optTemporary(cs) {
		p.optKeyword(cs, "unlogged")
	}
	cs.Add(p.keyword())
	p.optIfNotExists(cs)
	if !p.expectReference(cs, RefObject, "") {
		return cs
	}
	for p.parseSequenceOption(cs) {
	}
	return cs
}

// parseSequenceOption appends one sequence option, shared with ALTER
// SEQUENCE.
func (p *Parser) parseSequenceOption(n *cst.Node) bool {
	intField := func(field string) bool {
		if !p.check(token.INTEGER) {
			n.AddField(field, p.missing("literal", true))
			return false
		}
		n.AddField(field, p.leaf("literal", true))
		return true
	}
	switch {
	case p.at("as"):
		n.Add(p.keyword())
		typ := p.parseType()
		if typ == nil {
			n.Add(p.missing("type", true))
			return false
		}
		n.Add(typ)
	case p.at("increment"):
		n.Add(p.keyword())
		p.optKeyword(n, "by")
		return intField("increment")
	case p.atSeq("no", "minvalue"), p.atSeq("no", "maxvalue"), p.atSeq("no", "cycle"):
		n.Add(p.keyword(), p.keyword())
	case p.atAny("minvalue", "maxvalue"):
		n.Add(p.keyword())
		if !p.expectExpr(n) {
			return false
		}
	case p.at("start"), p.at("restart"):
		n.Add(p.keyword())
		p.optKeyword(n, "with")
		if p.check(token.INTEGER) {
			n.AddField("start", p.leaf("literal", true))
		}
	case p.at("cache"):
		n.Add(p.keyword())
		return intField("cache")
	case p.at("cycle"):
		n.Add(p.keyword())
	case p.atSeq("owned", "by"):
		n.Add(p.keyword(), p.keyword())
		if p.at("none") {
			n.Add(p.keyword())
			return true
		}
		return p.expectReference(n, RefColumn, "")
	default:
		return false
	}
	return true
}

// parseCreateExtension parses CREATE EXTENSION [IF NOT EXISTS] name [WITH]
// [SCHEMA s] [VERSION v] [CASCADE].
func (p *Parser) parseCreateExtension() *cst.Node {
	ce := cst.NewBranch("create_extension")
	ce.Add(p.keyword(), p.keyword())
	p.optIfNotExists(ce)
	if !p.expectIdent(ce, "any_identifier", "") {
		return ce
	}
	p.optKeyword(ce, "with")
	if p.optKeyword(ce, "schema") && !p.expectIdent(ce, "schema_identifier", "") {
		return ce
	}
	if p.optKeyword(ce, "version") {
		switch {
		case p.check(token.STRING):
			ce.Add(p.leaf("literal", true))
		case !p.expectIdent(ce, "any_identifier", ""):
			return ce
		}
	}
	p.optKeyword(ce, "cascade")
	return ce
}

// ---------- CREATE TRIGGER ----------

// parseCreateTrigger parses CREATE [OR REPLACE] [CONSTRAINT] TRIGGER name
// BEFORE|AFTER|INSTEAD OF event [OR event]... ON table option... EXECUTE
// FUNCTION|PROCEDURE fn(args).
func (p *Parser) parseCreateTrigger() *cst.Node {
	ct := cst.NewBranch("create_trigger")
	ct.Add(p.keyword())
	p.optOrReplace(ct)
	p.optKeyword(ct, "constraint")
	ct.Add(p.keyword())
	if !p.expectReference(ct, RefObject, "") {
		return ct
	}
	switch {
	case p.atAny("before", "after"):
		ct.Add(p.keyword())
	case p.atSeq("instead", "of"):
		ct.Add(p.keyword(), p.keyword())
	default:
		ct.Add(p.missing("keyword_before", true))
		return ct
	}
	if !p.parseTriggerEvent(ct) {
		return ct
	}
	for p.at("or") {
		ct.Add(p.keyword())
		if !p.parseTriggerEvent(ct) {
			return ct
		}
	}
	if !p.expectKeyword(ct, "on") || !p.expectReference(ct, RefTable, "") {
		return ct
	}
	if !p.parseTriggerOptions(ct) || !p.expectKeyword(ct, "execute") {
		return ct
	}
	if !p.atAny("function", "procedure") {
		ct.Add(p.missing("keyword_function", true))
		return ct
	}
	ct.Add(p.keyword())
	if !p.atIdent() {
		ct.Add(p.missing(RefFunction, true))
		return ct
	}
	ct.Add(p.parseReference(RefFunction))
	if !p.check(token.LPAREN) {
		ct.Add(p.missing("(", false))
		return ct
	}
	ct.Add(p.punct())
	p.parseCommaList(ct, false, func() *cst.Node {
		term := p.parseTerm()
		if term != nil {
			term.Field = "parameter"
		}
		return term
	}, "term")
	p.expectPunct(ct, token.RPAREN, cst.FieldEnd)
	return ct
}

// parseTriggerEvent appends INSERT | UPDATE [OF cols] | DELETE | TRUNCATE.
func (p *Parser) parseTriggerEvent(n *cst.Node) bool {
	switch {
	case p.atAny("insert", "delete", "truncate"):
		n.Add(p.keyword())
	case p.at("update"):
		n.Add(p.keyword())
		if p.optKeyword(n, "of") {
			return p.parseCommaList(n, true, func() *cst.Node {
				if !p.atIdent() {
					return nil
				}
				return p.ident("column_identifier")
			}, "column_identifier") > 0
		}
	default:
		n.Add(p.missing("keyword_insert", true))
		return false
	}
	return true
}

// parseTriggerOptions appends FROM, deferrability, REFERENCING, FOR EACH and
// WHEN clauses in any order.
func (p *Parser) parseTriggerOptions(n *cst.Node) bool {
	for {
		switch {
		case p.at("from"):
			n.Add(p.keyword())
			if !p.expectReference(n, RefTable, "") {
				return false
			}
		case p.atSeq("not", "deferrable"):
			n.Add(p.keyword(), p.keyword())
		case p.at("deferrable"):
			n.Add(p.keyword())
		case p.at("initially"):
			n.Add(p.keyword())
			if !p.atAny("immediate", "deferred") {
				n.Add(p.missing("keyword_immediate", true))
				return false
			}
			n.Add(p.keyword())
		case p.at("referencing"):
			n.Add(p.keyword())
			if !p.atAny("old", "new") {
				n.Add(p.missing("keyword_old", true))
				return false
			}
			n.Add(p.keyword())
			if !p.expectKeyword(n, "table") {
				return false
			}
			p.optKeyword(n, "as")
			if !p.expectIdent(n, "any_identifier", "") {
				return false
			}
		case p.at("for"):
			n.Add(p.keyword())
			p.optKeyword(n, "each")
			if !p.atAny("row", "statement") {
				n.Add(p.missing("keyword_row", true))
				return false
			}
			n.Add(p.keyword())
		case p.at("when"):
			n.Add(p.keyword())
			if !p.check(token.LPAREN) {
				n.Add(p.missing("(", false))
				return false
			}
			n.Add(p.punct())
			if !p.expectExpr(n) || !p.expectPunct(n, token.RPAREN, "") {
				return false
			}
		default:
			return true
		}
	}
}

// ---------- CREATE POLICY and SCHEMA ----------

// parseCreatePolicy parses CREATE POLICY name ON table [AS PERMISSIVE |
// RESTRICTIVE] [FOR command] [TO roles] [USING (...)] [WITH CHECK (...)].
func (p *Parser) parseCreatePolicy() *cst.Node {
	cp := cst.NewBranch("create_policy")
	cp.Add(p.keyword(), p.keyword())
	if !p.expectIdent(cp, "any_identifier", "") || !p.expectKeyword(cp, "on") ||
		!p.expectReference(cp, RefTable, "") {
		return cp
	}
	if p.at("as") {
		cp.Add(p.keyword())
		if !p.atAny("permissive", "restrictive") {
			cp.Add(p.missing("keyword_permissive", true))
			return cp
		}
		cp.Add(p.keyword())
	}
	if p.at("for") {
		cp.Add(p.keyword())
		if !p.atAny("all", "select", "insert", "update", "delete") {
			cp.Add(p.missing("keyword_all", true))
			return cp
		}
		cp.Add(p.keyword())
	}
	if p.at("to") {
		cp.Add(p.parsePolicyToRole())
	}
	if p.atCheckOrUsing() {
		cp.Add(p.parseCheckOrUsing())
	}
	return cp
}

// parsePolicyToRole parses TO role_specification.
func (p *Parser) parsePolicyToRole() *cst.Node {
	ptr := cst.NewBranch("policy_to_role")
	ptr.Add(p.keyword())
	if rs := p.parseRoleSpecification(); rs != nil {
		ptr.Add(rs)
	} else {
		ptr.Add(p.missing("role_specification", true))
	}
	return ptr
}

func (p *Parser) atCheckOrUsing() bool {
	return p.at("using") || p.atSeq("with", "check")
}

// parseCheckOrUsing parses USING (expr) or WITH CHECK (expr).
func (p *Parser) parseCheckOrUsing() *cst.Node {
	cu := cst.NewBranch("check_or_using_clause")
	if p.at("with") {
		cu.Add(p.keyword())
	}
	cu.Add(p.keyword())
	if !p.check(token.LPAREN) {
		cu.Add(p.missing("(", false))
		return cu
	}
	cu.Add(p.punct())
	if p.expectExpr(cu) {
		p.expectPunct(cu, token.RPAREN, cst.FieldEnd)
	}
	return cu
}

// parseCreateSchema parses CREATE SCHEMA [IF NOT EXISTS] name
// [AUTHORIZATION role] | CREATE SCHEMA AUTHORIZATION role.
func (p *Parser) parseCreateSchema() *cst.Node {
	cs := cst.NewBranch("create_schema")
	cs.Add(p.keyword(), p.keyword())
	if p.at("authorization") {
		cs.Add(p.keyword())
		p.expectRoleSpecification(cs)
		return cs
	}
	p.optIfNotExists(cs)
	if !p.expectIdent(cs, "any_identifier", "") {
		return cs
	}
	if p.optKeyword(cs, "authorization") {
		p.expectRoleSpecification(cs)
	}
	return cs
}

func (p *Parser) expectRoleSpecification(n *cst.Node) bool {
	if rs := p.parseRoleSpecification(); rs != nil {
		n.Add(rs)
		return true
	}
	n.Add(p.missing("role_specification", true))
	return false
}
