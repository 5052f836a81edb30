package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Type parsing.
//
//	type → builtin [array_size] | custom_type: object_reference [array_size]
//
// Sized builtins (int(4), varchar(20), numeric(10, 2), timestamp(3) with
// time zone) get their own node named after the base type.

// plainTypes are the builtin types that never take a size.
var plainTypes = map[string]bool{
	"boolean": true, "smallserial": true, "serial": true, "bigserial": true,
	"money": true, "text": true, "uuid": true, "json": true, "jsonb": true,
	"xml": true, "bytea": true, "inet": true, "date": true, "timestamptz": true,
	"interval": true, "oid": true, "name": true, "regclass": true,
	"regnamespace": true, "regproc": true, "regtype": true,
}

// sizedTypes maps parametric type keywords to the names of their
// parameters.
var sizedTypes = map[string][]string{
	"smallint":  {"size"},
	"int":       {"size"},
	"bigint":    {"size"},
	"char":      {"size"},
	"varchar":   {"size"},
	"float":     {"precision", "scale"},
	"decimal":   {"precision", "scale"},
	"numeric":   {"precision", "scale"},
	"real":      {"precision", "scale"},
	"time":      {"size"},
	"timestamp": {"size"},
}

// atType reports whether a type can start at the current token.
func (p *Parser) atType() bool {
	tok := p.cur()
	if kw := tok.Keyword; kw != "" {
		if plainTypes[kw] || sizedTypes[kw] != nil {
			return true
		}
		switch kw {
		case "bit", "double", "enum":
			return true
		}
	}
	return p.atIdent()
}

// parseType parses a type, returning nil when none starts here.
func (p *Parser) parseType() *cst.Node {
	tok := p.cur()
	typ := cst.NewBranch("type")
	kw := tok.Keyword

	switch {
	case plainTypes[kw]:
		typ.Add(p.keyword())
	case kw == "bit":
		typ.Add(p.parseBitType())
	case kw == "double":
		typ.Add(p.parseDoubleType())
	case kw == "enum":
		typ.Add(p.parseEnumType())
	case kw == "char" && p.peekAt(1).IsKeyword("varying"):
		vc := cst.NewBranch("keyword_varchar")
		vc.Add(p.leaf("character", false), p.keyword())
		typ.Add(p.parseTypeParams("varchar", vc, sizedTypes["varchar"]))
	case sizedTypes[kw] != nil:
		node := p.parseTypeParams(kw, p.keyword(), sizedTypes[kw])
		if kw == "time" || kw == "timestamp" {
			p.parseTimeZone(node)
		}
		typ.Add(node)
	case p.atIdent():
		typ.AddField("custom_type", p.parseReference(RefObject))
	default:
		return nil
	}

	if size := p.parseArraySize(); size != nil {
		typ.Add(size)
	}
	return typ
}

// parseTypeParams wraps base in a node of the given kind and parses an
// optional "(n [, m])" parameter list.
func (p *Parser) parseTypeParams(kind string, base *cst.Node, params []string) *cst.Node {
	node := cst.NewBranch(kind)
	node.Add(base)
	p.typeParams(node, params)
	return node
}

// typeParams appends "(n [, m])" to node when the list is next. Parameter i
// goes under the field params[i].
func (p *Parser) typeParams(node *cst.Node, params []string) {
	if !p.check(token.LPAREN) || !p.checkAt(1, token.INTEGER) {
		return
	}
	node.Add(p.punct())
	node.AddField(params[0], p.leaf("literal", true))
	for _, name := range params[1:] {
		if !p.check(token.COMMA) {
			break
		}
		node.Add(p.punct())
		if !p.check(token.INTEGER) {
			node.AddField(name, p.missing("literal", true))
			break
		}
		node.AddField(name, p.leaf("literal", true))
	}
	p.expectPunct(node, token.RPAREN, cst.FieldEnd)
}

// parseBitType parses BIT [VARYING] [(n)].
func (p *Parser) parseBitType() *cst.Node {
	bit := cst.NewBranch("bit")
	bit.Add(p.keyword())
	p.optKeyword(bit, "varying")
	p.typeParams(bit, []string{"precision"})
	return bit
}

// parseDoubleType parses DOUBLE [PRECISION] [(p [, s])] and FLOAT8.
func (p *Parser) parseDoubleType() *cst.Node {
	dbl := cst.NewBranch("double")
	dbl.Add(p.keyword())
	p.optKeyword(dbl, "precision")
	p.typeParams(dbl, sizedTypes["real"])
	return dbl
}

// parseEnumType parses ENUM ('a', 'b', ...).
func (p *Parser) parseEnumType() *cst.Node {
	enum := cst.NewBranch("enum")
	enum.Add(p.keyword())
	if !p.check(token.LPAREN) {
		enum.Add(p.missing("(", false))
		return enum
	}
	enum.Add(p.punct())
	p.parseCommaList(enum, true, func() *cst.Node {
		if !p.check(token.STRING) {
			return nil
		}
		lit := p.leaf("literal", true)
		lit.Field = "value"
		return lit
	}, "literal")
	p.expectPunct(enum, token.RPAREN, cst.FieldEnd)
	return enum
}

// parseTimeZone appends WITH|WITHOUT TIME ZONE to a time type.
func (p *Parser) parseTimeZone(node *cst.Node) {
	if (p.at("with") || p.at("without")) && p.peekAt(1).IsKeyword("time") && p.peekAt(2).IsKeyword("zone") {
		node.Add(p.keyword(), p.keyword(), p.keyword())
	}
}

// parseArraySize parses ARRAY [ [n] ] or one or more [ [n] ] suffixes.
func (p *Parser) parseArraySize() *cst.Node {
	if !p.at("array") && !p.check(token.LBRACKET) {
		return nil
	}
	size := cst.NewBranch("array_size_definition")
	if p.at("array") {
		size.Add(p.keyword())
		if p.check(token.LBRACKET) {
			p.parseArrayDim(size)
		}
		return size
	}
	for p.check(token.LBRACKET) {
		p.parseArrayDim(size)
	}
	return size
}

func (p *Parser) parseArrayDim(size *cst.Node) {
	size.Add(p.punct())
	if p.check(token.INTEGER) {
		size.AddField("size", p.leaf("literal", true))
	}
	if p.check(token.RBRACKET) {
		size.Add(p.punct())
		return
	}
	size.Add(p.missing("]", false))
}
