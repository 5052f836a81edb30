package parser

import "github.com/leapstack-labs/pgsyntax/pkg/token"

// Assoc is the associativity of a precedence class.
type Assoc int

// Associativities.
const (
	AssocLeft Assoc = iota
	AssocRight
	AssocPrefix
)

func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	default:
		return "prefix"
	}
}

// PrecedenceClass is one row of the operator precedence table.
type PrecedenceClass struct {
	Name  string
	Level int // higher binds tighter
	Assoc Assoc
}

// Precedence levels, loosest to tightest.
const (
	precLowest = iota
	precDisjunctive
	precConnective
	precBetween
	precPattern
	precRelation
	precCompare
	precIn
	precOther
	precUnaryOther
	precPlus
	precTimes
	precExp
	precUnaryNot
	precIs
	precPostfix // :: casts, above every named class
)

// precedenceTable lists the classes tightest first. binary_compare has no
// operators of its own; it keeps its slot so the ordering stays complete.
var precedenceTable = []PrecedenceClass{
	{"binary_is", precIs, AssocLeft},
	{"unary_not", precUnaryNot, AssocPrefix},
	{"binary_exp", precExp, AssocRight},
	{"binary_times", precTimes, AssocLeft},
	{"binary_plus", precPlus, AssocLeft},
	{"unary_other", precUnaryOther, AssocPrefix},
	{"binary_other", precOther, AssocLeft},
	{"binary_in", precIn, AssocLeft},
	{"binary_compare", precCompare, AssocLeft},
	{"binary_relation", precRelation, AssocLeft},
	{"pattern_matching", precPattern, AssocLeft},
	{"between", precBetween, AssocLeft},
	{"clause_connective", precConnective, AssocLeft},
	{"clause_disjunctive", precDisjunctive, AssocLeft},
}

// PrecedenceTable returns a copy of the operator precedence table, tightest
// class first.
func PrecedenceTable() []PrecedenceClass {
	out := make([]PrecedenceClass, len(precedenceTable))
	copy(out, precedenceTable)
	return out
}

// binaryOps maps operator symbols to their precedence level.
var binaryOps = map[string]int{
	"+": precPlus, "-": precPlus,
	"*": precTimes, "/": precTimes, "%": precTimes,
	"^": precExp,
	"=": precRelation, "<": precRelation, "<=": precRelation, "!=": precRelation,
	">=": precRelation, ">": precRelation, "<>": precRelation,
}

// otherOps is the op_other set: every remaining binary operator symbol.
var otherOps = map[string]bool{
	"->": true, "->>": true, "#>": true, "#>>": true, "~": true, "!~": true,
	"~*": true, "!~*": true, "|": true, "&": true, "#": true, "<<": true,
	">>": true, "<<=": true, ">>=": true, "##": true, "<->": true, "@>": true,
	"<@": true, "&<": true, "&>": true, "|>>": true, "<<|": true, "&<|": true,
	"|&>": true, "<^": true, "^>": true, "?#": true, "?-": true, "?|": true,
	"?-|": true, "?||": true, "@@": true, "@@@": true, "@?": true, "#-": true,
	"?&": true, "?": true, "-|-": true, "||": true, "^@": true,
}

// unaryOtherOps is the op_unary_other set of prefix operators.
var unaryOtherOps = map[string]bool{
	"|/": true, "||/": true, "@": true, "~": true, "@-@": true, "@@": true,
	"#": true, "?-": true, "?|": true, "!!": true,
}

// unaryNotKeywords are the prefix keywords at the unary_not level.
var unaryNotKeywords = map[string]bool{
	"not": true, "any": true, "some": true, "all": true,
}

// infixKind distinguishes the infix forms the expression loop handles.
type infixKind int

const (
	infixNone infixKind = iota
	infixBinary
	infixIn
	infixIs
	infixBetween
	infixSubscript
	infixCast
)

// infixOp describes the operator at the current position.
type infixOp struct {
	kind  infixKind
	level int
	width int // tokens forming the operator
}

// infixAt classifies the operator at the current token, if any.
func (p *Parser) infixAt() infixOp {
	tok := p.cur()
	switch tok.Type {
	case token.OP:
		if lvl, ok := binaryOps[tok.Literal]; ok {
			return infixOp{infixBinary, lvl, 1}
		}
		if otherOps[tok.Literal] || tok.Literal == "!~*" {
			return infixOp{infixBinary, precOther, 1}
		}
	case token.DCOLON:
		return infixOp{infixCast, precPostfix, 1}
	case token.LBRACKET:
		return infixOp{infixSubscript, precIs, 1}
	case token.IDENT:
		switch tok.Keyword {
		case "and":
			return infixOp{infixBinary, precConnective, 1}
		case "or":
			return infixOp{infixBinary, precDisjunctive, 1}
		case "like":
			return infixOp{infixBinary, precPattern, 1}
		case "similar":
			if p.peekAt(1).IsKeyword("to") {
				return infixOp{infixBinary, precPattern, 2}
			}
		case "in":
			return infixOp{infixIn, precIn, 1}
		case "is":
			return infixOp{infixIs, precIs, 1}
		case "between":
			return infixOp{infixBetween, precBetween, 1}
		case "not":
			next := p.peekAt(1)
			switch {
			case next.IsKeyword("like"):
				return infixOp{infixBinary, precPattern, 2}
			case next.IsKeyword("similar") && p.peekAt(2).IsKeyword("to"):
				return infixOp{infixBinary, precPattern, 3}
			case next.IsKeyword("in"):
				return infixOp{infixIn, precIn, 2}
			case next.IsKeyword("between"):
				return infixOp{infixBetween, precBetween, 2}
			}
		}
	}
	return infixOp{}
}
