package parser

import (
	"fmt"

	"github.com/leapstack-labs/pgsyntax/pkg/cst"
)

// Strategy names how a conflict between overlapping rules is settled.
type Strategy string

// Resolution strategies.
const (
	StrategyPrecedence     Strategy = "precedence"
	StrategyLongestMatch   Strategy = "longest-match"
	StrategyFirstDeclared  Strategy = "first-declared"
	StrategyDeferred       Strategy = "deferred-classification"
	StrategyLookahead      Strategy = "lookahead"
	StrategyDataStreamScan Strategy = "data-stream-scan"
)

// Conflict is one group of rules that can match the same input, together
// with the way the parser picks between them.
type Conflict struct {
	Name       string
	Rules      []string
	Strategy   Strategy
	Resolution string
}

// Conflicts is the closed list of ambiguous rule groups. Ties not covered
// here go to the alternative that consumes more input, then to the one
// tried first.
var Conflicts = []Conflict{
	{
		Name:       "between-vs-binary",
		Rules:      []string{"between_expression", "binary_expression"},
		Strategy:   StrategyPrecedence,
		Resolution: "BETWEEN binds looser than comparisons and tighter than AND/OR; its bounds stop before AND",
	},
	{
		Name:       "is-vs-binary",
		Rules:      []string{"is_expression", "binary_expression"},
		Strategy:   StrategyPrecedence,
		Resolution: "IS sits in binary_is, the tightest binary class",
	},
	{
		Name: "identifier-roles",
		Rules: []string{"any_identifier", "column_identifier", "schema_identifier",
			"table_identifier", "type_identifier", "function_identifier"},
		Strategy:   StrategyDeferred,
		Resolution: "a part gets a specific role only when the reference shape fixes it; otherwise any_identifier",
	},
	{
		Name:       "reference-rules",
		Rules:      []string{"object_reference", "column_reference", "table_reference", "type_reference", "function_reference"},
		Strategy:   StrategyDeferred,
		Resolution: "the grammar position picks the reference kind; dotted parts are collected first and shaped by QualifiedReference",
	},
	{
		Name:       "rename-column-vs-rename-object",
		Rules:      []string{"rename_column", "rename_object"},
		Strategy:   StrategyLookahead,
		Resolution: "RENAME TO is rename_object; RENAME [COLUMN] x TO y is rename_column",
	},
	{
		Name:       "join-vs-lateral-join",
		Rules:      []string{"join", "lateral_join", "cross_join", "lateral_cross_join"},
		Strategy:   StrategyLookahead,
		Resolution: "LATERAL after JOIN selects the lateral forms; CROSS JOIN LATERAL before CROSS JOIN",
	},
	{
		Name:       "subquery-vs-list",
		Rules:      []string{"subquery", "list", "parenthesized_expression"},
		Strategy:   StrategyLookahead,
		Resolution: "( followed by SELECT, VALUES, WITH, TABLE or another subquery start is a subquery; a top-level comma makes a list",
	},
	{
		Name:       "constraint-forms",
		Rules:      []string{"constraint", "column_definition"},
		Strategy:   StrategyLookahead,
		Resolution: "CONSTRAINT, PRIMARY, UNIQUE, CHECK, FOREIGN or EXCLUDE opens a table constraint inside column_definitions",
	},
	{
		Name:       "table-partition-vs-partition-of",
		Rules:      []string{"table_partition", "partition_of"},
		Strategy:   StrategyLookahead,
		Resolution: "PARTITION BY is table_partition; PARTITION OF is partition_of",
	},
	{
		Name:       "create-index-function-table",
		Rules:      []string{"create_index", "create_function", "create_table"},
		Strategy:   StrategyLookahead,
		Resolution: "decided by the first keyword after CREATE and its modifiers (UNIQUE, OR REPLACE, TEMP, ...)",
	},
	{
		Name:       "drop-index-function-table",
		Rules:      []string{"drop_index", "drop_function", "drop_table"},
		Strategy:   StrategyLookahead,
		Resolution: "decided by the keyword after DROP",
	},
	{
		Name:       "function-return-vs-binary",
		Rules:      []string{"function_body", "binary_expression", "between_expression"},
		Strategy:   StrategyLongestMatch,
		Resolution: "RETURN takes the longest expression before the terminating ;",
	},
	{
		Name:       "copy-statement-vs-data-stream",
		Rules:      []string{"copy_statement", "copy_data_stream"},
		Strategy:   StrategyDataStreamScan,
		Resolution: "COPY ... FROM STDIN ...; at the end of its line starts a data stream that runs to a backslash terminator or EOF",
	},
	{
		Name:       "copy-from-vs-copy-to",
		Rules:      []string{"copy_from", "copy_to"},
		Strategy:   StrategyLookahead,
		Resolution: "a parenthesised query target or TO makes copy_to",
	},
	{
		Name:       "function-body-structured-vs-opaque",
		Rules:      []string{"function_body", "literal"},
		Strategy:   StrategyLongestMatch,
		Resolution: "a dollar-quoted body parses as statements when that succeeds without diagnostics, otherwise it stays an opaque string",
	},
	{
		Name:       "transaction-vs-block-vs-statement",
		Rules:      []string{"transaction", "block", "statement"},
		Strategy:   StrategyFirstDeclared,
		Resolution: "BEGIN tries transaction, then block; the first that ends cleanly wins",
	},
	{
		Name:       "implicit-alias-vs-keyword",
		Rules:      []string{"alias", "keyword"},
		Strategy:   StrategyFirstDeclared,
		Resolution: "a bare word after an expression is an alias unless it is a reserved keyword",
	},
}

// ConflictByName returns the declared conflict with the given name.
func ConflictByName(name string) (Conflict, bool) {
	for _, c := range Conflicts {
		if c.Name == name {
			return c, true
		}
	}
	return Conflict{}, false
}

// ---------- Qualified References ----------

// Reference kinds produced by QualifiedReference.
const (
	RefObject   = "object_reference"
	RefColumn   = "column_reference"
	RefTable    = "table_reference"
	RefType     = "type_reference"
	RefFunction = "function_reference"
)

// refRoles lists, per reference kind and arity, the identifier kind of each
// part. A missing entry means that arity does not exist for the kind.
var refRoles = map[string]map[int][]string{
	RefObject: {
		1: {"any_identifier"},
		2: {"any_identifier", "any_identifier"},
		3: {"any_identifier", "any_identifier", "any_identifier"},
	},
	RefColumn: {
		1: {"any_identifier"},
		2: {"any_identifier", "any_identifier"},
		3: {"schema_identifier", "table_identifier", "column_identifier"},
	},
	RefTable: {
		1: {"any_identifier"},
		2: {"schema_identifier", "table_identifier"},
	},
	RefType: {
		1: {"any_identifier"},
		2: {"schema_identifier", "type_identifier"},
	},
	RefFunction: {
		1: {"any_identifier"},
		2: {"schema_identifier", "function_identifier"},
	},
}

// MaxParts returns the longest dotted name the reference kind accepts.
func MaxParts(kind string) int {
	max := 0
	for n := range refRoles[kind] {
		if n > max {
			max = n
		}
	}
	return max
}

// QualifiedReference shapes already-parsed dotted name parts into a
// reference node of the given kind. parts holds identifier leaves and dots
// holds the separators between them (len(parts)-1 of them). Each part gets
// the identifier kind its position implies and a field named
// <kind>_<i>of<n>. It never reports arity problems; callers collect at most
// MaxParts(kind) parts.
func QualifiedReference(kind string, parts, dots []*cst.Node) *cst.Node {
	roles, ok := refRoles[kind][len(parts)]
	if !ok {
		roles = refRoles[RefObject][len(parts)]
		kind = RefObject
	}
	ref := cst.NewBranch(kind)
	for i, part := range parts {
		if i > 0 && i-1 < len(dots) {
			ref.Add(dots[i-1])
		}
		if i < len(roles) {
			part.Kind = roles[i]
		}
		ref.AddField(fmt.Sprintf("%s_%dof%d", kind, i+1, len(parts)), part)
	}
	return ref
}
