package token

import "strings"

// keywordList is the fixed set of words the grammar can place at a keyword
// position. Anything else lexed as a word is an identifier.
var keywordList = []string{
	// statements and clauses
	"select", "delete", "insert", "replace", "update", "truncate", "merge", "show",
	"into", "values", "value", "matched", "set", "from", "left", "right", "inner",
	"full", "outer", "cross", "join", "lateral", "natural", "on", "off", "where",
	"order", "group", "partition", "by", "having", "desc", "asc", "limit", "offset",
	"primary", "create", "alter", "analyze", "explain", "verbose", "drop", "add",
	"table", "tables", "view", "column", "columns", "materialized", "tablespace",
	"sequence", "increment", "minvalue", "maxvalue", "none", "owned", "start",
	"restart", "key", "as", "distinct", "constraint", "filter", "cast", "case",
	"when", "then", "else", "end", "in", "and", "or", "is", "not", "force", "using",
	"index", "for", "if", "exists", "generated", "always", "collate", "character",
	"default", "cascade", "restrict", "with", "without", "no", "data", "type",
	"rename", "to", "database", "schema", "owner", "user", "admin", "password",
	"encrypted", "valid", "until", "connection", "role", "reset", "temp",
	"temporary", "unlogged", "logged", "cycle", "union", "all", "any", "some",
	"except", "intersect", "returning", "begin", "commit", "rollback",
	"transaction", "over", "nulls", "first", "after", "before", "last", "window",
	"range", "rows", "groups", "between", "unbounded", "preceding", "following",
	"exclude", "current", "row", "ties", "others", "only", "unique", "foreign",
	"references", "concurrently", "btree", "hash", "list", "gist", "spgist", "gin",
	"brin", "like", "similar", "conflict", "do", "nothing", "recursive",
	"cascaded", "local", "current_timestamp", "check", "option", "vacuum",
	"nowait", "attribute", "authorization", "action", "extension",
	// copy
	"copy", "on_error", "reject_limit", "log_verbosity", "stop", "ignore",
	"silent", "stdin", "stdout", "freeze", "escape", "encoding", "force_quote",
	"quote", "force_null", "force_not_null", "header", "match", "program",
	// storage and explain
	"plain", "extended", "main", "storage", "compression", "settings",
	"generic_plan", "buffers", "wal", "timing", "summary", "memory", "serialize",
	"skip_locked", "buffer_usage_limit", "overriding", "system",
	// roles and privileges
	"policy", "permissive", "restrictive", "public", "current_role",
	"current_user", "session_user", "grant", "revoke", "granted", "privileges",
	"inherit", "maintain", "functions", "routines", "procedures", "share",
	// functions and triggers
	"trigger", "function", "returns", "return", "setof", "atomic", "declare",
	"language", "immutable", "stable", "volatile", "leakproof", "parallel", "safe",
	"unsafe", "restricted", "called", "input", "strict", "cost", "costs", "support",
	"definer", "invoker", "security", "version", "out", "inout", "variadic",
	"ordinality",
	// transactions
	"session", "isolation", "level", "serializable", "repeatable", "read", "write",
	"committed", "uncommitted", "deferrable", "names", "zone", "immediate",
	"deferred", "constraints", "snapshot", "characteristics", "precedes", "each",
	"instead", "of", "initially", "old", "new", "referencing", "statement",
	"execute", "procedure", "routine", "external", "stored", "replication",
	"statistics", "rewrite", "location", "partitioned", "comment", "format",
	"delimiter", "cache", "csv",
	// literals and types
	"null", "true", "false", "boolean", "bit", "smallserial", "serial",
	"bigserial", "smallint", "int", "bigint", "decimal", "numeric", "real", "float",
	"double", "precision", "inet", "money", "varying", "char", "varchar", "text",
	"binary", "uuid", "json", "yaml", "jsonb", "xml", "bytea", "enum", "date",
	"time", "timestamp", "timestamptz", "interval", "oid", "oids", "name",
	"regclass", "regnamespace", "regproc", "regtype", "array",
}

// keywordAliases maps alternative spellings to their canonical keyword.
var keywordAliases = map[string]string{
	"serial2":   "smallserial",
	"serial4":   "serial",
	"serial8":   "bigserial",
	"int2":      "smallint",
	"integer":   "int",
	"int4":      "int",
	"int8":      "bigint",
	"float4":    "real",
	"float8":    "double",
	"character": "char",
	"ilike":     "like",
}

// reservedList holds keywords that never stand in for a bare identifier.
// They end implicit aliases and cannot start a column reference.
var reservedList = []string{
	"all", "and", "any", "array", "as", "asc", "between", "case", "cast", "check",
	"collate", "constraint", "create", "cross", "default", "desc", "distinct",
	"do", "else", "end", "except", "false", "for", "foreign", "from", "full",
	"grant", "group", "having", "in", "inner", "intersect", "into", "is",
	"join", "lateral", "left", "like", "limit", "natural", "not", "null", "offset",
	"on", "only", "or", "order", "outer", "over", "overriding", "primary",
	"references", "returning", "right", "select", "set", "similar", "some",
	"table", "then", "to", "true", "union", "unique", "using", "values", "when",
	"where", "window", "with",
}

var (
	keywords = make(map[string]string, len(keywordList)+len(keywordAliases))
	reserved = make(map[string]struct{}, len(reservedList))
)

func init() {
	for _, kw := range keywordList {
		keywords[kw] = kw
	}
	for alias, kw := range keywordAliases {
		keywords[alias] = kw
	}
	for _, kw := range reservedList {
		reserved[kw] = struct{}{}
	}
}

// LookupKeyword returns the canonical keyword for word, matched
// case-insensitively, and whether word is a keyword at all.
func LookupKeyword(word string) (string, bool) {
	kw, ok := keywords[strings.ToLower(word)]
	return kw, ok
}

// IsReserved reports whether the canonical keyword kw can never be used as
// an unquoted identifier.
func IsReserved(kw string) bool {
	_, ok := reserved[kw]
	return ok
}

// Keywords returns the canonical keyword names, including aliases' targets
// only once.
func Keywords() []string {
	out := make([]string, len(keywordList))
	copy(out, keywordList)
	return out
}
