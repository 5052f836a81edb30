package parser_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

// ---------- Expression Tests ----------

func TestBinaryPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		operator string
		left     string
		right    string
	}{
		{"times binds tighter than plus", "1 + 2 * 3", "+", "1", "2 * 3"},
		{"minus is left associative", "10 - 4 - 3", "-", "10 - 4", "3"},
		{"exponent is right associative", "2 ^ 3 ^ 4", "^", "2", "3 ^ 4"},
		{"and binds tighter than or", "a OR b AND c", "keyword_or", "a", "b AND c"},
		{"between keeps its own and", "a BETWEEN 1 AND 2 AND b", "keyword_and", "a BETWEEN 1 AND 2", "b"},
		{"not applies before comparison", "NOT a = b", "=", "NOT a", "b"},
		{"is binds tighter than and", "a IS NOT NULL AND b", "keyword_and", "a IS NOT NULL", "b"},
		{"ilike is like", "a ILIKE 'x%' OR b", "keyword_or", "a ILIKE 'x%'", "b"},
		{"comparison over concatenation", "a || b = c", "=", "a || b", "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, src := expr(t, tt.input)
			require.Equal(t, "binary_expression", e.Kind)
			assert.Equal(t, tt.operator, e.ChildByField("binary_expr_operator").Kind)
			assert.Equal(t, tt.left, e.ChildByField("binary_expr_left").Text(src))
			assert.Equal(t, tt.right, e.ChildByField(cst.FieldEnd).Text(src))
		})
	}
}

func TestExpressionForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  string
	}{
		{"implicit cast", "x::int", "cast"},
		{"cast call", "CAST(x AS text)", "cast"},
		{"case", "CASE WHEN a THEN 1 ELSE 2 END", "case"},
		{"simple case", "CASE a WHEN 1 THEN 'one' END", "case"},
		{"exists", "EXISTS (SELECT 1)", "exists"},
		{"scalar subquery", "(SELECT 1)", "subquery"},
		{"field selection", "(a).b", "field_selection"},
		{"parenthesized", "(a + 1)", "parenthesized_expression"},
		{"row list", "(1, 2)", "list"},
		{"array constructor", "ARRAY[1, 2]", "array"},
		{"interval", "INTERVAL '1 day'", "interval"},
		{"string typed by name", "date '2024-01-01'", "literal"},
		{"null", "NULL", "literal"},
		{"dollar string", "$$x$$", "literal"},
		{"positional parameter", "$1", "parameter"},
		{"is distinct from", "a IS DISTINCT FROM b", "is_expression"},
		{"not between", "a NOT BETWEEN 1 AND 2", "between_expression"},
		{"unary operator", "|/ 25", "unary_expression"},
		{"call", "lower(a)", "invocation"},
		{"qualified call", "pg_catalog.lower(a)", "invocation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := expr(t, tt.input)
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestSignedNumbers(t *testing.T) {
	tree := parseClean(t, "SELECT -1, - 1, -a")
	terms := tree.Root.FindAll("term")
	require.Len(t, terms, 3)

	assert.Equal(t, "literal", terms[0].ChildByField(cst.FieldEnd).Kind, "a sign touching a number is part of the literal")
	assert.Equal(t, "unary_expression", terms[1].ChildByField(cst.FieldEnd).Kind)
	assert.Equal(t, "unary_expression", terms[2].ChildByField(cst.FieldEnd).Kind)
}

func TestInList(t *testing.T) {
	e, _ := expr(t, "a NOT IN (1, 2)")
	require.Equal(t, "binary_expression", e.Kind)
	assert.Equal(t, "not_in", e.ChildByField("binary_expr_operator").Kind)
	assert.Equal(t, "list", e.ChildByField(cst.FieldEnd).Kind)

	e, _ = expr(t, "a IN (SELECT b FROM t)")
	assert.Equal(t, "subquery", e.ChildByField(cst.FieldEnd).Kind)
}

func TestSubscript(t *testing.T) {
	e, src := expr(t, "arr[1:2]")
	require.Equal(t, "subscript", e.Kind)
	assert.Equal(t, "arr", e.ChildByField("expression").Text(src))
	assert.Equal(t, "1", e.ChildByField("lower").Text(src))
	assert.Equal(t, "2", e.ChildByField("upper").Text(src))

	e, src = expr(t, "arr[3]")
	assert.Equal(t, "3", e.ChildByField("subscript").Text(src))
}

func TestWindowFunction(t *testing.T) {
	e, _ := expr(t, "count(*) FILTER (WHERE x > 1) OVER (PARTITION BY y ORDER BY z ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)")
	require.Equal(t, "window_function", e.Kind)

	k := kinds(e)
	for _, want := range []string{"invocation", "all_fields", "filter_expression", "window_specification", "partition_by", "order_by", "window_frame"} {
		assert.True(t, k[want], "missing %s", want)
	}
}

func TestAggregateArguments(t *testing.T) {
	e, _ := expr(t, "string_agg(DISTINCT a, ',' ORDER BY a)")
	require.Equal(t, "invocation", e.Kind)
	assert.Len(t, e.ChildrenByField("parameter"), 2)
	assert.NotNil(t, e.ChildByKind("keyword_distinct"))
	assert.NotNil(t, e.ChildByKind("order_by"))
}

func TestPartialExpression(t *testing.T) {
	tree := parse(t, "SELECT a +")
	assert.Empty(t, tree.Diagnostics, "a trailing operator is an incomplete expression, not an error")

	term := tree.Root.Find("term")
	require.NotNil(t, term)
	bin := term.ChildByField(cst.FieldEnd)
	require.Equal(t, "binary_expression", bin.Kind)
	assert.Nil(t, bin.ChildByField(cst.FieldEnd))
	assert.Equal(t, "a +", bin.Text(tree.Source))
}

func TestQualifiedReferenceArity(t *testing.T) {
	tree := parseClean(t, "SELECT a.b.c, a.b, a")
	terms := tree.Root.FindAll("term")
	require.Len(t, terms, 3)

	for i, n := range []int{3, 2, 1} {
		ref := terms[i].ChildByField(cst.FieldEnd)
		require.Equal(t, parser.RefObject, ref.Kind)
		assert.Len(t, ref.NamedChildren(), n)
		assert.NotNil(t, ref.ChildByField("object_reference_1of"+string(rune('0'+n))))
	}
}

func TestTableReferenceRoles(t *testing.T) {
	tree := parseClean(t, "SELECT * FROM s.t")
	ref := tree.Root.Find(parser.RefTable)
	require.NotNil(t, ref)
	assert.Equal(t, "schema_identifier", ref.ChildByField("table_reference_1of2").Kind)
	assert.Equal(t, "table_identifier", ref.ChildByField("table_reference_2of2").Kind)
}

// ---------- Statement Tests ----------

func TestStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []string
	}{
		{
			"select with every clause",
			"SELECT DISTINCT a, b AS c FROM t WHERE a > 1 GROUP BY a HAVING count(*) > 1 WINDOW w AS (ORDER BY a) ORDER BY a DESC NULLS LAST LIMIT 10 OFFSET 5 FOR UPDATE",
			[]string{"select", "keyword_distinct", "alias", "from", "where", "group_by", "group_by_having", "window_clause", "order_by", "order_target_nulls", "limit", "offset", "select_row_locking"},
		},
		{"select into", "SELECT a INTO b FROM t", []string{"keyword_into", "from"}},
		{"common table expression", "WITH RECURSIVE x (n) AS (SELECT 1) SELECT * FROM x", []string{"cte", "with_query", "all_fields"}},
		{"cte before a write", "WITH x AS (SELECT 1) INSERT INTO t SELECT * FROM x", []string{"cte", "insert"}},
		{"set operations", "SELECT 1 UNION ALL SELECT 2 EXCEPT SELECT 3", []string{"keyword_union", "keyword_all", "keyword_except"}},
		{"parenthesized query", "(SELECT 1)", []string{"select"}},
		{"values", "VALUES (1, 2), (3, 4)", []string{"values", "list"}},
		{"table", "TABLE ONLY t", []string{"table_statement"}},
		{"show", "SHOW search_path", []string{"keyword_show"}},
		{"joins", "SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id JOIN c USING (id) CROSS JOIN d", []string{"join", "cross_join"}},
		{"lateral join", "SELECT * FROM a LEFT JOIN LATERAL f(a.x) AS g ON true", []string{"lateral_join", "invocation"}},
		{"lateral cross join", "SELECT * FROM a CROSS JOIN LATERAL (SELECT 1) s", []string{"lateral_cross_join", "subquery"}},
		{"with ordinality", "SELECT * FROM a CROSS JOIN unnest(a.arr) WITH ORDINALITY AS u (x, n)", []string{"cross_join", "keyword_ordinality"}},
		{"subquery in from", "SELECT * FROM (SELECT 1) AS s (x)", []string{"subquery", "alias", "list"}},

		{"insert", "INSERT INTO t (a, b) VALUES (1, DEFAULT) ON CONFLICT (a) DO UPDATE SET b = excluded.b RETURNING *", []string{"insert", "insert_columns", "insert_values", "assignment", "returning"}},
		{"insert select", "INSERT INTO t SELECT * FROM u", []string{"insert", "select"}},
		{"insert default values", "INSERT INTO t DEFAULT VALUES", []string{"insert", "keyword_values"}},
		{"update", "UPDATE ONLY t SET a = 1, b = DEFAULT FROM u WHERE t.id = u.id RETURNING a", []string{"update", "assignment", "from", "where", "returning"}},
		{"delete", "DELETE FROM t WHERE a = 1 RETURNING *", []string{"delete_statement", "where", "returning"}},
		{"truncate", "TRUNCATE TABLE a, b CASCADE", []string{"keyword_truncate", "keyword_cascade"}},
		{"merge", "MERGE INTO t USING s ON t.id = s.id WHEN MATCHED THEN UPDATE SET a = s.a WHEN NOT MATCHED THEN INSERT (id, a) VALUES (s.id, s.a)", []string{"keyword_merge", "when_clause"}},
		{"copy from file", "COPY t (a, b) FROM 'data.csv' WITH (FORMAT csv, HEADER true)", []string{"copy_statement", "copy_stmt_options"}},
		{"copy query", "COPY (SELECT 1) TO STDOUT", []string{"copy_statement", "subquery"}},

		{
			"create table",
			"CREATE TABLE IF NOT EXISTS s.t (id bigint PRIMARY KEY, total int NOT NULL DEFAULT 0, CONSTRAINT fk FOREIGN KEY (id) REFERENCES u (id) ON DELETE CASCADE) PARTITION BY RANGE (id)",
			[]string{"create_table", "column_definitions", "column_definition", "constraint", "ordered_columns", "table_partition"},
		},
		{"create table as", "CREATE TEMP TABLE t AS SELECT 1", []string{"create_table", "create_query"}},
		{"create view", "CREATE OR REPLACE VIEW v AS SELECT a FROM t", []string{"create_view", "create_query"}},
		{"create materialized view", "CREATE MATERIALIZED VIEW mv AS SELECT 1 WITH NO DATA", []string{"create_materialized_view", "keyword_data"}},
		{"create index", "CREATE UNIQUE INDEX CONCURRENTLY IF NOT EXISTS idx ON t USING btree (a DESC, lower(b)) WHERE a > 0", []string{"create_index", "index_fields", "field", "direction", "where"}},
		{"create type", "CREATE TYPE mood AS ENUM ('sad', 'ok')", []string{"create_type", "enum_elements"}},
		{"create schema", "CREATE SCHEMA IF NOT EXISTS app", []string{"create_schema"}},
		{"create schema with elements", "CREATE SCHEMA app CREATE TABLE t (a int) CREATE VIEW v AS SELECT 1", []string{"create_schema", "create_table", "create_view"}},
		{"create extension", "CREATE EXTENSION IF NOT EXISTS pgcrypto WITH SCHEMA public", []string{"create_extension"}},

		{"alter table", "ALTER TABLE t ADD COLUMN c int, DROP COLUMN d", []string{"alter_table", "add_column", "drop_column"}},
		{"drop table", "DROP TABLE IF EXISTS a.b CASCADE", []string{"drop_table"}},
		{"drop function", "DROP FUNCTION f(int)", []string{"drop_function", "function_arguments"}},
		{"comment", "COMMENT ON TABLE t IS 'hello'", []string{"comment_statement"}},
		{"set", "SET search_path TO public", []string{"set_statement"}},
		{"grant", "GRANT SELECT, INSERT ON TABLE t TO alice WITH GRANT OPTION", []string{"grant_statement", "grantable_on_table", "role_specification"}},
		{"revoke", "REVOKE ALL PRIVILEGES ON ALL TABLES IN SCHEMA public FROM bob CASCADE", []string{"revoke_statement", "grantable_on_all"}},
		{"explain with options", "EXPLAIN (ANALYZE true, FORMAT json) SELECT 1", []string{"keyword_explain", "explain_format_option", "select"}},
		{"explain legacy options", "EXPLAIN ANALYZE VERBOSE SELECT 1", []string{"keyword_analyze", "keyword_verbose", "select"}},
		{"vacuum", "VACUUM FULL t (a)", []string{"keyword_vacuum", "field"}},
		{"analyze", "ANALYZE (VERBOSE) t (a, b)", []string{"analyze_statement", "analyze_options", "analyze_columns"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, _ := statement(t, tt.input)
			k := kinds(st)
			for _, want := range tt.kinds {
				assert.True(t, k[want], "%s not found in\n%s", want, st)
			}
		})
	}
}

func TestSelectShape(t *testing.T) {
	tree := parseClean(t, "SELECT a;")
	assert.Equal(t,
		"(program (statement (select (keyword_select) end: (select_expression end: (term end: (object_reference object_reference_1of1: (any_identifier)))))))",
		tree.Root.String())
}

func TestCreateFunctionBodies(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		structured bool
	}{
		{"sql body", "CREATE FUNCTION f(a int) RETURNS int LANGUAGE sql IMMUTABLE AS $$ SELECT a + 1 $$", true},
		{"nested dollar quotes", "CREATE FUNCTION f() RETURNS text AS $a$ SELECT $b$ x $b$ $a$ LANGUAGE sql", true},
		{"plpgsql block", "CREATE FUNCTION f() RETURNS int AS $$ BEGIN RETURN 1; END; $$ LANGUAGE plpgsql", true},
		{"opaque body", "CREATE FUNCTION f() RETURNS int AS $$ IF x THEN y END IF $$ LANGUAGE plpgsql", false},
		{"string body", "CREATE FUNCTION f() RETURNS int AS 'select 1' LANGUAGE sql", false},
		{"return body", "CREATE FUNCTION f(a int) RETURNS int RETURN a + 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, _ := statement(t, tt.input)
			body := st.Find("function_body")
			require.NotNil(t, body)
			hasStatement := body.ChildByKind(cst.KindStatement) != nil || body.ChildByKind("keyword_begin") != nil
			assert.Equal(t, tt.structured, hasStatement, "%s", body)
		})
	}
}

func TestNestedDollarQuoteStaysLiteral(t *testing.T) {
	st, src := statement(t, "CREATE FUNCTION f() RETURNS text AS $a$ SELECT $b$ x $b$ $a$ LANGUAGE sql")
	body := st.Find("function_body")
	require.NotNil(t, body)

	inner := body.Find("literal")
	require.NotNil(t, inner)
	assert.Equal(t, "$b$ x $b$", inner.Text(src))
}

// ---------- Comment Tests ----------

func TestCommentsAreExtras(t *testing.T) {
	tree := parseClean(t, "-- lead\nSELECT /* inline */ 1; /* tail */")
	assert.Equal(t, []string{"comment", "statement", ";", "marginalia"}, topKinds(tree))

	inline := tree.Root.Children[1].Find("marginalia")
	require.NotNil(t, inline)
	assert.True(t, inline.Extra)
	assert.Equal(t, "/* inline */", inline.Text(tree.Source))
}

func TestCommentsInFunctionBody(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		comment string
		kind    string
	}{
		{"block comment before end tag", "CREATE FUNCTION f() RETURNS int AS $$ SELECT 1 /* c */ $$ LANGUAGE sql;", "/* c */", "marginalia"},
		{"line comment before end tag", "CREATE FUNCTION f() RETURNS int AS $$ SELECT 1 -- c\n$$ LANGUAGE sql;", "-- c", "comment"},
		{"line comment after semicolon", "CREATE FUNCTION f() RETURNS int AS $$ SELECT 1; -- c\n$$ LANGUAGE sql;", "-- c", "comment"},
		{"comment in plpgsql block", "CREATE FUNCTION f() RETURNS int AS $$ BEGIN RETURN 1; END; /* done */ $$ LANGUAGE plpgsql;", "/* done */", "marginalia"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, src := statement(t, tt.input)
			body := st.Find("function_body")
			require.NotNil(t, body)
			structured := body.ChildByKind(cst.KindStatement) != nil || body.ChildByKind("keyword_begin") != nil
			require.True(t, structured, "body should be structured: %s", body)

			c := body.Find(tt.kind)
			require.NotNil(t, c, "comment missing from %s", body)
			assert.True(t, c.Extra)
			assert.Equal(t, tt.comment, strings.TrimRight(c.Text(src), "\n"))
		})
	}
}

func TestUnterminatedCommentInFunctionBody(t *testing.T) {
	tree := parse(t, "CREATE FUNCTION f() RETURNS int AS $$ SELECT 1 /* c $$ LANGUAGE sql;")
	body := tree.Root.Find("function_body")
	require.NotNil(t, body)
	assert.Nil(t, body.ChildByKind(cst.KindStatement), "a body with a lexical error stays opaque: %s", body)
}

// ---------- Nesting Tests ----------

func TestDeeplyNestedParentheses(t *testing.T) {
	const depth = 50000
	open, closed := strings.Repeat("(", depth), strings.Repeat(")", depth)

	tests := []struct {
		name  string
		src   string
		kind  string
		count int
	}{
		{"expression", "SELECT " + open + "1" + closed, "parenthesized_expression", depth},
		{"subquery", "SELECT " + open + "SELECT 1" + closed, "subquery", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			began := time.Now()
			tree := parseClean(t, tt.src)
			assert.Less(t, time.Since(began), 5*time.Second)
			assert.Len(t, tree.Root.FindAll(tt.kind), tt.count)
		})
	}
}
