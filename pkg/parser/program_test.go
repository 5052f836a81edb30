package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/pkg/cst"
)

// ---------- Program Structure Tests ----------

func TestProgramItems(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \n\t", nil},
		{"one statement", "SELECT 1;", []string{"statement", ";"}},
		{"final statement without semicolon", "SELECT 1; SELECT 2", []string{"statement", ";", "statement"}},
		{"lone semicolons", ";;", []string{";", ";"}},
		{"meta command", "\\set x 1\nSELECT :x;", []string{"psql_meta_command", "statement", ";"}},
		{"meta command ends a statement", "SELECT 1\n\\gset\nSELECT 2;", []string{"statement", "psql_meta_command", "statement", ";"}},
		{"transaction", "BEGIN; INSERT INTO t VALUES (1); COMMIT;", []string{"transaction", ";"}},
		{"transaction at end of input", "BEGIN TRANSACTION; SELECT 1; ROLLBACK", []string{"transaction"}},
		{"block", "BEGIN SELECT 1; END;", []string{"block", ";"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parseClean(t, tt.input)
			assert.Equal(t, tt.want, topKinds(tree))
		})
	}
}

func TestTransactionContents(t *testing.T) {
	tree := parseClean(t, "BEGIN; UPDATE t SET a = 1; DELETE FROM t; COMMIT;")
	tx := tree.Root.Children[0]
	require.Equal(t, "transaction", tx.Kind)

	var statements int
	for _, c := range tx.Children {
		if c.Kind == cst.KindStatement {
			statements++
		}
	}
	assert.Equal(t, 2, statements)
	assert.NotNil(t, tx.ChildByKind("keyword_commit"))
}

func TestUnfinishedTransaction(t *testing.T) {
	tree := parse(t, "BEGIN; SELECT 1;")
	require.Len(t, tree.Diagnostics, 1)
	assert.Equal(t, "missing keyword_commit", tree.Diagnostics[0].Message)

	tx := tree.Root.Children[0]
	require.Equal(t, "transaction", tx.Kind)
	commit := tx.ChildByKind("keyword_commit")
	require.NotNil(t, commit)
	assert.True(t, commit.Missing)
}

// ---------- Error Recovery Tests ----------

func TestRecoveryWrapsUnknownStatement(t *testing.T) {
	tree := parse(t, "SELEC 1;")
	assert.Equal(t, []string{"ERROR", ";"}, topKinds(tree))

	bad := tree.Root.Children[0]
	require.Len(t, bad.Children, 2)
	assert.Equal(t, "identifier", bad.Children[0].Kind)
	assert.Equal(t, "literal", bad.Children[1].Kind)

	require.Len(t, tree.Diagnostics, 1)
	assert.Equal(t, `syntax error at or near "SELEC"`, tree.Diagnostics[0].Message)
	assert.Equal(t, 0, tree.Diagnostics[0].Span.Start)
	assert.Equal(t, 5, tree.Diagnostics[0].Span.End)
}

func TestRecoveryKeepsFollowingStatements(t *testing.T) {
	tree := parse(t, "SELECT 1;\nSELEC 2;\nSELECT 3;")
	assert.Equal(t, []string{"statement", ";", "ERROR", ";", "statement", ";"}, topKinds(tree))
	assert.Len(t, tree.Diagnostics, 1)
}

func TestLeftoverTokensBecomeError(t *testing.T) {
	tree := parse(t, "SELECT 1 2;")
	assert.Equal(t, []string{"statement", "ERROR", ";"}, topKinds(tree))
	require.Len(t, tree.Diagnostics, 1)
	assert.Contains(t, tree.Diagnostics[0].Message, `"2"`)
}

func TestMissingNodes(t *testing.T) {
	tree := parse(t, "SELECT (1 + 2;")
	require.NotEmpty(t, tree.Diagnostics)
	assert.True(t, tree.Root.HasError())

	var missing []*cst.Node
	tree.Root.Walk(func(n *cst.Node) bool {
		if n.Missing {
			missing = append(missing, n)
		}
		return true
	})
	require.Len(t, missing, 1)
	assert.Equal(t, 0, missing[0].Span.Len())
	assert.Equal(t, len("SELECT (1 + 2"), missing[0].Span.Start)
}

func TestIllegalCharacterReportedOnce(t *testing.T) {
	tree := parse(t, "\x01 SELECT 1;")
	require.Len(t, tree.Diagnostics, 1)
	assert.Contains(t, tree.Diagnostics[0].Message, "unexpected character")
	assert.Equal(t, "ERROR", tree.Root.Children[0].Kind)
}

func TestUnterminatedString(t *testing.T) {
	tree := parse(t, "SELECT 'abc")
	require.Len(t, tree.Diagnostics, 1)
	assert.Equal(t, "unterminated quoted string", tree.Diagnostics[0].Message)
}

// ---------- COPY Stream Tests ----------

func TestCopyFromStdinData(t *testing.T) {
	src := "COPY t (a, b) FROM STDIN;\n1\tfoo\n\n2\tbar\n\\.\nSELECT 1;"
	tree := parseClean(t, src)
	assert.Equal(t, []string{
		"statement", ";", "copy_data_line", "copy_data_line", "psql_meta_command", "statement", ";",
	}, topKinds(tree))

	lines := tree.Root.FindAll("copy_data_line")
	require.Len(t, lines, 2)
	assert.Equal(t, "1\tfoo", lines[0].Text(src))
	assert.Equal(t, "2\tbar", lines[1].Text(src))
	assert.Equal(t, "\\.", tree.Root.Children[4].Text(src))
}

func TestCopyFromStdinWithoutData(t *testing.T) {
	tree := parseClean(t, "COPY t FROM STDIN;")
	assert.Equal(t, []string{"statement", ";"}, topKinds(tree))
}

func TestCopyFromStdinUnterminated(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		lines []string
	}{
		{"single line", "COPY t FROM STDIN;\n1\tfoo\n", []string{"1\tfoo"}},
		{"no trailing newline", "COPY t FROM STDIN;\n1\tfoo\n2\tbar", []string{"1\tfoo", "2\tbar"}},
		{"sql after data is data", "COPY t FROM STDIN;\n1\nSELECT 1;\n", []string{"1", "SELECT 1;"}},
		{"only blank lines", "COPY t FROM STDIN;\n\n\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parseClean(t, tt.src)
			assert.Nil(t, tree.Root.Find(cst.KindError))
			assert.Nil(t, tree.Root.Find("psql_meta_command"))

			want := []string{"statement", ";"}
			var got []string
			for _, l := range tree.Root.FindAll("copy_data_line") {
				got = append(got, l.Text(tt.src))
				want = append(want, "copy_data_line")
			}
			assert.Equal(t, tt.lines, got)
			assert.Equal(t, want, topKinds(tree))
		})
	}
}

func TestCopyToStdoutHasNoData(t *testing.T) {
	tree := parseClean(t, "COPY t TO STDOUT;\nSELECT 1;")
	assert.Equal(t, []string{"statement", ";", "statement", ";"}, topKinds(tree))
}
