package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

func newTestREPL() (*replSession, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return newREPLSession(output.NewRenderer(&out, &errOut, output.ModeText)), &out, &errOut
}

func TestREPLReportsCompletedStatements(t *testing.T) {
	s, out, _ := newTestREPL()

	assert.False(t, s.feed("SELECT a"))
	assert.True(t, s.pending())
	assert.Empty(t, out.String(), "nothing is printed before the terminator")

	assert.False(t, s.feed("FROM t;"))
	assert.False(t, s.pending())
	assert.Contains(t, out.String(), "keyword_select `SELECT`")
	assert.Contains(t, out.String(), "keyword_from `FROM`")

	out.Reset()
	s.feed("SELEC 1;")
	assert.Contains(t, out.String(), "ERROR")
	assert.Contains(t, out.String(), "<repl>:3:1")
	assert.NotContains(t, out.String(), "keyword_from", "earlier statements are not repeated")

	assert.Equal(t, "SELECT a\nFROM t;\nSELEC 1;\n", s.tree.Source)
	assert.Equal(t, parser.Parse(s.tree.Source).Root.String(), s.tree.Root.String())
}

func TestREPLMetaCommandFlushes(t *testing.T) {
	s, out, _ := newTestREPL()
	s.feed(`\echo hello`)
	assert.Contains(t, out.String(), "psql_meta_command")
	assert.False(t, s.pending())
}

func TestREPLDotCommands(t *testing.T) {
	s, out, errOut := newTestREPL()
	s.feed("SELECT 1;")

	tests := []struct {
		line string
		want string
	}{
		{".sexp", "(program (statement (select"},
		{".tree", "program\n"},
		{".source", "SELECT 1;\n"},
		{".diag", "no syntax errors"},
		{".help", ".reset"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			assert.False(t, s.feed(tt.line))
			assert.Contains(t, out.String(), tt.want)
		})
	}

	assert.False(t, s.feed(".nope"))
	assert.Contains(t, errOut.String(), "unknown command: .nope")

	s.feed(".reset")
	assert.Empty(t, s.tree.Source)
	assert.Equal(t, 0, s.reported)

	assert.True(t, s.feed(".quit"))
	assert.True(t, s.feed(".EXIT"))
}

func TestREPLDotInsideStatementIsSQL(t *testing.T) {
	s, _, _ := newTestREPL()
	s.feed("SELECT a")
	assert.False(t, s.feed(".5;"), "a pending statement swallows lines starting with a dot")
	assert.Equal(t, "SELECT a\n.5;\n", s.tree.Source)
}

func TestREPLDiscardPending(t *testing.T) {
	s, _, _ := newTestREPL()
	s.feed("SELECT 1;")
	s.feed("SELECT broken")
	require.True(t, s.pending())

	s.discardPending()
	assert.False(t, s.pending())
	assert.Equal(t, "SELECT 1;\n", s.tree.Source)
	assert.Empty(t, s.tree.Diagnostics)
}
