package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/internal/config"
	"github.com/leapstack-labs/pgsyntax/internal/testutil"
)

// runCommand executes cmd with a default configuration in the given
// output mode and returns what it wrote to stdout.
func runCommand(t *testing.T, cmd *cobra.Command, mode string, args ...string) (string, error) {
	t.Helper()
	cfg := config.Default()
	cfg.Output = mode
	cfg.Root = t.TempDir()

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))
	cmd.SetContext(ctx)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSQL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewParseCommand(t *testing.T) {
	cmd := NewParseCommand()

	assert.Equal(t, "parse [file]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"sql", "anonymous"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewCheckCommand(t *testing.T) {
	cmd := NewCheckCommand()

	assert.Equal(t, "check [path...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	for _, flag := range []string{"include", "exclude"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	assert.Equal(t, "watch [dir]", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("debounce"))
}

func TestNewTokensCommand(t *testing.T) {
	cmd := NewTokensCommand()

	assert.Equal(t, "tokens [file]", cmd.Use)
	for _, flag := range []string{"sql", "trivia"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewLSPCommand(t *testing.T) {
	cmd := NewLSPCommand("test")

	assert.Equal(t, "lsp", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("log-file"))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		wantOut  []string
		wantNone []string
	}{
		{
			name:    "text dump",
			mode:    config.OutputText,
			wantOut: []string{"program", "select", "keyword_select `SELECT`"},
		},
		{
			name:    "sexp",
			mode:    config.OutputSexp,
			wantOut: []string{"(program (statement (select"},
		},
		{
			name:    "markdown",
			mode:    config.OutputMarkdown,
			wantOut: []string{"## <inline>", "```"},
		},
		{
			name:     "diagnostics in text",
			mode:     config.OutputText,
			wantOut:  []string{"ERROR", `<inline>:1:1`, `syntax error at or near "SELEC"`},
			wantNone: []string{"keyword_select"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "SELECT a FROM t;"
			if strings.HasPrefix(tt.name, "diagnostics") {
				src = "SELEC a;"
			}
			out, err := runCommand(t, NewParseCommand(), tt.mode, "-e", src)
			require.NoError(t, err, "parse never fails on bad input")
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.wantNone {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestParseCommandJSON(t *testing.T) {
	out, err := runCommand(t, NewParseCommand(), config.OutputJSON, "-e", "SELEC 1;")
	require.NoError(t, err)

	var got output.ParseOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "<inline>", got.Source)
	require.NotNil(t, got.Tree)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, "error", got.Diagnostics[0].Severity)
	assert.Equal(t, 1, got.Diagnostics[0].Line)
	assert.Equal(t, 5, got.Diagnostics[0].EndByte)
}

func TestParseCommandReadsFile(t *testing.T) {
	path := writeSQL(t, t.TempDir(), "q.sql", "SELECT 1;")
	out, err := runCommand(t, NewParseCommand(), config.OutputSexp, path)
	require.NoError(t, err)
	assert.Contains(t, out, "(select")

	_, err = runCommand(t, NewParseCommand(), config.OutputSexp, filepath.Join(t.TempDir(), "missing.sql"))
	assert.Error(t, err)
}

func TestTokensCommand(t *testing.T) {
	out, err := runCommand(t, NewTokensCommand(), config.OutputJSON, "-e", "SELECT 1")
	require.NoError(t, err)

	var rows []output.TokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2, "whitespace is hidden without --trivia")
	assert.Equal(t, output.TokenOutput{Type: "IDENT", Keyword: "select", Start: 0, End: 6, Text: "SELECT"}, rows[0])
	assert.Equal(t, "INTEGER", rows[1].Type)

	out, err = runCommand(t, NewTokensCommand(), config.OutputJSON, "-e", "SELECT 1", "--trivia")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 3)
	assert.Equal(t, "WHITESPACE", rows[1].Type)
}

func TestTokensCommandTable(t *testing.T) {
	out, err := runCommand(t, NewTokensCommand(), config.OutputMarkdown, "-e", "a.b")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), "| type")
	assert.Contains(t, out, `"."`)
}
