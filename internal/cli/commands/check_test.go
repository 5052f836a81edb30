package commands

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/internal/config"
	"github.com/leapstack-labs/pgsyntax/internal/session"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	a := writeSQL(t, dir, "a.sql", "SELECT 1;")
	b := writeSQL(t, dir, "sub/b.sql", "SELECT 2;")
	writeSQL(t, dir, "notes.txt", "not sql")
	vendored := writeSQL(t, dir, "vendor/c.sql", "SELECT 3;")

	cfg := config.Default()
	cfg.Root = dir
	cfg.Exclude = []string{"vendor/**"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"root when no args", nil, []string{a, b}},
		{"directory argument", []string{filepath.Join(dir, "sub")}, []string{b}},
		{"file argument bypasses patterns", []string{vendored}, []string{vendored}},
		{"glob argument", []string{filepath.Join(dir, "*.sql")}, []string{a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePaths(cfg, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := resolvePaths(cfg, []string{filepath.Join(dir, "missing.sql")})
	assert.Error(t, err)
}

func TestBuildCheckOutput(t *testing.T) {
	results := []session.FileResult{
		{Path: "good.sql", Tree: parser.Parse("BEGIN; SELECT 1; COMMIT;\nSELECT 2;")},
		{Path: "bad.sql", Tree: parser.Parse("SELECT 1;\nSELEC 2;")},
	}
	report := buildCheckOutput(results)

	assert.Equal(t, output.CheckSummary{
		FilesChecked:   2,
		FilesWithError: 1,
		Statements:     3,
		Diagnostics:    1,
	}, report.Summary)
	require.Len(t, report.Files, 2)
	assert.Empty(t, report.Files[0].Diagnostics)
	require.Len(t, report.Files[1].Diagnostics, 1)
	assert.Equal(t, 2, report.Files[1].Diagnostics[0].Line)
	assert.Equal(t, 1, report.Files[1].Diagnostics[0].Column)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeSQL(t, dir, "ok.sql", "CREATE TABLE t (id int);\n")
	writeSQL(t, dir, "bad.sql", "SELECT 1;\nSELEC 2;\n")

	out, err := runCommand(t, NewCheckCommand(), config.OutputJSON, dir)
	require.ErrorIs(t, err, ErrSyntaxErrors)

	var report output.CheckOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Summary.FilesChecked)
	assert.Equal(t, 1, report.Summary.FilesWithError)

	out, err = runCommand(t, NewCheckCommand(), config.OutputMarkdown, dir)
	require.ErrorIs(t, err, ErrSyntaxErrors)
	assert.Contains(t, out, "# Syntax Check")
	assert.Contains(t, out, "- **Files Checked**: 2")
	assert.Contains(t, out, "SELEC")

	out, err = runCommand(t, NewCheckCommand(), config.OutputText, filepath.Join(dir, "ok.sql"))
	require.NoError(t, err)
	assert.Contains(t, out, "1 files, 1 statements, no syntax errors")
}
