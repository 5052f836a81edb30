package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/internal/config"
	"github.com/leapstack-labs/pgsyntax/internal/testutil"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

func TestDiffEdit(t *testing.T) {
	tests := []struct {
		name     string
		old, cur string
		want     parser.Edit
	}{
		{"insert", "SELEC 1;", "SELECT 1;", parser.Edit{Start: 5, OldEnd: 5, NewEnd: 6, NewText: "T"}},
		{"delete", "SELECT 12;", "SELECT 1;", parser.Edit{Start: 8, OldEnd: 9, NewEnd: 8}},
		{"replace", "SELECT a;", "SELECT b;", parser.Edit{Start: 7, OldEnd: 8, NewEnd: 8, NewText: "b"}},
		{"identical", "SELECT 1;", "SELECT 1;", parser.Edit{Start: 9, OldEnd: 9, NewEnd: 9}},
		{"repeated characters", "aaa", "aaaa", parser.Edit{Start: 3, OldEnd: 3, NewEnd: 4, NewText: "a"}},
		{"from empty", "", "SELECT 1;", parser.Edit{Start: 0, OldEnd: 0, NewEnd: 9, NewText: "SELECT 1;"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diffEdit(tt.old, tt.cur)
			assert.Equal(t, tt.want, got)

			old := parser.Parse(tt.old)
			assert.Equal(t, tt.cur, parser.Reparse(old, got).Source)
		})
	}
}

func newTestWatcher(t *testing.T, dir string) (*fileWatcher, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = dir
	cfg.Exclude = []string{"tmp/**"}

	var out bytes.Buffer
	cmdCtx := &CommandContext{
		Cfg:      cfg,
		Logger:   testutil.NewTestLogger(t),
		Renderer: output.NewRenderer(&out, &bytes.Buffer{}, output.ModeText),
	}
	return newFileWatcher(cmdCtx, dir), &out
}

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	path := writeSQL(t, dir, "q.sql", "SELECT 1;\nSELEC 2;\n")

	w, out := newTestWatcher(t, dir)
	require.NoError(t, w.checkAll(context.Background()))
	assert.Contains(t, out.String(), "q.sql:2:1")
	require.Contains(t, w.trees, path)

	assert.True(t, w.matches(path))
	assert.False(t, w.matches(filepath.Join(dir, "notes.txt")))
	assert.False(t, w.matches(filepath.Join(dir, "tmp", "scratch.sql")))

	// fix the typo and flush as the debounce timer would
	out.Reset()
	require.NoError(t, os.WriteFile(path, []byte("SELECT 1;\nSELECT 2;\n"), 0o600))
	w.mark(path)
	w.flush()

	assert.Contains(t, out.String(), "2 statements, no syntax errors")
	assert.Empty(t, w.trees[path].Diagnostics)
	assert.Equal(t, parser.Parse("SELECT 1;\nSELECT 2;\n").Root.String(), w.trees[path].Root.String())
	assert.Empty(t, w.pending)
}

func TestFileWatcherNewFile(t *testing.T) {
	dir := t.TempDir()
	w, out := newTestWatcher(t, dir)
	require.NoError(t, w.checkAll(context.Background()))

	path := writeSQL(t, dir, "new.sql", "SELEC;")
	w.mark(path)
	w.flush()

	assert.Contains(t, out.String(), "new.sql:1:1")
	assert.Contains(t, w.trees, path)
}

func TestFileWatcherSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	w, out := newTestWatcher(t, dir)

	w.mark(filepath.Join(dir, "gone.sql"))
	w.flush()

	assert.Empty(t, out.String())
	assert.Empty(t, w.trees)
}
