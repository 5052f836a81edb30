package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/internal/session"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// ---------- Discovery Tests ----------

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*.sql", "a.sql", true},
		{"*.sql", "dir/a.sql", false},
		{"**/*.sql", "a.sql", true},
		{"**/*.sql", "dir/sub/a.sql", true},
		{"migrations/**/*.sql", "migrations/2024/01/up.sql", true},
		{"migrations/**/*.sql", "seeds/a.sql", false},
		{"migrations/*/up.sql", "migrations/01/up.sql", true},
		{"**", "anything/at/all", true},
		{"[bad", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.Match(tt.pattern, tt.name))
		})
	}
}

func TestDiscover(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.sql":                     "SELECT 1;",
		"migrations/001.sql":        "CREATE TABLE t (id int);",
		"migrations/legacy/000.sql": "SELEC 1;",
		"notes.txt":                 "not sql",
		".git/hooks/x.sql":          "SELECT 1;",
	})

	files, err := session.Discover(root, []string{"**/*.sql"}, []string{"migrations/legacy/*"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.sql"),
		filepath.Join(root, "migrations", "001.sql"),
	}, files)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := session.Discover(filepath.Join(t.TempDir(), "absent"), []string{"**"}, nil)
	assert.Error(t, err)
}

// ---------- Bulk Parse Tests ----------

func TestParseFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"ok.sql":     "SELECT 1;",
		"broken.sql": "SELEC 1;",
		"empty.sql":  "",
	})
	paths := []string{
		filepath.Join(root, "ok.sql"),
		filepath.Join(root, "broken.sql"),
		filepath.Join(root, "empty.sql"),
	}

	results, err := session.ParseFiles(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, paths[i], r.Path, "results keep the input order")
	}
	assert.Empty(t, results[0].Tree.Diagnostics)
	assert.Len(t, results[1].Tree.Diagnostics, 1)
	assert.Empty(t, results[2].Tree.Root.Children)
}

func TestParseFiles_ReadError(t *testing.T) {
	root := writeFiles(t, map[string]string{"ok.sql": "SELECT 1;"})
	paths := []string{filepath.Join(root, "ok.sql"), filepath.Join(root, "gone.sql")}

	_, err := session.ParseFiles(context.Background(), paths, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "gone.sql")
}

func TestParseFiles_Cancelled(t *testing.T) {
	root := writeFiles(t, map[string]string{"ok.sql": "SELECT 1;"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.ParseFiles(ctx, []string{filepath.Join(root, "ok.sql")}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
