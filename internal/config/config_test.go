package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.String("log-level", "", "")
	fs.Int("workers", 0, "")
	fs.Duration("debounce", 0, "")
	fs.String("log-file", "", "")
	fs.StringSlice("include", nil, "")
	return fs
}

func absTestdata(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs("testdata")
	require.NoError(t, err)
	return dir
}

// ---------- Load Tests ----------

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, DefaultInclude, cfg.Include)
	assert.Equal(t, OutputAuto, cfg.Output)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
	assert.Positive(t, cfg.Workers, "workers should default to the CPU count")
}

func TestLoad_File(t *testing.T) {
	dir := absTestdata(t)
	cfg, err := Load(filepath.Join(dir, "pgsyntax.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"migrations/**/*.sql"}, cfg.Include)
	assert.Equal(t, []string{"migrations/legacy/*.sql"}, cfg.Exclude)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, filepath.Join(dir, "logs", "lsp.log"), cfg.LSP.LogFile)
}

func TestLoad_UpwardSearch(t *testing.T) {
	dir := absTestdata(t)
	t.Chdir(filepath.Join(dir, "nested", "deeper"))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pgsyntax.yaml"), cfg.File)
	assert.Equal(t, OutputJSON, cfg.Output)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "invalid_output.yaml"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "html")
}

func TestLoad_EnvPrecedenceOverFile(t *testing.T) {
	t.Setenv("PGSYNTAX_OUTPUT", "yaml")
	t.Setenv("PGSYNTAX_WATCH__DEBOUNCE", "2s")
	t.Setenv("PGSYNTAX_INCLUDE", "a.sql,b/*.sql")

	cfg, err := Load(filepath.Join("testdata", "pgsyntax.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, OutputYAML, cfg.Output)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, []string{"a.sql", "b/*.sql"}, cfg.Include)
}

func TestLoad_FlagPrecedence(t *testing.T) {
	t.Setenv("PGSYNTAX_OUTPUT", "yaml")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--output", "sexp", "--workers", "7", "--debounce", "1s"}))

	cfg, err := Load(filepath.Join("testdata", "pgsyntax.yaml"), fs)
	require.NoError(t, err)

	assert.Equal(t, OutputSexp, cfg.Output, "flag should override env and file")
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestLoad_FlagNotSetUsesEnv(t *testing.T) {
	t.Setenv("PGSYNTAX_LOG_LEVEL", "error")

	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(filepath.Join("testdata", "pgsyntax.yaml"), fs)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_VerboseForcesDebug(t *testing.T) {
	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"-v"}))

	cfg, err := Load(filepath.Join("testdata", "pgsyntax.yaml"), fs)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

// ---------- Validation Tests ----------

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown output", func(c *Config) { c.Output = "html" }, "output"},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, "debounce"},
		{"bad pattern", func(c *Config) { c.Exclude = []string{"[a-"} }, "pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLogLevel("chatty")
	assert.Error(t, err)
}

// ---------- Logger Tests ----------

func TestGetLogger(t *testing.T) {
	t.Run("falls back to a discard logger", func(t *testing.T) {
		assert.NotNil(t, GetLogger(context.Background()))
	})

	t.Run("returns the stored logger", func(t *testing.T) {
		logger := slog.New(slog.DiscardHandler)
		ctx := WithLogger(context.Background(), logger)
		assert.Same(t, logger, GetLogger(ctx))
	})
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))

	cfg := Default()
	cfg.Output = OutputYAML
	assert.Same(t, cfg, FromContext(WithConfig(context.Background(), cfg)))
}
