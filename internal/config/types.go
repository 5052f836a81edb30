// Package config loads pgsyntax configuration.
//
// Values are layered from lowest to highest precedence: built-in defaults,
// a pgsyntax.yaml file found by searching upward from the working
// directory, PGSYNTAX_* environment variables, and command-line flags that
// were explicitly set.
package config

import (
	"errors"
	"time"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration options.
type Config struct {
	Include  []string    `koanf:"include"`
	Exclude  []string    `koanf:"exclude"`
	Output   string      `koanf:"output"`
	Verbose  bool        `koanf:"verbose"`
	LogLevel string      `koanf:"log_level"`
	Workers  int         `koanf:"workers"`
	Watch    WatchConfig `koanf:"watch"`
	LSP      LSPConfig   `koanf:"lsp"`

	// File is the config file that was read, empty when none was found.
	File string `koanf:"-"`
	// Root is the directory relative paths are resolved against.
	Root string `koanf:"-"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// LSPConfig configures the language server.
type LSPConfig struct {
	LogFile string `koanf:"log_file"` // empty logs to stderr
}

// Output modes accepted by the output key.
const (
	OutputAuto     = "auto" // TTY: text, otherwise markdown
	OutputText     = "text"
	OutputMarkdown = "markdown"
	OutputJSON     = "json"
	OutputYAML     = "yaml"
	OutputSexp     = "sexp"
)

// OutputModes lists every valid output mode.
var OutputModes = []string{OutputAuto, OutputText, OutputMarkdown, OutputJSON, OutputYAML, OutputSexp}
