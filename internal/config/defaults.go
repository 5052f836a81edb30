package config

import "time"

// ConfigFileName is the name of the config file.
const ConfigFileName = "pgsyntax.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "pgsyntax.yml"

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "PGSYNTAX_"

// Default configuration values.
const (
	DefaultOutput   = OutputAuto
	DefaultLogLevel = "warn"
	DefaultDebounce = 100 * time.Millisecond
)

// DefaultInclude is the file pattern used when no include globs are set.
var DefaultInclude = []string{"**/*.sql"}

// defaults returns the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"include":        DefaultInclude,
		"exclude":        []string{},
		"output":         DefaultOutput,
		"verbose":        false,
		"log_level":      DefaultLogLevel,
		"workers":        0,
		"watch.debounce": DefaultDebounce.String(),
		"lsp.log_file":   "",
	}
}

// Default returns a configuration holding only the built-in defaults.
func Default() *Config {
	return &Config{
		Include:  append([]string(nil), DefaultInclude...),
		Output:   DefaultOutput,
		LogLevel: DefaultLogLevel,
		Watch:    WatchConfig{Debounce: DefaultDebounce},
	}
}
