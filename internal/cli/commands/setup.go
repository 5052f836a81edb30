package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/internal/config"
)

// ErrSyntaxErrors is returned by commands that found syntax errors, so that
// the process exits non-zero after the report has been printed.
var ErrSyntaxErrors = errors.New("syntax errors found")

// CommandContext holds what every command needs.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the config and logger the
// root command stored in cmd's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// readSource reads a named file, or standard input when name is "-" or
// empty. inline, when set, wins over both.
func readSource(cmd *cobra.Command, name, inline string) (string, string, error) {
	if inline != "" {
		return "<inline>", inline, nil
	}
	if name == "" || name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return name, string(data), nil
}
