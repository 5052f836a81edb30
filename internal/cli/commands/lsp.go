package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgsyntax/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. Documents are
synced incrementally and reparsed on every change; the server publishes
syntax diagnostics and answers hover and document symbol requests.

Logs go to stderr unless lsp.log_file (or --log-file) names a file.`,
		Example: `  # Start LSP server (usually called by an editor)
  pgsyntax lsp

  # Keep a debug log
  pgsyntax lsp --log-file /tmp/pgsyntax-lsp.log -v`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd, version)
		},
	}

	cmd.Flags().String("log-file", "", "Write server logs to this file")

	return cmd
}

func runLSP(cmd *cobra.Command, version string) error {
	cmdCtx := NewCommandContext(cmd)
	logger := cmdCtx.Logger

	if path := cmdCtx.Cfg.LSP.LogFile; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: path comes from the user's own config
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logger = cmdCtx.Cfg.NewLogger(f)
	}

	server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	server.SetVersion(version)
	return server.Run()
}
