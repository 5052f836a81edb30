package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/internal/config"
	"github.com/leapstack-labs/pgsyntax/internal/session"
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Report syntax errors in SQL files",
		Long: `Parse SQL files and report their syntax errors.

Paths may be files, directories or glob patterns. Directories are searched
with the include and exclude patterns from the configuration; with no
paths the project root is searched.

Files are parsed concurrently (see --workers). The command exits non-zero
when any file has a syntax error.`,
		Example: `  # Check every .sql file under the project root
  pgsyntax check

  # Check a directory and a single file
  pgsyntax check migrations/ scratch.sql

  # Machine-readable report
  pgsyntax check -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}

	cmd.Flags().StringSlice("include", nil, "File patterns to include (default **/*.sql)")
	cmd.Flags().StringSlice("exclude", nil, "File patterns to exclude")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	paths, err := resolvePaths(cfg, args)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Debug("checking files", "count", len(paths), "workers", cfg.Workers)

	results, err := session.ParseFiles(cmd.Context(), paths, cfg.Workers)
	if err != nil {
		return err
	}

	report := buildCheckOutput(results)
	if err := renderCheck(cmdCtx.Renderer, report); err != nil {
		return err
	}
	if report.Summary.Diagnostics > 0 {
		return ErrSyntaxErrors
	}
	return nil
}

// resolvePaths expands command arguments into the files to check.
func resolvePaths(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		return session.Discover(cfg.Root, cfg.Include, cfg.Exclude)
	}

	var paths []string
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			paths = append(paths, matches...)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot check %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := session.Discover(arg, cfg.Include, cfg.Exclude)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

// buildCheckOutput summarises parse results.
func buildCheckOutput(results []session.FileResult) output.CheckOutput {
	report := output.CheckOutput{Files: make([]output.CheckFile, 0, len(results))}
	for _, res := range results {
		file := output.CheckFile{
			Path:        res.Path,
			Statements:  countStatements(res.Tree),
			Diagnostics: diagnosticsOutput(res.Tree),
		}
		report.Summary.FilesChecked++
		report.Summary.Statements += file.Statements
		report.Summary.Diagnostics += len(file.Diagnostics)
		if len(file.Diagnostics) > 0 {
			report.Summary.FilesWithError++
		}
		report.Files = append(report.Files, file)
	}
	return report
}

// countStatements counts the top-level statements, transactions and blocks.
func countStatements(tree *parser.Tree) int {
	n := 0
	for _, c := range tree.Root.Children {
		switch c.Kind {
		case cst.KindStatement, "transaction", "block":
			n++
		}
	}
	return n
}

func renderCheck(r *output.Renderer, report output.CheckOutput) error {
	if ok, err := r.Structured(report); ok {
		return err
	}

	s := report.Summary
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Header(1, "Syntax Check")
		for _, f := range report.Files {
			if len(f.Diagnostics) == 0 {
				continue
			}
			r.Header(2, f.Path)
			renderDiagnosticTable(r, f.Diagnostics)
			r.Println("")
		}
		r.Println(output.FormatKeyValue(output.Title("files_checked"), s.FilesChecked))
		r.Println(output.FormatKeyValue(output.Title("statements"), s.Statements))
		r.Println(output.FormatKeyValue(output.Title("diagnostics"), s.Diagnostics))
		return nil
	}

	for _, f := range report.Files {
		renderDiagnosticLines(r, f.Path, f.Diagnostics)
	}
	if s.Diagnostics == 0 {
		r.Success(fmt.Sprintf("%d files, %d statements, no syntax errors", s.FilesChecked, s.Statements))
		return nil
	}
	r.Printf("\n%s %d errors in %d of %d files\n",
		r.Styles().StatusFailed.String(), s.Diagnostics, s.FilesWithError, s.FilesChecked)
	return nil
}
