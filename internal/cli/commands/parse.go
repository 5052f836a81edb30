package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	SQL       string // inline source, wins over the file argument
	Anonymous bool   // keep anonymous tokens in JSON/YAML trees
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the syntax tree of a SQL file",
		Long: `Parse a SQL file (or stdin) and print its concrete syntax tree.

Parsing never fails: malformed input shows up as ERROR and MISSING nodes
in the tree, with the matching diagnostics listed after it.

Output adapts to the output mode:
  - text:     indented tree with source excerpts
  - markdown: the same tree in a code block plus a diagnostics table
  - sexp:     one-line S-expression of the named nodes
  - json/yaml: full tree with byte offsets`,
		Example: `  # Parse a file
  pgsyntax parse migrations/001_init.sql

  # Parse inline SQL as an S-expression
  pgsyntax parse -e "SELECT a FROM t" -o sexp

  # Dump the tree with every token as JSON
  pgsyntax parse schema.sql -o json --anonymous`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runParse(cmd, name, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.SQL, "sql", "e", "", "Parse this SQL instead of a file")
	cmd.Flags().BoolVar(&opts.Anonymous, "anonymous", false, "Include anonymous tokens in json/yaml output")

	return cmd
}

func runParse(cmd *cobra.Command, name string, opts *ParseOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	name, src, err := readSource(cmd, name, opts.SQL)
	if err != nil {
		return err
	}
	tree := parser.Parse(src)
	cmdCtx.Logger.Debug("parsed", "source", name, "bytes", len(src), "diagnostics", len(tree.Diagnostics))

	if ok, err := r.Structured(output.ParseOutput{
		Source:      name,
		Tree:        tree.Root.Encode(src, opts.Anonymous),
		Diagnostics: diagnosticsOutput(tree),
	}); ok {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeSexp:
		r.Println(tree.Root.String())
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(2, name))
		r.Println("")
		r.Println(output.FormatCodeBlock("", tree.Root.Dump(src)))
		if len(tree.Diagnostics) > 0 {
			r.Println("")
			renderDiagnosticTable(r, diagnosticsOutput(tree))
		}
	default:
		r.Printf("%s", tree.Root.Dump(src))
		renderDiagnosticLines(r, name, diagnosticsOutput(tree))
	}
	return nil
}

// diagnosticsOutput converts the diagnostics of tree for rendering.
func diagnosticsOutput(tree *parser.Tree) []output.DiagnosticOutput {
	lines := token.NewLineIndex(tree.Source)
	out := make([]output.DiagnosticOutput, 0, len(tree.Diagnostics))
	for _, d := range tree.Diagnostics {
		pos := lines.Position(d.Span.Start)
		out = append(out, output.DiagnosticOutput{
			Severity:  d.Severity.String(),
			Message:   d.Message,
			Line:      pos.Line,
			Column:    pos.Column,
			StartByte: d.Span.Start,
			EndByte:   d.Span.End,
		})
	}
	return out
}

// renderDiagnosticLines prints diagnostics compiler-style, one per line.
func renderDiagnosticLines(r *output.Renderer, path string, diags []output.DiagnosticOutput) {
	styles := r.Styles()
	for _, d := range diags {
		loc := fmt.Sprintf("%s:%d:%d", path, d.Line, d.Column)
		r.Printf("%s  %s  %s\n",
			styles.Path.Render(loc),
			styles.Error.Render(d.Severity),
			d.Message,
		)
	}
}

// renderDiagnosticTable prints diagnostics as a table.
func renderDiagnosticTable(r *output.Renderer, diags []output.DiagnosticOutput) {
	rows := make([][]string, 0, len(diags))
	for _, d := range diags {
		rows = append(rows, []string{
			strconv.Itoa(d.Line),
			strconv.Itoa(d.Column),
			d.Severity,
			d.Message,
		})
	}
	r.Table([]string{"Line", "Col", "Severity", "Message"}, rows)
}
