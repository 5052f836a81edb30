package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// TokensOptions holds options for the tokens command.
type TokensOptions struct {
	SQL    string
	Trivia bool // include whitespace and comments
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	opts := &TokensOptions{}
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of a SQL file",
		Long: `Tokenize a SQL file (or stdin) and print one row per token.

Dollar-quoted strings show up as their three parts (start tag, body, end
tag). Whitespace and comments are hidden unless --trivia is given.`,
		Example: `  # Tokens of inline SQL
  pgsyntax tokens -e "SELECT \$a\$ x \$a\$"

  # Include whitespace and comments, as JSON
  pgsyntax tokens query.sql --trivia -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runTokens(cmd, name, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.SQL, "sql", "e", "", "Tokenize this SQL instead of a file")
	cmd.Flags().BoolVar(&opts.Trivia, "trivia", false, "Include whitespace and comments")

	return cmd
}

func runTokens(cmd *cobra.Command, name string, opts *TokensOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	_, src, err := readSource(cmd, name, opts.SQL)
	if err != nil {
		return err
	}
	toks, diags := parser.Tokenize(src)

	rows := make([]output.TokenOutput, 0, len(toks))
	for _, tok := range toks {
		if tok.Type == token.EOF || (!opts.Trivia && tok.Type.IsTrivia()) {
			continue
		}
		rows = append(rows, output.TokenOutput{
			Type:    tok.Type.String(),
			Keyword: tok.Keyword,
			Start:   tok.Span.Start,
			End:     tok.Span.End,
			Text:    tok.Literal,
		})
	}

	if ok, err := r.Structured(rows); ok {
		return err
	}

	table := make([][]string, 0, len(rows))
	for i, row := range rows {
		table = append(table, []string{
			strconv.Itoa(i + 1),
			row.Type,
			row.Keyword,
			strconv.Itoa(row.Start) + ".." + strconv.Itoa(row.End),
			strconv.Quote(row.Text),
		})
	}
	r.Table([]string{"#", "Type", "Keyword", "Span", "Text"}, table)

	for _, d := range diags {
		r.Warning(d.Message)
	}
	return nil
}
