package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

const (
	replPrompt         = "pgsyntax> "
	replContinuePrompt = "     ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Parse SQL interactively",
		Long: `Start an interactive session that parses SQL as you type it.

Lines are appended to one growing buffer that is reparsed incrementally.
Once a statement is terminated with a semicolon (or a psql meta-command is
entered) its syntax tree and any diagnostics are printed.

Type .help for the available commands.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContext(cmd)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     replHistoryFile(),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cmdCtx.Renderer
	r.Println("pgsyntax REPL")
	r.Println("Type .help for commands, .quit to exit")
	r.Println("")

	repl := newREPLSession(r)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			repl.discardPending()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if repl.feed(line) {
			break
		}
		if repl.pending() {
			rl.SetPrompt(replContinuePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
	return nil
}

// replHistoryFile returns where REPL history is kept, or "" for none.
func replHistoryFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "pgsyntax")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "repl_history")
}

// replSession is the state of one REPL: the buffer typed so far, its tree,
// and how much of it has already been reported.
type replSession struct {
	r        *output.Renderer
	tree     *parser.Tree
	reported int // offset up to which statements have been printed
}

func newREPLSession(r *output.Renderer) *replSession {
	return &replSession{r: r, tree: parser.Parse("")}
}

// feed handles one input line and reports whether the session should end.
func (s *replSession) feed(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" && !s.pending() {
		return false
	}
	if strings.HasPrefix(trimmed, ".") && !s.pending() {
		return s.dotCommand(trimmed)
	}

	s.appendText(line + "\n")
	if strings.HasSuffix(trimmed, ";") || strings.HasPrefix(trimmed, `\`) {
		s.flush()
	}
	return false
}

// appendText extends the buffer, reparsing only what the addition touches.
func (s *replSession) appendText(text string) {
	end := len(s.tree.Source)
	s.tree = parser.Reparse(s.tree, parser.Edit{
		Start:   end,
		OldEnd:  end,
		NewEnd:  end + len(text),
		NewText: text,
	})
}

// pending reports whether there is unreported, non-blank input.
func (s *replSession) pending() bool {
	return strings.TrimSpace(s.tree.Source[s.reported:]) != ""
}

// discardPending drops input that has not been reported yet.
func (s *replSession) discardPending() {
	if !s.pending() {
		return
	}
	end := len(s.tree.Source)
	s.tree = parser.Reparse(s.tree, parser.Edit{Start: s.reported, OldEnd: end, NewEnd: s.reported})
}

// flush prints the statements and diagnostics added since the last flush.
// A statement that began earlier but was still open (a transaction waiting
// for COMMIT) is printed again in full.
func (s *replSession) flush() {
	src := s.tree.Source
	for _, n := range s.tree.Root.Children {
		if n.Span.End <= s.reported || !n.Named {
			continue
		}
		s.r.Printf("%s", n.Dump(src))
	}
	var diags []parser.Diagnostic
	for _, d := range s.tree.Diagnostics {
		if d.Span.End > s.reported || d.Span.Start >= s.reported {
			diags = append(diags, d)
		}
	}
	renderDiagnosticLines(s.r, "<repl>", diagnosticsOutput(&parser.Tree{Source: src, Diagnostics: diags}))
	s.reported = len(src)
}

func (s *replSession) dotCommand(line string) bool {
	command := strings.ToLower(strings.Fields(line)[0])
	r := s.r

	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(r)
	case ".tree":
		r.Printf("%s", s.tree.Root.Dump(s.tree.Source))
	case ".sexp":
		r.Println(s.tree.Root.String())
	case ".diag":
		if len(s.tree.Diagnostics) == 0 {
			r.Success("no syntax errors")
			break
		}
		renderDiagnosticLines(r, "<repl>", diagnosticsOutput(s.tree))
	case ".source":
		r.Printf("%s", s.tree.Source)
	case ".reset":
		s.tree = parser.Parse("")
		s.reported = 0
		r.Muted("buffer cleared")
	default:
		r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(r *output.Renderer) {
	r.Println(`
Commands:
  .help           Show this help message
  .tree           Show the tree of everything entered so far
  .sexp           Show that tree as an S-expression
  .diag           List every diagnostic in the buffer
  .source         Show the buffer
  .reset          Start over with an empty buffer
  .quit / .exit   Exit the REPL

Tips:
  - Statements are parsed once they end with a semicolon (;)
  - psql meta-commands (\echo, \set, ...) are parsed immediately
  - Ctrl+C discards the statement being typed`)
}

func newREPLCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, c := range []string{".help", ".tree", ".sexp", ".diag", ".source", ".reset", ".quit", ".exit"} {
		items = append(items, readline.PcItem(c))
	}
	for _, kw := range []string{
		"SELECT", "INSERT INTO", "UPDATE", "DELETE FROM", "WITH",
		"CREATE TABLE", "CREATE FUNCTION", "ALTER TABLE", "DROP TABLE",
		"BEGIN", "COMMIT", "ROLLBACK", "COPY",
	} {
		items = append(items, readline.PcItem(kw))
	}
	return readline.NewPrefixCompleter(items...)
}
