package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgsyntax/internal/cli/output"
	"github.com/leapstack-labs/pgsyntax/internal/config"
	"github.com/leapstack-labs/pgsyntax/internal/session"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-check SQL files as they change",
		Long: `Watch a directory and report syntax errors whenever a SQL file changes.

Every matching file is checked once at startup. After that only files that
were written are reparsed, reusing the unchanged parts of their previous
syntax tree. Bursts of changes are coalesced (see --debounce).

Press Ctrl+C to stop.`,
		Example: `  # Watch the project root
  pgsyntax watch

  # Watch migrations, waiting half a second for editors to settle
  pgsyntax watch migrations --debounce 500ms`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			dir := cmdCtx.Cfg.Root
			if len(args) > 0 {
				dir = args[0]
			}
			return runWatch(cmd.Context(), cmdCtx, dir)
		},
	}

	cmd.Flags().Duration("debounce", config.DefaultDebounce, "Wait this long after a change before reparsing")

	return cmd
}

// fileWatcher keeps the latest tree of every watched file.
type fileWatcher struct {
	dir     string
	cfg     *config.Config
	cmdCtx  *CommandContext
	mu      sync.Mutex
	trees   map[string]*parser.Tree
	pending map[string]struct{}
}

func newFileWatcher(cmdCtx *CommandContext, dir string) *fileWatcher {
	return &fileWatcher{
		dir:     dir,
		cfg:     cmdCtx.Cfg,
		cmdCtx:  cmdCtx,
		trees:   make(map[string]*parser.Tree),
		pending: make(map[string]struct{}),
	}
}

func runWatch(ctx context.Context, cmdCtx *CommandContext, dir string) error {
	logger := cmdCtx.Logger
	w := newFileWatcher(cmdCtx, dir)
	if err := w.checkAll(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	cmdCtx.Renderer.Muted(fmt.Sprintf("watching %s for changes...", dir))

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.matches(event.Name) {
				continue
			}
			w.mark(event.Name)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.cfg.Watch.Debounce, w.flush)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// checkAll parses every matching file and reports the ones with errors.
func (w *fileWatcher) checkAll(ctx context.Context) error {
	paths, err := session.Discover(w.dir, w.cfg.Include, w.cfg.Exclude)
	if err != nil {
		return err
	}
	results, err := session.ParseFiles(ctx, paths, w.cfg.Workers)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, res := range results {
		w.trees[res.Path] = res.Tree
	}
	return renderCheck(w.cmdCtx.Renderer, buildCheckOutput(results))
}

// matches reports whether path is a file the watcher cares about.
func (w *fileWatcher) matches(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return session.MatchAny(w.cfg.Include, rel) && !session.MatchAny(w.cfg.Exclude, rel)
}

func (w *fileWatcher) mark(path string) {
	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.mu.Unlock()
}

// flush reparses every file changed since the last flush.
func (w *fileWatcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	sort.Strings(paths)

	for _, p := range paths {
		tree, err := w.reparse(p)
		if err != nil {
			w.cmdCtx.Logger.Warn("skipping file", "path", p, "error", err)
			continue
		}
		w.report(p, tree)
	}
}

// reparse brings the tree of path up to date with the file's content.
// Must be called with mu held.
func (w *fileWatcher) reparse(path string) (*parser.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src := string(data)

	var tree *parser.Tree
	if old, ok := w.trees[path]; ok {
		tree = parser.Reparse(old, diffEdit(old.Source, src))
	} else {
		tree = parser.Parse(src)
	}
	w.trees[path] = tree
	w.cmdCtx.Logger.Debug("reparsed", "path", path, "bytes", len(src), "diagnostics", len(tree.Diagnostics))
	return tree, nil
}

func (w *fileWatcher) report(path string, tree *parser.Tree) {
	r := w.cmdCtx.Renderer
	file := output.CheckFile{
		Path:        path,
		Statements:  countStatements(tree),
		Diagnostics: diagnosticsOutput(tree),
	}
	if ok, err := r.Structured(file); ok {
		if err != nil {
			w.cmdCtx.Logger.Error("failed to write report", "error", err)
		}
		return
	}
	if len(file.Diagnostics) == 0 {
		r.Success(fmt.Sprintf("%s: %d statements, no syntax errors", path, file.Statements))
		return
	}
	renderDiagnosticLines(r, path, file.Diagnostics)
}

// diffEdit describes the change from old to cur as a single edit covering
// everything between their common prefix and common suffix.
func diffEdit(old, cur string) parser.Edit {
	prefix := 0
	for prefix < len(old) && prefix < len(cur) && old[prefix] == cur[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(cur)-prefix &&
		old[len(old)-1-suffix] == cur[len(cur)-1-suffix] {
		suffix++
	}
	return parser.Edit{
		Start:   prefix,
		OldEnd:  len(old) - suffix,
		NewEnd:  len(cur) - suffix,
		NewText: cur[prefix : len(cur)-suffix],
	}
}
