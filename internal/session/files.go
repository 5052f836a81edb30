package session

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

// FileResult is the parse result of one file.
type FileResult struct {
	Path string
	Tree *parser.Tree
}

// ParseFiles reads and parses files concurrently, at most workers at a
// time (no limit when workers <= 0). Results come back in the order of
// paths. The first read error cancels the remaining work and is returned.
func ParseFiles(ctx context.Context, paths []string, workers int) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", p, err)
			}
			results[i] = FileResult{Path: p, Tree: parser.Parse(string(data))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Discover walks root and returns the files matching any include pattern
// and no exclude pattern, sorted. Patterns are slash-separated paths
// relative to root; "**" matches any number of directories. Hidden
// directories are skipped.
func Discover(root string, include, exclude []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if MatchAny(include, rel) && !MatchAny(exclude, rel) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// MatchAny reports whether name matches one of the patterns.
func MatchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if Match(p, name) {
			return true
		}
	}
	return false
}

// Match reports whether a slash-separated name matches pattern. Segments
// use path.Match syntax; a "**" segment matches zero or more segments.
func Match(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pat, name []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			for i := 0; i <= len(name); i++ {
				if matchSegments(pat[1:], name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, err := path.Match(pat[0], name[0]); err != nil || !ok {
			return false
		}
		pat, name = pat[1:], name[1:]
	}
	return len(name) == 0
}
