package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

// parse parses src and checks that the leaves of the tree cover the source
// with nothing but whitespace between them.
func parse(t *testing.T, src string) *parser.Tree {
	t.Helper()
	tree := parser.Parse(src)
	requireLossless(t, tree)
	return tree
}

// parseClean is parse for input that must not produce diagnostics.
func parseClean(t *testing.T, src string) *parser.Tree {
	t.Helper()
	tree := parse(t, src)
	require.Empty(t, tree.Diagnostics, "unexpected diagnostics for %q:\n%s", src, tree.Root)
	require.False(t, tree.Root.HasError(), "unexpected error nodes for %q:\n%s", src, tree.Root)
	return tree
}

func requireLossless(t *testing.T, tree *parser.Tree) {
	t.Helper()
	src := tree.Source
	require.Equal(t, 0, tree.Root.Span.Start)
	require.Equal(t, len(src), tree.Root.Span.End)

	pos := 0
	for _, leaf := range tree.Root.Leaves() {
		if leaf.Missing || leaf.Span.Start < 0 || leaf.Span.Len() == 0 {
			continue
		}
		require.GreaterOrEqual(t, leaf.Span.Start, pos, "leaf %s overlaps its predecessor in %q", leaf.Kind, src)
		gap := src[pos:leaf.Span.Start]
		require.Empty(t, strings.TrimSpace(gap), "uncovered text %q before %s in %q", gap, leaf.Kind, src)
		pos = leaf.Span.End
	}
	require.Empty(t, strings.TrimSpace(src[pos:]), "uncovered tail in %q", src)
}

// statement returns the first statement of a clean parse.
func statement(t *testing.T, src string) (*cst.Node, string) {
	t.Helper()
	tree := parseClean(t, src)
	st := tree.Root.Find(cst.KindStatement)
	require.NotNil(t, st, "no statement in %q", src)
	return st, src
}

// expr parses "SELECT <src>" and returns the expression of its only term.
func expr(t *testing.T, src string) (*cst.Node, string) {
	t.Helper()
	full := "SELECT " + src
	tree := parseClean(t, full)
	term := tree.Root.Find("term")
	require.NotNil(t, term, "no term in %q", full)
	e := term.ChildByField(cst.FieldEnd)
	require.NotNil(t, e)
	return e, full
}

// kinds collects the kinds of every node under n.
func kinds(n *cst.Node) map[string]bool {
	out := make(map[string]bool)
	n.Walk(func(x *cst.Node) bool {
		out[x.Kind] = true
		return true
	})
	return out
}

func topKinds(tree *parser.Tree) []string {
	var out []string
	for _, c := range tree.Root.Children {
		out = append(out, c.Kind)
	}
	return out
}
