package cst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

func span(start, end int) token.Span {
	return token.Span{Start: start, End: end}
}

// buildSelect builds the tree for "select a -- c\n;" by hand.
func buildSelect() (*cst.Node, []*cst.Node) {
	term := cst.NewBranch("term")
	term.AddEnd(cst.NewLeaf("column_reference", span(7, 8), true))
	sel := cst.NewBranch("select")
	sel.Add(cst.NewLeaf("keyword_select", span(0, 6), true))
	sel.AddEnd(term)
	comment := cst.NewLeaf(cst.KindComment, span(9, 13), true)
	comment.Extra = true
	return sel, []*cst.Node{comment}
}

// ---------- Construction Tests ----------

func TestBranchSpanGrows(t *testing.T) {
	sel, _ := buildSelect()
	assert.Equal(t, span(0, 8), sel.Span)
	assert.Equal(t, "term", sel.ChildByField(cst.FieldEnd).Kind)
	assert.Len(t, sel.NamedChildren(), 2)
	assert.Nil(t, sel.ChildByField("alias"))
}

func TestMissingIsZeroWidth(t *testing.T) {
	m := cst.NewMissing(")", 4, false)
	assert.True(t, m.Missing)
	assert.Equal(t, 0, m.Span.Len())

	n := cst.NewBranch("list")
	n.Add(cst.NewLeaf("(", span(0, 1), false), cst.NewLeaf("literal", span(1, 4), true), m)
	assert.True(t, n.HasError())
	assert.Equal(t, `(list (literal) (MISSING ")"))`, n.String())
}

func TestEmptyBranchDoesNotMoveParent(t *testing.T) {
	n := cst.NewBranch("grantables")
	n.Add(cst.NewLeaf("keyword_all", span(6, 9), true), cst.NewBranch("grantable"))
	assert.Equal(t, span(6, 9), n.Span)

	n.Shift(2)
	assert.Equal(t, span(8, 11), n.Span)
	assert.Negative(t, n.Children[1].Span.Start, "an empty branch stays unpositioned")
}

// ---------- Query Tests ----------

func TestPathAndDescendantAt(t *testing.T) {
	sel, _ := buildSelect()

	path := sel.Path(7)
	require.Len(t, path, 3)
	assert.Equal(t, "select", path[0].Kind)
	assert.Equal(t, "column_reference", path[2].Kind)

	// A cursor right after a word still resolves to it.
	assert.Equal(t, "column_reference", sel.DescendantAt(8).Kind)
	assert.Equal(t, "keyword_select", sel.DescendantAt(3).Kind)
}

func TestFindAndLeaves(t *testing.T) {
	sel, _ := buildSelect()
	assert.NotNil(t, sel.Find("term"))
	assert.Len(t, sel.FindAll("column_reference"), 1)
	assert.Len(t, sel.Leaves(), 2)
}

// ---------- Extras Tests ----------

func TestAttachExtrasTopLevel(t *testing.T) {
	sel, extras := buildSelect()
	semi := cst.NewLeaf(";", span(14, 15), false)

	nodes := cst.AttachExtras([]*cst.Node{sel, semi}, extras)
	require.Len(t, nodes, 3)
	assert.Equal(t, cst.KindComment, nodes[1].Kind)
	assert.Equal(t, ";", nodes[2].Kind)
}

func TestAttachExtrasDescends(t *testing.T) {
	// select /* x */ a
	sel := cst.NewBranch("select")
	sel.Add(cst.NewLeaf("keyword_select", span(0, 6), true))
	sel.AddEnd(cst.NewLeaf("column_reference", span(15, 16), true))
	marg := cst.NewLeaf(cst.KindMarginal, span(7, 14), true)
	marg.Extra = true

	nodes := cst.AttachExtras([]*cst.Node{sel}, []*cst.Node{marg})
	require.Len(t, nodes, 1)
	require.Len(t, sel.Children, 3)
	assert.Equal(t, cst.KindMarginal, sel.Children[1].Kind)
	assert.Equal(t, "(select (keyword_select) (marginalia) end: (column_reference))", sel.String())
}

// ---------- Equality Tests ----------

func TestCloneShiftEqual(t *testing.T) {
	sel, _ := buildSelect()
	c := sel.Clone()
	assert.True(t, cst.Equal(sel, c))

	c.Shift(3)
	assert.False(t, cst.Equal(sel, c))
	assert.Equal(t, span(3, 11), c.Span)
	assert.Equal(t, span(0, 8), sel.Span, "shift must not touch the original")

	c.Shift(-3)
	assert.True(t, cst.Equal(sel, c))
}

func TestEncode(t *testing.T) {
	src := "select a"
	sel, _ := buildSelect()
	e := sel.Encode(src, false)
	assert.Equal(t, "select", e.Kind)
	require.Len(t, e.Children, 2)
	assert.Equal(t, "select", e.Children[0].Text)
	assert.Equal(t, "end", e.Children[1].Field)
	assert.Equal(t, "a", e.Children[1].Children[0].Text)
}

func TestDump(t *testing.T) {
	sel, _ := buildSelect()
	src := "select a -- c\n;"
	want := "select\n" +
		"  keyword_select `select`\n" +
		"  end: term\n" +
		"    end: column_reference `a`\n"
	assert.Equal(t, want, sel.Dump(src))
}
