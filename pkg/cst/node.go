// Package cst defines the concrete syntax tree produced by the parser.
//
// Every byte of the source is accounted for: leaves cover tokens, comments
// hang off the tree as extra leaves, and the gaps between consecutive leaves
// are whitespace only. Named fields let consumers pick out the parts of a
// node (the end element, the operands of a binary expression, the parts of
// a qualified name) without re-deriving the grammar.
package cst

import (
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Well-known node kinds.
const (
	KindProgram   = "program"
	KindStatement = "statement"
	KindError     = "ERROR"
	KindComment   = "comment"
	KindMarginal  = "marginalia"
)

// FieldEnd marks the element that completes a node.
const FieldEnd = "end"

// Node is a syntax tree node. Leaves have no children; their text is the
// source slice covered by Span.
type Node struct {
	Kind     string
	Field    string
	Span     token.Span
	Children []*Node

	Named   bool // false for anonymous punctuation and literal payloads
	Missing bool // zero-width placeholder for an expected token
	Extra   bool // comment trivia
}

// NewLeaf creates a leaf node.
func NewLeaf(kind string, span token.Span, named bool) *Node {
	return &Node{Kind: kind, Span: span, Named: named}
}

// NewMissing creates a zero-width placeholder at offset.
func NewMissing(kind string, offset int, named bool) *Node {
	return &Node{Kind: kind, Span: token.Span{Start: offset, End: offset}, Named: named, Missing: true}
}

// NewBranch creates an empty named interior node. Its span is unset
// (negative) until the first positioned child is added, and grows from
// there.
func NewBranch(kind string) *Node {
	return &Node{Kind: kind, Named: true, Span: token.Span{Start: -1, End: -1}}
}

// Add appends children and widens the span to cover them.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		n.Children = append(n.Children, c)
		switch {
		case c.Span.Start < 0:
			// an empty branch has no position yet
		case n.Span.Start < 0:
			n.Span = c.Span
		default:
			if c.Span.Start < n.Span.Start {
				n.Span.Start = c.Span.Start
			}
			if c.Span.End > n.Span.End {
				n.Span.End = c.Span.End
			}
		}
	}
	return n
}

// AddField appends child under the given field name.
func (n *Node) AddField(field string, child *Node) *Node {
	if child == nil {
		return n
	}
	child.Field = field
	return n.Add(child)
}

// AddEnd appends child as the node's end element.
func (n *Node) AddEnd(child *Node) *Node {
	return n.AddField(FieldEnd, child)
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// IsError reports whether n is an error node.
func (n *Node) IsError() bool {
	return n.Kind == KindError
}

// Text returns the source text covered by n.
func (n *Node) Text(src string) string {
	if n.Span.Start < 0 || n.Span.End > len(src) || n.Span.Start > n.Span.End {
		return ""
	}
	return src[n.Span.Start:n.Span.End]
}

// ChildByField returns the first child with the given field name.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildrenByField returns every child with the given field name.
func (n *Node) ChildrenByField(field string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}

// ChildByKind returns the first direct child of the given kind.
func (n *Node) ChildByKind(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// NamedChildren returns the named, non-extra children.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Named && !c.Extra {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants in document order. Returning false
// from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first descendant (or n itself) of the given kind.
func (n *Node) Find(kind string) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if x.Kind == kind {
			found = x
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant (including n) of the given kind.
func (n *Node) FindAll(kind string) []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if x.Kind == kind {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Leaves returns the leaves under n in document order, extras included.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if x.IsLeaf() {
			out = append(out, x)
			return false
		}
		return true
	})
	return out
}

// HasError reports whether n or any descendant is an error or missing node.
func (n *Node) HasError() bool {
	bad := false
	n.Walk(func(x *Node) bool {
		if x.IsError() || x.Missing {
			bad = true
		}
		return !bad
	})
	return bad
}

// Path returns the chain of named nodes from n down to the deepest named
// node containing offset. An offset at a node's end counts as inside it so
// that a cursor placed right after a word resolves to that word.
func (n *Node) Path(offset int) []*Node {
	var path []*Node
	cur := n
	for cur != nil {
		if cur.Named {
			path = append(path, cur)
		}
		var next *Node
		for _, c := range cur.Children {
			if c.Span.Start <= offset && offset <= c.Span.End && c.Span.Len() > 0 {
				next = c
				if offset < c.Span.End {
					break
				}
			}
		}
		cur = next
	}
	return path
}

// DescendantAt returns the deepest named node containing offset.
func (n *Node) DescendantAt(offset int) *Node {
	path := n.Path(offset)
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// Shift moves n and all of its descendants by delta bytes in place.
func (n *Node) Shift(delta int) {
	n.Walk(func(x *Node) bool {
		if x.Span.Start >= 0 {
			x.Span = x.Span.Shift(delta)
		}
		return true
	})
}

// Equal reports whether a and b are structurally identical: same kinds,
// fields, flags and spans all the way down.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Field != b.Field || a.Span != b.Span ||
		a.Named != b.Named || a.Missing != b.Missing || a.Extra != b.Extra ||
		len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
