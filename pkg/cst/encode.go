package cst

// Encoded is a serialisation-friendly view of a node, used for JSON and
// YAML dumps of the tree.
type Encoded struct {
	Kind     string     `json:"kind" yaml:"kind"`
	Field    string     `json:"field,omitempty" yaml:"field,omitempty"`
	Start    int        `json:"start" yaml:"start"`
	End      int        `json:"end" yaml:"end"`
	Text     string     `json:"text,omitempty" yaml:"text,omitempty"`
	Missing  bool       `json:"missing,omitempty" yaml:"missing,omitempty"`
	Extra    bool       `json:"extra,omitempty" yaml:"extra,omitempty"`
	Children []*Encoded `json:"children,omitempty" yaml:"children,omitempty"`
}

// Encode converts n into its serialisable view. Anonymous leaves are kept
// only when withAnonymous is set; leaf text is filled in from src.
func (n *Node) Encode(src string, withAnonymous bool) *Encoded {
	e := &Encoded{
		Kind:    n.Kind,
		Field:   n.Field,
		Start:   n.Span.Start,
		End:     n.Span.End,
		Missing: n.Missing,
		Extra:   n.Extra,
	}
	if n.IsLeaf() {
		e.Text = n.Text(src)
		return e
	}
	for _, c := range n.Children {
		if !c.Named && !c.Missing && !withAnonymous {
			continue
		}
		e.Children = append(e.Children, c.Encode(src, withAnonymous))
	}
	return e
}
