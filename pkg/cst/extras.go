package cst

// AttachExtras places comment leaves into a list of sibling nodes. Each
// extra descends into the deepest interior node whose span covers it and is
// inserted among that node's children in document order; extras covered by
// no node land in the returned list itself.
func AttachExtras(nodes []*Node, extras []*Node) []*Node {
	for _, x := range extras {
		nodes = insertExtra(nodes, x)
	}
	return nodes
}

func insertExtra(list []*Node, x *Node) []*Node {
	for _, n := range list {
		if n.IsLeaf() || n.Span.Len() == 0 {
			continue
		}
		if n.Span.Start <= x.Span.Start && x.Span.End <= n.Span.End {
			n.Children = insertExtra(n.Children, x)
			return list
		}
	}

	i := len(list)
	for j, n := range list {
		if n.Span.Start >= x.Span.End && !(n.Span.Len() == 0 && n.Span.Start < x.Span.Start) {
			i = j
			break
		}
	}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = x
	return list
}
