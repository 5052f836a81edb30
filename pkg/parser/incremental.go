package parser

// Edit describes one change to the source, in the coordinates of the buffer
// the edit applies to. Edits passed together are applied in order, each
// against the result of the previous one.
type Edit struct {
	Start   int
	OldEnd  int
	NewEnd  int
	NewText string
}

// damage is the combined effect of a batch of edits: old[lo:hi] was
// replaced by new[lo:lo+size].
type damage struct {
	lo, hi, size int
}

func (d damage) delta() int {
	return d.size - (d.hi - d.lo)
}

// Reparse applies edits to old's source and returns the tree of the result.
// Items of the old tree that the edits cannot have influenced are reused:
// the prefix whose examined bytes all precede the change as is, and the
// suffix after the first matching item boundary shifted by the change in
// length. The result is identical to Parse on the edited source.
func Reparse(old *Tree, edits ...Edit) *Tree {
	if old == nil {
		src, _ := applyEdits("", edits)
		return Parse(src)
	}
	if len(edits) == 0 {
		return old
	}
	src, d := applyEdits(old.Source, edits)

	// reuse the prefix
	var items []item
	start := 0
	for _, it := range old.items {
		if it.eof || it.lookahead > d.lo {
			break
		}
		items = append(items, it)
		start = it.end
	}

	// resynchronise with the old suffix at the first shared boundary
	oldAt := make(map[int]int, len(old.items))
	for i, it := range old.items {
		oldAt[it.start] = i
	}
	sync := func(offset int) ([]item, bool) {
		if offset < d.lo+d.size {
			return nil, false
		}
		oldOffset := offset - d.delta()
		i, ok := oldAt[oldOffset]
		if !ok || oldOffset < d.hi {
			return nil, false
		}
		rest := make([]item, 0, len(old.items)-i)
		for _, it := range old.items[i:] {
			rest = append(rest, it.shifted(d.delta()))
		}
		return rest, true
	}

	items = append(items, parseItems(src, start, sync)...)
	return buildTree(src, items)
}

// applyEdits returns src with edits applied in order together with the
// damaged range they add up to. Offsets are clamped to the buffer and NewEnd
// is implied by NewText.
func applyEdits(src string, edits []Edit) (string, damage) {
	var d damage
	for i, e := range edits {
		start := min(max(e.Start, 0), len(src))
		end := min(max(e.OldEnd, start), len(src))
		src = src[:start] + e.NewText + src[end:]
		size := len(e.NewText)
		if i == 0 {
			d = damage{lo: start, hi: end, size: size}
			continue
		}
		// widen the damage, which currently covers [d.lo, d.lo+d.size)
		curHi := max(d.lo+d.size, end)
		lo := min(d.lo, start)
		hi := d.hi + max(0, end-(d.lo+d.size))
		d = damage{lo: lo, hi: hi, size: curHi - lo - (end - start) + size}
	}
	return src, d
}
