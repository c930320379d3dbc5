package structure

// buildForest nests a flat, source-ordered entry list by level. Entries live
// in an arena (the flat slice) and children are kept as index lists until the
// tree is materialized, so no entry can become its own ancestor.
//
// An entry at level L attaches to the most recent entry found at L-1, L-2,
// ... 0, or becomes a root when none exists. Records deeper than the current
// entry are kept: a later, deeper entry may still attach to them.
func buildForest(flat []TOCEntry) []TOCEntry {
	if len(flat) == 0 {
		return nil
	}

	children := make([][]int, len(flat))
	var roots []int
	lastAt := make(map[int]int)

	for i, e := range flat {
		parent := -1
		for l := e.Level - 1; l >= 0; l-- {
			if idx, ok := lastAt[l]; ok {
				parent = idx
				break
			}
		}
		if parent < 0 {
			roots = append(roots, i)
		} else {
			children[parent] = append(children[parent], i)
		}
		lastAt[e.Level] = i
	}

	var materialize func(i int) TOCEntry
	materialize = func(i int) TOCEntry {
		e := flat[i]
		e.Children = nil
		for _, c := range children[i] {
			e.Children = append(e.Children, materialize(c))
		}
		return e
	}

	forest := make([]TOCEntry, 0, len(roots))
	for _, r := range roots {
		forest = append(forest, materialize(r))
	}
	return forest
}

// depth is 1 for a leaf.
func depth(e TOCEntry) int {
	d := 0
	for _, c := range e.Children {
		if cd := depth(c); cd > d {
			d = cd
		}
	}
	return d + 1
}

func walkTOC(entries []TOCEntry, fn func(TOCEntry)) {
	for _, e := range entries {
		fn(e)
		walkTOC(e.Children, fn)
	}
}
