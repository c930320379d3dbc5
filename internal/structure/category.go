package structure

import (
	"fmt"
	"strconv"
)

// bucketByTens groups components with integer identifiers into ranges of
// ten ("Components 1-10", "Components 11-20", ...). Components with
// non-numeric or non-positive identifiers stay uncategorized. The upper bound
// of the last bucket is clipped to the larger of the component count and the
// highest identifier seen.
func bucketByTens(components []*Component) []*ComponentCategory {
	bound := len(components)
	for _, c := range components {
		if n, err := strconv.Atoi(c.Number); err == nil && n > bound {
			bound = n
		}
	}

	var out []*ComponentCategory
	buckets := make(map[int]*ComponentCategory)
	for _, c := range components {
		n, err := strconv.Atoi(c.Number)
		if err != nil || n < 1 {
			continue
		}
		id := (n - 1) / 10
		cat, ok := buckets[id]
		if !ok {
			cat = &ComponentCategory{
				Name: fmt.Sprintf("Components %d-%d", id*10+1, min((id+1)*10, bound)),
			}
			buckets[id] = cat
			out = append(out, cat)
		}
		cat.Components = append(cat.Components, c)
	}
	return out
}
