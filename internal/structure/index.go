package structure

import (
	"strconv"
	"strings"
)

// maxRangeSpan bounds how many pages a single "a-b" token may expand to.
// Wider ranges are kept verbatim.
const maxRangeSpan = 1000

// ExtractIndex reads "term, pages" lines, attributing indented lines to the
// most recent main term. A repeated main term replaces the earlier entry in
// place. Entries are returned in first-seen order.
func (x *TOCExtractor) ExtractIndex(text string) []IndexEntry {
	x.indexEntries = nil
	x.indexPos = make(map[string]int)

	current := -1
	for _, line := range splitLines(text) {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if leadingSpaces(line) >= 2 {
			if current < 0 {
				continue
			}
			if m, ok := indexSubRule.match(line); ok {
				if sub := strings.TrimSpace(m.get("term")); sub != "" {
					x.indexEntries[current].setSubentry(sub, parsePageRefs(m.get("pages")))
				}
			}
			continue
		}

		if m, ok := indexMainRule.match(line); ok {
			if term := strings.TrimSpace(m.get("term")); term != "" {
				current = x.putIndexEntry(IndexEntry{Term: term, PageRefs: parsePageRefs(m.get("pages"))})
			}
			continue
		}

		for _, r := range indexSeeRules {
			m, ok := r.match(line)
			if !ok {
				continue
			}
			term := strings.TrimSpace(m.get("term"))
			ref := cleanReference(m.get("ref"))
			if term == "" || ref == "" {
				continue
			}
			current = x.addReference(term, ref)
			break
		}
	}

	x.log.Debug("index entries extracted", "entries", len(x.indexEntries))
	return x.indexEntries
}

// Index returns the entries built by the last ExtractIndex call.
func (x *TOCExtractor) Index() []IndexEntry { return x.indexEntries }

func (x *TOCExtractor) putIndexEntry(e IndexEntry) int {
	if pos, ok := x.indexPos[e.Term]; ok {
		x.indexEntries[pos] = e
		return pos
	}
	x.indexEntries = append(x.indexEntries, e)
	pos := len(x.indexEntries) - 1
	x.indexPos[e.Term] = pos
	return pos
}

func (x *TOCExtractor) addReference(term, ref string) int {
	if pos, ok := x.indexPos[term]; ok {
		x.indexEntries[pos].References = append(x.indexEntries[pos].References, ref)
		return pos
	}
	return x.putIndexEntry(IndexEntry{Term: term, References: []string{ref}})
}

func cleanReference(ref string) string {
	ref = strings.TrimSpace(ref)
	if len(ref) > 5 && strings.EqualFold(ref[:5], "also ") {
		ref = strings.TrimSpace(ref[5:])
	}
	return strings.TrimRight(ref, ". ")
}

// parsePageRefs splits a comma-separated page list, expanding "a-b" ranges.
// Tokens that are not pages or sane ranges are kept as opaque references.
func parsePageRefs(s string) []PageRef {
	var refs []PageRef
	for _, chunk := range strings.Split(s, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		dashed := strings.ReplaceAll(chunk, "–", "-")
		if strings.Contains(dashed, "-") {
			if expanded, ok := expandRange(dashed); ok {
				refs = append(refs, expanded...)
			} else {
				refs = append(refs, PageRef{Raw: chunk})
			}
			continue
		}

		if n, err := strconv.Atoi(chunk); err == nil {
			refs = append(refs, PageRef{Page: n})
		} else {
			refs = append(refs, PageRef{Raw: chunk})
		}
	}
	return refs
}

func expandRange(s string) ([]PageRef, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return nil, false
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, false
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}
	if end < start || end-start >= maxRangeSpan {
		return nil, false
	}

	refs := make([]PageRef, 0, end-start+1)
	for p := start; p <= end; p++ {
		refs = append(refs, PageRef{Page: p})
	}
	return refs, true
}
