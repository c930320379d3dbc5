package structure

import (
	"fmt"
	"strings"
)

// RenderTOC formats a forest one entry per line, indented by level.
func RenderTOC(entries []TOCEntry) string {
	var lines []string
	walkTOC(entries, func(e TOCEntry) {
		lines = append(lines, e.String())
	})
	return strings.Join(lines, "\n")
}

// RenderIndex formats index entries with their subentries.
func RenderIndex(entries []IndexEntry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// RenderComponents lists components under "=== NAME ===" headers when
// categories exist, otherwise as a flat list.
func RenderComponents(components []*Component, categories []*ComponentCategory) string {
	if len(components) == 0 {
		return "No components found."
	}

	var lines []string
	if len(categories) == 0 {
		for _, c := range components {
			lines = append(lines, c.String())
		}
		return strings.Join(lines, "\n")
	}

	for _, cat := range categories {
		lines = append(lines, "\n=== "+cat.Name+" ===")
		for _, c := range cat.Components {
			lines = append(lines, c.String())
		}
	}

	listed := make(map[*Component]bool, len(components))
	for _, cat := range categories {
		for _, c := range cat.Components {
			listed[c] = true
		}
	}
	var loose []string
	for _, c := range components {
		if !listed[c] {
			loose = append(loose, c.String())
		}
	}
	if len(loose) > 0 {
		lines = append(lines, "\n=== UNCATEGORIZED ===")
		lines = append(lines, loose...)
	}
	return strings.Join(lines, "\n")
}

// SummarizeTOC describes the section count, depth and page span of a forest.
func SummarizeTOC(entries []TOCEntry) string {
	if len(entries) == 0 {
		return "No table of contents found."
	}

	maxDepth := 0
	for _, e := range entries {
		maxDepth = max(maxDepth, depth(e))
	}

	lo, hi := 0, 0
	walkTOC(entries, func(e TOCEntry) {
		if e.PageNum <= 0 {
			return
		}
		if lo == 0 || e.PageNum < lo {
			lo = e.PageNum
		}
		hi = max(hi, e.PageNum)
	})
	span := "unknown"
	if lo > 0 {
		span = fmt.Sprintf("%d-%d", lo, hi)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document contains %d main sections with %d levels of depth.\n", len(entries), maxDepth)
	fmt.Fprintf(&b, "Page range covered in TOC: %s\n", span)
	b.WriteString("Top-level sections:\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "  %d. %s", i+1, e.Title)
		if e.PageNum > 0 {
			fmt.Fprintf(&b, " (p.%d)", e.PageNum)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// SummarizeIndex reports term and subentry counts.
func SummarizeIndex(entries []IndexEntry) string {
	if len(entries) == 0 {
		return "No index found."
	}
	subs, refs := 0, 0
	for _, e := range entries {
		subs += len(e.Subentries)
		refs += len(e.References)
	}
	return fmt.Sprintf("Index contains %d terms with %d subentries and %d cross-references.\n",
		len(entries), subs, refs)
}

// SummarizeComponents guesses the document type from the first titles and
// lists category sizes and the leading components.
func SummarizeComponents(components []*Component, categories []*ComponentCategory) string {
	if len(components) == 0 {
		return "No components found."
	}

	head := components[:min(5, len(components))]

	var b strings.Builder
	fmt.Fprintf(&b, "Document contains %d components and appears to be a %s.\n\n", len(components), guessDocType(head))
	if len(categories) > 0 {
		fmt.Fprintf(&b, "Organized into %d categories:\n", len(categories))
		for _, cat := range categories {
			fmt.Fprintf(&b, "- %s: %d items\n", cat.Name, len(cat.Components))
		}
	}
	fmt.Fprintf(&b, "\nFirst %d components:\n", len(head))
	for i, c := range head {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Title)
	}
	if len(components) > len(head) {
		fmt.Fprintf(&b, "... and %d more components\n", len(components)-len(head))
	}
	return b.String()
}

func guessDocType(head []*Component) string {
	titles := make([]string, len(head))
	for i, c := range head {
		titles[i] = strings.ToLower(c.Title)
	}
	text := strings.Join(titles, " ")

	switch {
	case strings.Contains(text, "course") && (strings.Contains(text, "file") || strings.Contains(text, "syllabus")):
		return "Course File Index"
	case strings.Contains(text, "checklist"):
		return "Checklist"
	case strings.Contains(text, "inventory"):
		return "Inventory"
	default:
		return "Component List"
	}
}
