package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Pages    int        // Page count when the format has pages (0 if N/A)
	Children []*DocNode // Top-level sections or pages
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for page and leaf text nodes)
	Text     string     // Text content of this node, line structure preserved
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Text flattens the tree into the line-oriented form the structure
// extractors read. Headings become lines indented two spaces per depth and
// blocks are separated by a blank line.
func (t *DocTree) Text() string {
	var blocks []string
	var walk func(n *DocNode, depth int)
	walk = func(n *DocNode, depth int) {
		if n.Title != "" {
			blocks = append(blocks, strings.Repeat("  ", depth)+n.Title)
		}
		if strings.TrimSpace(n.Text) != "" {
			blocks = append(blocks, strings.TrimRight(n.Text, "\n"))
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, c := range t.Children {
		walk(c, 0)
	}
	return strings.Join(blocks, "\n\n")
}
