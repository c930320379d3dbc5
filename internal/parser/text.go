package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// TextParser handles plain text. Form feeds split pages, as pdftotext
// emits them; every page becomes one node. Indentation is kept because the
// TOC and component extractors read it, and runs of blank lines shrink to one.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{Title: strings.TrimSuffix(filename, ".txt")}
	pages := strings.Split(string(src), "\f")
	if len(pages) > 1 {
		tree.Pages = len(pages)
	}
	for i, page := range pages {
		body := squeezeBlankLines(page)
		if body == "" {
			continue
		}
		node := &doctree.DocNode{Text: body}
		if tree.Pages > 0 {
			node.Page = i + 1
		}
		tree.Children = append(tree.Children, node)
	}
	return tree, nil
}

func squeezeBlankLines(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
