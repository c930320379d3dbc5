package parser

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown with goldmark. Headings nest by level so
// DocTree.Text renders them as an indented outline; ordered lists become
// "N. item" lines that the component extractor recognizes.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}
	s := newSections()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			s.open(node.Level, string(node.Text(src)))
		case *ast.List:
			s.add(listText(node, src, 0))
		default:
			s.add(blockText(n, src))
		}
	}
	tree.Children = s.children()
	return tree, nil
}

// sections tracks the open heading chain while blocks stream in.
type sections struct {
	root  *doctree.DocNode
	stack []*doctree.DocNode
	level []int
	buf   []string
}

func newSections() *sections {
	root := &doctree.DocNode{}
	return &sections{root: root, stack: []*doctree.DocNode{root}, level: []int{0}}
}

func (s *sections) top() *doctree.DocNode { return s.stack[len(s.stack)-1] }

func (s *sections) add(t string) {
	if t != "" {
		s.buf = append(s.buf, t)
	}
}

func (s *sections) flush() {
	if len(s.buf) == 0 {
		return
	}
	body := strings.Join(s.buf, "\n\n")
	if top := s.top(); top.Text != "" {
		top.Text += "\n\n" + body
	} else {
		top.Text = body
	}
	s.buf = s.buf[:0]
}

func (s *sections) open(level int, title string) {
	s.flush()
	for len(s.stack) > 1 && s.level[len(s.level)-1] >= level {
		s.stack = s.stack[:len(s.stack)-1]
		s.level = s.level[:len(s.level)-1]
	}
	node := &doctree.DocNode{Title: title}
	parent := s.top()
	parent.Children = append(parent.Children, node)
	s.stack = append(s.stack, node)
	s.level = append(s.level, level)
}

// children closes the walk. Text before the first heading becomes a leading
// untitled node.
func (s *sections) children() []*doctree.DocNode {
	s.flush()
	out := s.root.Children
	if s.root.Text != "" {
		out = append([]*doctree.DocNode{{Text: s.root.Text}}, out...)
	}
	return out
}

// blockText returns the text of a block node. Blocks that carry source
// lines (paragraphs, code) keep their line breaks.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(bytes.TrimRight(seg.Value(src), "\n"))
			buf.WriteByte('\n')
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if buf.Len() > 0 && c.Type() == ast.TypeBlock {
			buf.WriteByte('\n')
		}
		buf.WriteString(blockText(c, src))
	}
	return strings.TrimSpace(buf.String())
}

// listText renders a list one item per line, ordered items as "N. text",
// nested lists indented two spaces per depth.
func listText(list *ast.List, src []byte, depth int) string {
	var lines []string
	number := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var words, nested []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				nested = append(nested, listText(sub, src, depth+1))
				continue
			}
			words = append(words, strings.Fields(blockText(c, src))...)
		}

		marker := "-"
		if list.IsOrdered() {
			marker = strconv.Itoa(number) + "."
			number++
		}
		lines = append(lines, strings.Repeat("  ", depth)+marker+" "+strings.Join(words, " "))
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}
