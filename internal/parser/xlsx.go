package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/xuri/excelize/v2"
)

// XLSXParser handles Excel workbooks. Each non-empty sheet becomes one
// node whose rows are rendered like CSV rows.
type XLSXParser struct{}

func (p *XLSXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".xlsx"),
	}

	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		for _, node := range rowNodes(rows) {
			node.Page = i + 1
			tree.Children = append(tree.Children, node)
		}
	}
	tree.Pages = len(f.GetSheetList())

	return tree, nil
}
