package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// CSVParser handles CSV files. Every row becomes one line; see rowLine.
type CSVParser struct{}

// rowsPerNode groups rows into nodes of manageable size.
const rowsPerNode = 50

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".csv"),
	}
	tree.Children = rowNodes(records)
	return tree, nil
}

func rowNodes(rows [][]string) []*doctree.DocNode {
	var nodes []*doctree.DocNode
	var lines []string
	flush := func() {
		if len(lines) > 0 {
			nodes = append(nodes, &doctree.DocNode{Text: strings.Join(lines, "\n")})
			lines = nil
		}
	}
	for _, row := range rows {
		if line := rowLine(row); line != "" {
			lines = append(lines, line)
		}
		if len(lines) == rowsPerNode {
			flush()
		}
	}
	flush()
	return nodes
}

// rowLine renders a spreadsheet row as text. A row whose first cell is an
// integer (optionally followed by "." or ")") becomes "N. rest", the shape
// of a numbered component line. Other rows are joined with ", " so
// "term, pages" index rows survive.
func rowLine(row []string) string {
	var cells []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	if len(cells) == 0 {
		return ""
	}

	lead := strings.TrimRight(cells[0], ".)")
	if _, err := strconv.Atoi(lead); err == nil && len(cells) > 1 {
		return lead + ". " + strings.Join(cells[1:], " ")
	}
	return strings.Join(cells, ", ")
}
