package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docstruct/internal/detect"
	"github.com/dgallion1/docstruct/internal/structure"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON, OutputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

var (
	// titleStyle for bold section headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for positive results
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// warnStyle for empty results
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// boxStyle for the result header
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// writeStructured encodes data as indented JSON or as YAML. YAML goes through
// the JSON form so custom JSON encodings and field order carry over.
func writeStructured(w io.Writer, format OutputFormat, data any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	if format == OutputJSON {
		_, err := w.Write(buf.Bytes())
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &node); err != nil {
		return fmt.Errorf("convert to yaml: %w", err)
	}
	blockStyle(&node)
	ye := yaml.NewEncoder(w)
	ye.SetIndent(2)
	defer ye.Close()
	return ye.Encode(&node)
}

// blockStyle drops the flow and quoting styles inherited from JSON syntax.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func writeResultText(w io.Writer, source string, res structure.Result) {
	count := successStyle.Render(fmt.Sprintf("%d entries", res.Count))
	if res.Count == 0 {
		count = warnStyle.Render("no entries")
	}
	header := fmt.Sprintf("%s %s\n%s %s  %s",
		dimStyle.Render("File:"), source,
		dimStyle.Render("Kind:"), titleStyle.Render(string(res.Kind)), count,
	)
	fmt.Fprintln(w, boxStyle.Render(header))
	if res.Rendered != "" {
		fmt.Fprintln(w, res.Rendered)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render(strings.TrimRight(res.Summary, "\n")))
}

func writeDetectionText(w io.Writer, source string, det detect.Result) {
	kind := det.Kind()
	styled := successStyle.Render(string(kind))
	if kind == detect.KindUnknown {
		styled = warnStyle.Render(string(kind))
	}
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("File:"), source)
	fmt.Fprintf(w, "%s %s %s\n", dimStyle.Render("Detected:"), styled, dimStyle.Render("(by "+det.Method+")"))
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"table of contents", det.TOC},
		{"index", det.Index},
		{"component list", det.Components},
	} {
		mark := dimStyle.Render("-")
		if f.on {
			mark = successStyle.Render("+")
		}
		fmt.Fprintf(w, "  %s %s\n", mark, f.name)
	}
}
