// Package structure recovers document structure from extracted page text:
// tables of contents with their hierarchy, back-of-book indexes, and the
// numbered component lists found in checklists and course files.
package structure

import (
	"fmt"
	"log/slog"
	"strings"
)

// Kind selects an extractor.
type Kind string

const (
	KindTOC        Kind = "toc"
	KindIndex      Kind = "index"
	KindComponents Kind = "components"
)

// Kinds lists every extractor kind in detection precedence order.
var Kinds = []Kind{KindTOC, KindIndex, KindComponents}

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown extraction kind %q", s)
}

// Options tune a single Extract call.
type Options struct {
	Logger *slog.Logger
	// RepairTitles runs the component title repair pass.
	RepairTitles bool
	// KnownTitles overrides DefaultKnownTitles for the repair pass.
	KnownTitles TitleTable
}

// Result is the outcome of one extraction. Only the fields of the selected
// kind are populated.
type Result struct {
	Kind       Kind                 `json:"kind"`
	Count      int                  `json:"count"`
	TOC        []TOCEntry           `json:"toc,omitempty"`
	Index      []IndexEntry         `json:"index,omitempty"`
	Components []*Component         `json:"components,omitempty"`
	Categories []*ComponentCategory `json:"categories,omitempty"`
	Summary    string               `json:"summary"`
	Rendered   string               `json:"rendered"`
}

// Extract runs the extractor for kind over text with fresh state.
func Extract(kind Kind, text string, opts Options) (Result, error) {
	switch kind {
	case KindTOC:
		x := NewTOCExtractor(opts.Logger)
		toc := x.ExtractTOC(text)
		return Result{
			Kind:     kind,
			Count:    x.TOCCount(),
			TOC:      toc,
			Summary:  SummarizeTOC(toc),
			Rendered: RenderTOC(toc),
		}, nil

	case KindIndex:
		x := NewTOCExtractor(opts.Logger)
		index := x.ExtractIndex(text)
		return Result{
			Kind:     kind,
			Count:    len(index),
			Index:    index,
			Summary:  SummarizeIndex(index),
			Rendered: RenderIndex(index),
		}, nil

	case KindComponents:
		var copts []ComponentOption
		if opts.RepairTitles {
			copts = append(copts, WithTitleRepair(opts.KnownTitles))
		}
		x := NewComponentExtractor(opts.Logger, copts...)
		components := x.Extract(text)
		categories := x.Categories()
		return Result{
			Kind:       kind,
			Count:      len(components),
			Components: components,
			Categories: categories,
			Summary:    SummarizeComponents(components, categories),
			Rendered:   RenderComponents(components, categories),
		}, nil

	default:
		return Result{}, fmt.Errorf("unknown extraction kind %q", kind)
	}
}
