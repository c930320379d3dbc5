// Package detect guesses which structure a document holds: a table of
// contents, an index or a component list.
package detect

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/docstruct/internal/structure"
)

// KindUnknown is returned when neither markers nor content identify the document.
const KindUnknown structure.Kind = "unknown"

var (
	tocMarkers       = []string{"table of contents", "contents", "chapter", "section"}
	indexMarkers     = []string{"index", "subject index", "keyword index", "alphabetical index"}
	componentMarkers = []string{"course file", "checklist", "components", "inventory", "file index"}
)

// Result reports every kind that was flagged. Kind resolves precedence.
type Result struct {
	TOC        bool   `json:"is_toc"`
	Index      bool   `json:"is_index"`
	Components bool   `json:"is_component_list"`
	Method     string `json:"method"` // "markers", "content" or "none"
}

// Kind returns the winning kind: TOC, then index, then components.
func (r Result) Kind() structure.Kind {
	switch {
	case r.TOC:
		return structure.KindTOC
	case r.Index:
		return structure.KindIndex
	case r.Components:
		return structure.KindComponents
	default:
		return KindUnknown
	}
}

// Detector looks for marker words near the start of the text and, failing
// that, runs the extractors and flags a kind that yields more than
// MinEntries entries.
type Detector struct {
	SampleChars int
	MinEntries  int
	Logger      *slog.Logger
}

func New(sampleChars, minEntries int, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Detector{SampleChars: sampleChars, MinEntries: minEntries, Logger: log}
}

func (d *Detector) Detect(text string) Result {
	sample := strings.ToLower(head(text, d.SampleChars))

	// "file index" names a component list, not a back-of-book index.
	indexSample := strings.ReplaceAll(sample, "file index", "")
	res := Result{
		TOC:        containsAny(sample, tocMarkers),
		Index:      containsAny(indexSample, indexMarkers),
		Components: containsAny(sample, componentMarkers),
	}
	if res.TOC || res.Index || res.Components {
		res.Method = "markers"
		d.Logger.Debug("document kind from markers", "kind", res.Kind())
		return res
	}

	opts := structure.Options{Logger: d.Logger}
	for _, kind := range structure.Kinds {
		r, err := structure.Extract(kind, text, opts)
		if err != nil || r.Count <= d.MinEntries {
			continue
		}
		switch kind {
		case structure.KindTOC:
			res.TOC = true
		case structure.KindIndex:
			res.Index = true
		case structure.KindComponents:
			res.Components = true
		}
		res.Method = "content"
		d.Logger.Debug("document kind from content", "kind", kind, "entries", r.Count)
		return res
	}

	res.Method = "none"
	return res
}

func head(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
