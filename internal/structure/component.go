package structure

import (
	"log/slog"
	"strings"
)

// ComponentExtractor recovers numbered components and their categories from
// checklist-style documents. Like TOCExtractor it is reset by every Extract
// call and is not safe for concurrent use.
type ComponentExtractor struct {
	log    *slog.Logger
	repair *TitleRepairer

	components []*Component
	categories []*ComponentCategory
}

// ComponentOption configures a ComponentExtractor.
type ComponentOption func(*ComponentExtractor)

// WithTitleRepair enables the title repair pass using the given table.
// A nil table selects DefaultKnownTitles.
func WithTitleRepair(known TitleTable) ComponentOption {
	return func(x *ComponentExtractor) {
		x.repair = NewTitleRepairer(known)
	}
}

// NewComponentExtractor returns an extractor that logs through log.
func NewComponentExtractor(log *slog.Logger, opts ...ComponentOption) *ComponentExtractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	x := &ComponentExtractor{log: log}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// componentState is threaded through the line fold. open is the category
// collecting components; pending holds a standalone identifier ("4.") whose
// title is expected on the next line.
type componentState struct {
	open      *ComponentCategory
	pending   string
	sawHeader bool
}

// Extract parses text and returns components in source order. Categories are
// available from Categories afterwards.
func (x *ComponentExtractor) Extract(text string) []*Component {
	x.components = nil
	x.categories = nil

	var st componentState
	for _, line := range splitLines(text) {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		st = x.step(st, line)
	}
	x.closeCategory(st.open)

	if x.repair != nil {
		x.repair.Repair(x.components)
	}
	if !st.sawHeader {
		x.categories = bucketByTens(x.components)
	}

	x.log.Debug("components extracted",
		"components", len(x.components),
		"categories", len(x.categories),
		"explicit_categories", st.sawHeader,
	)
	return x.components
}

// Components returns the result of the last Extract call.
func (x *ComponentExtractor) Components() []*Component { return x.components }

// Categories returns the categories of the last Extract call. Empty
// categories are never included.
func (x *ComponentExtractor) Categories() []*ComponentCategory { return x.categories }

func (x *ComponentExtractor) step(st componentState, line string) componentState {
	trimmed := strings.TrimSpace(line)

	if st.pending != "" {
		number := st.pending
		st.pending = ""
		if _, header := matchCategory(trimmed); !header && !freshNumbered.MatchString(trimmed) {
			x.add(st.open, newComponent(number, trimmed, "", number+". "+trimmed))
			return st
		}
	}

	if name, ok := matchCategory(trimmed); ok {
		x.closeCategory(st.open)
		st.open = &ComponentCategory{Name: name}
		st.sawHeader = true
		return st
	}

	if m := pendingIdentifier.FindStringSubmatch(trimmed); m != nil {
		st.pending = m[1]
		return st
	}

	if c, ok := parseComponentLine(line); ok {
		x.add(st.open, c)
	}
	return st
}

func (x *ComponentExtractor) add(open *ComponentCategory, c *Component) {
	x.components = append(x.components, c)
	if open != nil {
		c.Category = open.Name
		open.Components = append(open.Components, c)
	}
}

func (x *ComponentExtractor) closeCategory(open *ComponentCategory) {
	if open != nil && len(open.Components) > 0 {
		x.categories = append(x.categories, open)
	}
}

func parseComponentLine(line string) (*Component, bool) {
	build := func(m lineMatch) (*Component, bool) {
		number := strings.TrimSpace(m.get("number"))
		title := strings.TrimSpace(m.get("title"))
		if number == "" || title == "" {
			return nil, false
		}
		return newComponent(number, title, m.get("description"), line), true
	}

	if c, ok := firstMatch(componentRules, line, build); ok {
		return c, true
	}
	return firstMatch(componentFallbacks, strings.TrimSpace(line), build)
}

func matchCategory(line string) (string, bool) {
	return firstMatch(categoryRules, line, func(m lineMatch) (string, bool) {
		name := strings.TrimSpace(m.get("category"))
		return name, name != ""
	})
}
