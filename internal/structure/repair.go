package structure

import (
	"maps"
	"regexp"
	"strings"
)

// TitleTable maps component identifiers to canonical titles.
type TitleTable map[string]string

// DefaultKnownTitles returns a fresh copy of the built-in table used when no
// table is configured.
func DefaultKnownTitles() TitleTable {
	return TitleTable{
		"1": "Vision and Mission of the University and Department",
		"2": "Faculty profiles and individual timetables",
		"3": "Course handout and closure report",
		"4": "Name list of students (section wise)",
		"5": "Mid Term Exam question papers",
	}
}

// TitleRepairer rewrites fragmentary component titles produced by text
// extraction that split one logical line into several.
type TitleRepairer struct {
	known TitleTable
}

func NewTitleRepairer(known TitleTable) *TitleRepairer {
	if known == nil {
		known = DefaultKnownTitles()
	}
	return &TitleRepairer{known: maps.Clone(known)}
}

var (
	bareNumberTitle = regexp.MustCompile(`^\d+\.?\s*$`)
	parenthetical   = regexp.MustCompile(`\([^)]*\)`)
	spaceRun        = regexp.MustCompile(`\s+`)
	punctRun        = regexp.MustCompile(`[\-–.,;:]+(?:\s+[\-–.,;:]+)+`)
)

var continuationVerbs = []string{"is ", "are ", "was ", "were ", "teaching "}

type repairState struct {
	previous  string
	mainTopic string
}

// Repair rewrites component titles in place.
func (r *TitleRepairer) Repair(components []*Component) {
	r.applyKnown(components)

	var st repairState
	for i, c := range components {
		if i == 0 && isHeaderRow(c.Title) {
			continue
		}

		title := c.Title
		if bareNumberTitle.MatchString(title) {
			if i > 0 && st.previous != "" {
				c.Title = st.previous + " (continued)"
			}
			continue
		}

		switch {
		case strings.HasPrefix(title, "("):
			if i > 0 && st.previous != "" {
				subject := strings.TrimSpace(parenthetical.ReplaceAllString(st.previous, ""))
				c.Title = subject + " " + title
			}
		case hasContinuationVerb(title):
			if i > 0 {
				if st.mainTopic == "" && i > 1 {
					st.mainTopic = topicFrom(components[max(0, i-3):i])
				}
				switch {
				case st.mainTopic != "":
					c.Title = st.mainTopic + " - " + title
				case st.previous != "":
					c.Title = st.previous + " - " + title
				}
			}
		}

		if isSubstantial(title) {
			st.previous = title
			if st.mainTopic == "" {
				st.mainTopic = firstWords(title, 3)
			}
		}
	}

	for _, c := range components {
		c.Title = cleanRepairedTitle(c.Title)
	}
}

func (r *TitleRepairer) applyKnown(components []*Component) {
	for _, c := range components {
		known, ok := r.known[c.Number]
		if !ok {
			continue
		}
		lower := strings.ToLower(c.Title)
		if strings.HasPrefix(c.Title, "(") || strings.Contains(lower, "teaching") || len(c.Title) < 15 {
			c.Title = known
		}
	}
}

// isSubstantial reports a title that may serve as context for the ones after it.
func isSubstantial(title string) bool {
	return !strings.HasPrefix(title, "(") && len(strings.Fields(title)) >= 3
}

func isHeaderRow(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "contents") || strings.Contains(lower, "no")
}

func hasContinuationVerb(title string) bool {
	lower := strings.ToLower(title)
	for _, v := range continuationVerbs {
		if strings.HasPrefix(lower, v) {
			return true
		}
	}
	return false
}

func topicFrom(prior []*Component) string {
	for i := len(prior) - 1; i >= 0; i-- {
		if isSubstantial(prior[i].Title) {
			return firstWords(prior[i].Title, 3)
		}
	}
	return ""
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// cleanRepairedTitle collapses whitespace, then punctuation runs into ". ".
// The replacement can leave a doubled or trailing space, so whitespace is
// collapsed once more and the ends trimmed.
func cleanRepairedTitle(title string) string {
	title = spaceRun.ReplaceAllString(title, " ")
	title = punctRun.ReplaceAllString(title, ". ")
	title = spaceRun.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}
