package structure

import (
	"regexp"
	"strings"
	"unicode"
)

// lineRule is one entry of a pattern cascade. A rule matches a whole line and
// yields its named groups; accept, when set, can still decline the match.
type lineRule struct {
	name   string
	re     *regexp.Regexp
	accept func(lineMatch) bool
}

// lineMatch holds the named groups captured by a rule.
type lineMatch struct {
	rule   string
	groups map[string]string
}

func (m lineMatch) get(name string) string { return m.groups[name] }

func rule(name, expr string) lineRule {
	return lineRule{name: name, re: regexp.MustCompile(expr)}
}

func (r lineRule) guard(fn func(lineMatch) bool) lineRule {
	r.accept = fn
	return r
}

func (r lineRule) match(line string) (lineMatch, bool) {
	sub := r.re.FindStringSubmatch(line)
	if sub == nil {
		return lineMatch{}, false
	}
	m := lineMatch{rule: r.name, groups: make(map[string]string, len(sub))}
	for i, name := range r.re.SubexpNames() {
		if name != "" {
			m.groups[name] = sub[i]
		}
	}
	if r.accept != nil && !r.accept(m) {
		return lineMatch{}, false
	}
	return m, true
}

// firstMatch runs rules in order and returns the first record build accepts.
func firstMatch[T any](rules []lineRule, line string, build func(lineMatch) (T, bool)) (T, bool) {
	for _, r := range rules {
		m, ok := r.match(line)
		if !ok {
			continue
		}
		if rec, ok := build(m); ok {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Numeric outline prefix: "3", "3.", "1.2.4", optionally led by a
// Chapter/Section/Part word. The trailing dot is left out of the group.
const numericPrefix = `(?:(?i:chapter|section|part)\s+)?\d+(?:\.\d+)*`

// TOC rules, highest priority first.
var tocRules = []lineRule{
	// "1. Introduction..........10"
	rule("dotted", `^(?P<indent>\s*)(?:(?P<prefix>`+numericPrefix+`)(?:\.\s*|\s+))?(?P<title>.*?)\s*\.{2,}\s*(?P<page>\d+)$`),
	// "1.2 Background 12", "Chapter 3 Methods 45"
	rule("numbered", `^(?P<indent>\s*)(?P<prefix>`+numericPrefix+`)(?:\.\s*|\s+)(?P<title>.*?)\s+(?P<page>\d+)$`),
	// "IV. Results 30"
	rule("roman", `^(?P<indent>\s*)(?P<prefix>[IVXLC]+|[ivxlc]+)(?:\.\s*|\s+)(?P<title>.*?)\s+(?P<page>\d+)$`).
		guard(romanPrefix),
	// "A.1 Appendix tables 210"
	rule("outline", `^(?P<indent>\s*)(?P<prefix>[A-Z](?:\.\d+)+)\.?\s+(?P<title>.*?)\s+(?P<page>\d+)$`),
	// "    Acknowledgements..........3"
	rule("indented-dotted", `^(?P<indent>\s{2,})(?P<title>.*?)\s*\.{2,}\s*(?P<page>\d+)$`),
	// "    Related work 14"
	rule("indented", `^(?P<indent>\s{2,})(?P<title>.*?)\s+(?P<page>\d+)$`),
}

// Last resort: anything ending in "word <page>". A comma before the number
// marks an index row ("Alpha, 3, 7"), not a TOC line.
var tocTrailingPage = regexp.MustCompile(`[^\s,]\s+(\d+)$`)

// Outline headings that carry no page number at all.
var tocPagelessRule = rule("pageless", `^(?P<indent>\s*)(?P<prefix>`+numericPrefix+`)(?:\.\s*|\s+)(?P<title>\S.*)$`).
	guard(func(m lineMatch) bool { return hasLetter(m.get("title")) })

const pageList = `\d+(?:\s*[-–]\s*\d+)?(?:\s*,\s*\d+(?:\s*[-–]\s*\d+)?)*`

var (
	// "Algorithms, 10, 15-17, 23"
	indexMainRule = rule("main", `^\s*(?P<term>.*?),\s*(?P<pages>`+pageList+`)\s*$`)
	// "    recursive, 15, 17"
	indexSubRule = rule("sub", `^\s{2,}(?P<term>.*?),\s*(?P<pages>`+pageList+`)\s*$`)
	// "Sorting, see Algorithms" and "Algorithms. See also Machine Learning"
	indexSeeRules = []lineRule{
		rule("see", `(?i)^\s*(?P<term>.*?),\s*see\s+(?P<ref>.+)$`),
		rule("see-also", `(?i)^\s*(?P<term>.*?)\.\s*see\s+also\s+(?P<ref>.+)$`),
	}
)

// Component rules, highest priority first.
var componentRules = []lineRule{
	// "1. Vision and Mission of the University and Department"
	rule("numbered", `^(?P<number>\d+)[.)]\s+(?P<title>.+)$`).guard(notParenthetical),
	// "a) Faculty profiles and individual timetables"
	rule("lettered", `^(?P<number>[a-zA-Z])[.)]\s+(?P<title>.+)$`),
	// "iv. Course handout and closure report"
	rule("roman", `^(?P<number>[ivxIVX]+)[.)]\s+(?P<title>.+)$`),
	// "    4. Student name lists"
	rule("indented", `^\s+(?P<number>\d+)[.)]\s+(?P<title>.+)$`).guard(notParenthetical),
	// "4. Name list of students (section wise)"
	rule("described", `^\s*(?P<number>\d+)[.)]\s+(?P<title>[^()]+?)\s*\((?P<description>[^()]+)\)\s*$`),
	// "6: Assignment questions with solution"
	rule("colon", `^(?P<number>\d+):\s+(?P<title>.+)$`),
	// "7 - Mid Term Exam question paper"
	rule("hyphen", `^(?P<number>\d+)\s*-\s+(?P<title>.+)$`),
	// "8.Assignment questions"
	rule("compact", `^(?P<number>\d+)[.):](?P<title>.+)$`),
}

// Permissive fallbacks, tried on the trimmed line.
var componentFallbacks = []lineRule{
	rule("loose", `^(?P<number>\d+)[.\s):\-]+\s*(?P<title>.+)$`),
	rule("bare", `^(?P<number>\d+)[.\s):\-]*\s*(?P<title>.*)$`),
}

var (
	pendingIdentifier = regexp.MustCompile(`^(\d+|[A-Za-z])[.)]$`)
	freshNumbered     = regexp.MustCompile(`^\d+[.)]\s+`)
)

var categoryRules = []lineRule{
	// "COURSE INFORMATION:"
	rule("colon", `^(?P<category>[A-Z][A-Z\s]+):`),
	// "ASSESSMENT DETAILS"
	rule("caps", `^(?P<category>[A-Z][A-Z\s]+)$`),
	// "II. GENERAL INFORMATION"
	rule("roman", `^[IVX]+\.\s*(?P<category>[A-Z][A-Z\s]+)`),
}

func notParenthetical(m lineMatch) bool {
	return !endsWithParenthetical(m.get("title"))
}

// endsWithParenthetical reports a title like "Name list (section wise)".
func endsWithParenthetical(title string) bool {
	t := strings.TrimSpace(title)
	return strings.HasSuffix(t, ")") && strings.LastIndex(t, "(") > 0
}

var wellFormedRoman = regexp.MustCompile(`^C{0,3}(?:XC|XL|L?X{0,3})(?:IX|IV|V?I{0,3})$`)

// romanPrefix rejects words that merely use numeral letters ("civil works 14").
func romanPrefix(m lineMatch) bool {
	p := strings.ToUpper(m.get("prefix"))
	return p != "" && wellFormedRoman.MatchString(p)
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
