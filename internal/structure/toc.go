package structure

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// TOCExtractor recovers table-of-contents and index entries from page text.
// Each Extract call resets the extractor, so one instance can be reused
// serially but must not be shared between goroutines.
type TOCExtractor struct {
	log *slog.Logger

	tocEntries []TOCEntry
	tocCount   int

	indexEntries []IndexEntry
	indexPos     map[string]int
}

// NewTOCExtractor returns an extractor that logs through log. A nil logger
// discards output.
func NewTOCExtractor(log *slog.Logger) *TOCExtractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &TOCExtractor{log: log}
}

// ExtractTOC classifies every line of text and returns the reconstructed
// forest of entries in source order. Unrecognized lines are skipped.
func (x *TOCExtractor) ExtractTOC(text string) []TOCEntry {
	x.tocEntries = nil
	x.tocCount = 0

	var flat []TOCEntry
	for _, line := range splitLines(text) {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if entry, ok := parseTOCLine(line); ok {
			flat = append(flat, entry)
		}
	}

	x.tocCount = len(flat)
	x.tocEntries = buildForest(flat)
	x.log.Debug("toc entries extracted", "entries", x.tocCount, "roots", len(x.tocEntries))
	return x.tocEntries
}

// TOC returns the forest built by the last ExtractTOC call.
func (x *TOCExtractor) TOC() []TOCEntry { return x.tocEntries }

// TOCCount is the number of lines accepted by the last ExtractTOC call,
// counting nested entries.
func (x *TOCExtractor) TOCCount() int { return x.tocCount }

var leaderTail = regexp.MustCompile(`(?:\s*\.){2,}\s*$`)

func parseTOCLine(line string) (TOCEntry, bool) {
	build := func(m lineMatch) (TOCEntry, bool) { return tocEntryFrom(m, line) }

	if entry, ok := firstMatch(tocRules, line, build); ok {
		return entry, true
	}

	if loc := tocTrailingPage.FindStringSubmatchIndex(line); loc != nil {
		title := cleanTOCTitle(line[:loc[2]])
		page, err := strconv.Atoi(line[loc[2]:loc[3]])
		if err == nil && title != "" {
			return TOCEntry{
				Level:   leadingSpaces(line) / 2,
				Title:   title,
				PageNum: page,
				RawText: line,
			}, true
		}
	}

	if m, ok := tocPagelessRule.match(line); ok {
		return tocEntryFrom(m, line)
	}
	return TOCEntry{}, false
}

func tocEntryFrom(m lineMatch, line string) (TOCEntry, bool) {
	title := cleanTOCTitle(m.get("title"))
	if title == "" {
		return TOCEntry{}, false
	}

	page := 0
	if p := m.get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TOCEntry{}, false
		}
		page = n
	}

	level := len(m.get("indent")) / 2
	if prefix := m.get("prefix"); prefix != "" {
		level = strings.Count(prefix, ".")
	}

	return TOCEntry{Level: level, Title: title, PageNum: page, RawText: line}, true
}

// cleanTOCTitle drops spaced dot leaders ("Intro . . . .") left before the page.
func cleanTOCTitle(s string) string {
	return strings.TrimSpace(leaderTail.ReplaceAllString(s, ""))
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func leadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
