package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TOCEntry is one table-of-contents line with its nesting level and target page.
type TOCEntry struct {
	Level    int        `json:"level"`
	Title    string     `json:"title"`
	PageNum  int        `json:"page_num,omitempty"` // 0 when the line carried no page
	RawText  string     `json:"-"`
	Children []TOCEntry `json:"children,omitempty"`
}

// String renders the entry on one line, indented by its level.
func (e TOCEntry) String() string {
	page := "N/A"
	if e.PageNum > 0 {
		page = "p." + strconv.Itoa(e.PageNum)
	}
	return strings.Repeat(" ", e.Level*2) + e.Title + " (" + page + ")"
}

// PageRef is a single index page reference. Raw is set instead of Page when
// the token could not be read as a page or a sane range.
type PageRef struct {
	Page int
	Raw  string
}

// IsNumeric reports whether the reference is a page number.
func (p PageRef) IsNumeric() bool { return p.Raw == "" }

func (p PageRef) String() string {
	if p.Raw != "" {
		return p.Raw
	}
	return strconv.Itoa(p.Page)
}

// MarshalJSON writes numeric references as numbers and opaque ones as strings.
func (p PageRef) MarshalJSON() ([]byte, error) {
	if p.Raw != "" {
		return json.Marshal(p.Raw)
	}
	return []byte(strconv.Itoa(p.Page)), nil
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (p *PageRef) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*p = PageRef{Page: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = PageRef{Raw: s}
	return nil
}

// Subentry is an indented index line attributed to a main term.
type Subentry struct {
	Term     string
	PageRefs []PageRef
}

// IndexEntry is a term with its page references, subentries and see references.
type IndexEntry struct {
	Term       string
	PageRefs   []PageRef
	Subentries []Subentry
	References []string
}

// Pages returns the numeric page references in order.
func (e IndexEntry) Pages() []int {
	var out []int
	for _, p := range e.PageRefs {
		if p.IsNumeric() {
			out = append(out, p.Page)
		}
	}
	return out
}

// Subentry returns the page references recorded for subterm.
func (e IndexEntry) Subentry(subterm string) ([]PageRef, bool) {
	for _, s := range e.Subentries {
		if s.Term == subterm {
			return s.PageRefs, true
		}
	}
	return nil, false
}

func (e *IndexEntry) setSubentry(subterm string, refs []PageRef) {
	for i := range e.Subentries {
		if e.Subentries[i].Term == subterm {
			e.Subentries[i].PageRefs = refs
			return
		}
	}
	e.Subentries = append(e.Subentries, Subentry{Term: subterm, PageRefs: refs})
}

func (e IndexEntry) String() string {
	var b strings.Builder
	b.WriteString(e.Term)
	b.WriteString(": ")
	b.WriteString(joinRefs(e.PageRefs))
	if len(e.References) > 0 {
		b.WriteString(" (see ")
		b.WriteString(strings.Join(e.References, "; "))
		b.WriteString(")")
	}
	for _, s := range e.Subentries {
		b.WriteString("\n  ")
		b.WriteString(s.Term)
		b.WriteString(": ")
		b.WriteString(joinRefs(s.PageRefs))
	}
	return b.String()
}

func joinRefs(refs []PageRef) string {
	if len(refs) == 0 {
		return "N/A"
	}
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON keeps subentries as an object in insertion order.
func (e IndexEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"term":`)
	term, err := json.Marshal(e.Term)
	if err != nil {
		return nil, err
	}
	buf.Write(term)

	buf.WriteString(`,"page_refs":`)
	refs := e.PageRefs
	if refs == nil {
		refs = []PageRef{}
	}
	pages, err := json.Marshal(refs)
	if err != nil {
		return nil, err
	}
	buf.Write(pages)

	if len(e.Subentries) > 0 {
		buf.WriteString(`,"subentries":{`)
		for i, s := range e.Subentries {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(s.Term)
			if err != nil {
				return nil, err
			}
			subRefs := s.PageRefs
			if subRefs == nil {
				subRefs = []PageRef{}
			}
			v, err := json.Marshal(subRefs)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}

	if len(e.References) > 0 {
		see, err := json.Marshal(e.References)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"see":`)
		buf.Write(see)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the form written by MarshalJSON. Subentry order follows
// the source object.
func (e *IndexEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Term       string          `json:"term"`
		PageRefs   []PageRef       `json:"page_refs"`
		Subentries json.RawMessage `json:"subentries"`
		See        []string        `json:"see"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = IndexEntry{Term: raw.Term, PageRefs: raw.PageRefs, References: raw.See}
	if len(raw.Subentries) == 0 || string(raw.Subentries) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Subentries))
	if _, err := dec.Token(); err != nil { // {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var refs []PageRef
		if err := dec.Decode(&refs); err != nil {
			return err
		}
		e.Subentries = append(e.Subentries, Subentry{Term: key, PageRefs: refs})
	}
	return nil
}

// Component is one numbered, lettered or Roman-numbered item of a checklist
// or inventory.
type Component struct {
	Number      string       `json:"number"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	RawText     string       `json:"-"`
	Children    []*Component `json:"children"`
}

func newComponent(number, title, description, raw string) *Component {
	return &Component{
		Number:      number,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		RawText:     raw,
		Children:    []*Component{},
	}
}

// Slug names the component in paths: its number and title, lowercased,
// with runs of other characters collapsed to "-".
func (c *Component) Slug() string {
	return slugify(c.Number + " " + c.Title)
}

// Slugs returns one distinct slug per component, in order. A repeated slug
// gets "-2", "-3", ... and a component with nothing sluggable is named
// "component".
func Slugs(components []*Component) []string {
	out := make([]string, len(components))
	seen := make(map[string]bool, len(components))
	for i, c := range components {
		base := c.Slug()
		if base == "" {
			base = "component"
		}
		slug := base
		for n := 2; seen[slug]; n++ {
			slug = fmt.Sprintf("%s-%d", base, n)
		}
		seen[slug] = true
		out[i] = slug
	}
	return out
}

var slugJunk = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = slugJunk.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return strings.Trim(s, "-")
}

func (c *Component) String() string {
	s := c.Number + ". " + c.Title
	if c.Description != "" {
		s += "\n   " + c.Description
	}
	return s
}

// ComponentCategory groups components under an explicit header or a
// synthesized numeric range.
type ComponentCategory struct {
	Name       string       `json:"name"`
	Components []*Component `json:"components"`
}

func (c *ComponentCategory) String() string {
	return c.Name + " (" + strconv.Itoa(len(c.Components)) + " components)"
}
