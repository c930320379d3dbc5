package structure

import (
	"fmt"
	"strings"
	"testing"
)

func TestComponentExtractor_Basic(t *testing.T) {
	input := `1. Vision and Mission of the University and Department
2) Faculty profiles and individual timetables
a) Lab manual
iv. Course handout and closure report
6: Assignment questions with solution
7 - Mid Term Exam question paper
8.Attendance register
9 Result analysis`

	components := NewComponentExtractor(nil).Extract(input)
	want := []struct{ number, title string }{
		{"1", "Vision and Mission of the University and Department"},
		{"2", "Faculty profiles and individual timetables"},
		{"a", "Lab manual"},
		{"iv", "Course handout and closure report"},
		{"6", "Assignment questions with solution"},
		{"7", "Mid Term Exam question paper"},
		{"8", "Attendance register"},
		{"9", "Result analysis"},
	}
	if len(components) != len(want) {
		t.Fatalf("expected %d components, got %d: %v", len(want), len(components), components)
	}
	for i, w := range want {
		if components[i].Number != w.number || components[i].Title != w.title {
			t.Errorf("component %d: expected %s/%q, got %s/%q",
				i, w.number, w.title, components[i].Number, components[i].Title)
		}
	}
}

func TestComponentExtractor_TrailingDescription(t *testing.T) {
	components := NewComponentExtractor(nil).Extract("4. Name list of students (section wise)")
	if len(components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(components))
	}
	c := components[0]
	if c.Title != "Name list of students" || c.Description != "section wise" {
		t.Errorf("expected title and description split, got %q / %q", c.Title, c.Description)
	}
}

func TestComponentExtractor_PendingIdentifierMerge(t *testing.T) {
	components := NewComponentExtractor(nil).Extract("4.\nStudent name lists")
	if len(components) != 1 {
		t.Fatalf("expected 1 component, got %d: %v", len(components), components)
	}
	if components[0].Number != "4" || components[0].Title != "Student name lists" {
		t.Errorf("unexpected component: %+v", components[0])
	}
}

func TestComponentExtractor_PendingIdentifierDroppedBeforeFreshItem(t *testing.T) {
	components := NewComponentExtractor(nil).Extract("4.\n5. Quiz papers")
	if len(components) != 1 {
		t.Fatalf("expected 1 component, got %d: %v", len(components), components)
	}
	if components[0].Number != "5" {
		t.Errorf("expected component 5, got %+v", components[0])
	}
}

func TestComponentExtractor_CategoryClosing(t *testing.T) {
	input := `COURSE INFORMATION:
1. Syllabus copy
2. Time table
ASSESSMENT DETAILS
3. Quiz papers
EMPTY SECTION
`
	x := NewComponentExtractor(nil)
	components := x.Extract(input)
	if len(components) != 3 {
		t.Fatalf("expected 3 components, got %d", len(components))
	}

	categories := x.Categories()
	if len(categories) != 2 {
		t.Fatalf("expected 2 non-empty categories, got %d: %v", len(categories), categories)
	}
	if categories[0].Name != "COURSE INFORMATION" || len(categories[0].Components) != 2 {
		t.Errorf("unexpected first category: %v", categories[0])
	}
	if categories[1].Name != "ASSESSMENT DETAILS" || len(categories[1].Components) != 1 {
		t.Errorf("unexpected second category: %v", categories[1])
	}
	if components[2].Category != "ASSESSMENT DETAILS" {
		t.Errorf("expected component 3 to reference its category, got %q", components[2].Category)
	}
}

func TestComponentExtractor_ComponentsBeforeFirstHeaderUncategorized(t *testing.T) {
	x := NewComponentExtractor(nil)
	components := x.Extract("1. Preface material\nLAB RECORDS\n2. Lab manual")
	if len(components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(components))
	}
	if components[0].Category != "" {
		t.Errorf("expected first component uncategorized, got %q", components[0].Category)
	}
	if len(x.Categories()) != 1 {
		t.Errorf("expected no synthesized buckets when headers exist, got %v", x.Categories())
	}
}

func TestComponentExtractor_BucketByTens(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 23; i++ {
		fmt.Fprintf(&b, "%d. Item number %d\n", i, i)
	}

	x := NewComponentExtractor(nil)
	x.Extract(b.String())
	categories := x.Categories()

	want := []struct {
		name  string
		count int
	}{
		{"Components 1-10", 10},
		{"Components 11-20", 10},
		{"Components 21-23", 3},
	}
	if len(categories) != len(want) {
		t.Fatalf("expected %d buckets, got %d: %v", len(want), len(categories), categories)
	}
	for i, w := range want {
		if categories[i].Name != w.name || len(categories[i].Components) != w.count {
			t.Errorf("bucket %d: expected %s with %d, got %s with %d",
				i, w.name, w.count, categories[i].Name, len(categories[i].Components))
		}
	}
}

func TestBucketByTens_SkipsNonIntegerIdentifiers(t *testing.T) {
	components := []*Component{
		newComponent("a", "Lettered", "", ""),
		newComponent("0", "Zero", "", ""),
		newComponent("3", "Three", "", ""),
	}
	categories := bucketByTens(components)
	if len(categories) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(categories))
	}
	if categories[0].Name != "Components 1-3" || len(categories[0].Components) != 1 {
		t.Errorf("unexpected bucket: %v", categories[0])
	}
}

func TestComponentExtractor_EmptyAndGarbage(t *testing.T) {
	for _, input := range []string{"", "\n \n", "Hello world\nno numbers at all"} {
		x := NewComponentExtractor(nil)
		if components := x.Extract(input); len(components) != 0 {
			t.Errorf("input %q: expected no components, got %v", input, components)
		}
		if len(x.Categories()) != 0 {
			t.Errorf("input %q: expected no categories, got %v", input, x.Categories())
		}
	}
}

func TestComponentExtractor_Idempotent(t *testing.T) {
	input := "COURSE INFORMATION:\n1. Syllabus copy\n4.\nStudent name lists"
	x := NewComponentExtractor(nil)
	first := RenderComponents(x.Extract(input), x.Categories())
	second := RenderComponents(x.Extract(input), x.Categories())
	if first != second {
		t.Errorf("expected identical renderings\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestRenderComponents_CategoryHeaders(t *testing.T) {
	x := NewComponentExtractor(nil)
	components := x.Extract("LAB RECORDS\n1. Lab manual\n2. Name list (section wise)")
	got := RenderComponents(components, x.Categories())
	want := "\n=== LAB RECORDS ===\n1. Lab manual\n2. Name list\n   section wise"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderComponents_BucketsListEachComponentOnce(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "%d. Item number %d\n", i, i)
	}
	x := NewComponentExtractor(nil)
	got := RenderComponents(x.Extract(b.String()), x.Categories())

	if !strings.HasPrefix(got, "\n=== Components 1-10 ===\n1. Item number 1\n") {
		t.Errorf("expected first bucket header, got:\n%s", got)
	}
	if !strings.Contains(got, "10. Item number 10\n\n=== Components 11-12 ===\n11. Item number 11\n12. Item number 12") {
		t.Errorf("expected second bucket, got:\n%s", got)
	}
	if strings.Contains(got, "UNCATEGORIZED") {
		t.Errorf("expected no uncategorized section, got:\n%s", got)
	}
	if n := strings.Count(got, "\n3. Item number 3\n"); n != 1 {
		t.Errorf("expected item 3 listed once, got %d times", n)
	}
}

func TestRenderComponents_BucketsWithLetteredItem(t *testing.T) {
	x := NewComponentExtractor(nil)
	got := RenderComponents(x.Extract("1. Syllabus\na) Lab manual"), x.Categories())
	want := "\n=== Components 1-2 ===\n1. Syllabus\n\n=== UNCATEGORIZED ===\na. Lab manual"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderComponents_PreHeaderComponentsUncategorized(t *testing.T) {
	x := NewComponentExtractor(nil)
	got := RenderComponents(x.Extract("1. Preface material\nLAB RECORDS\n2. Lab manual"), x.Categories())
	want := "\n=== LAB RECORDS ===\n2. Lab manual\n\n=== UNCATEGORIZED ===\n1. Preface material"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSummarizeComponents(t *testing.T) {
	if got := SummarizeComponents(nil, nil); got != "No components found." {
		t.Errorf("unexpected empty summary: %q", got)
	}

	x := NewComponentExtractor(nil)
	components := x.Extract("1. Course file cover page\n2. Syllabus\n3. Time table\n4. Lab manual\n5. Question bank\n6. Results")
	got := SummarizeComponents(components, x.Categories())
	for _, want := range []string{
		"Document contains 6 components and appears to be a Course File Index.",
		"Organized into 1 categories:",
		"- Components 1-6: 6 items",
		"First 5 components:",
		"... and 1 more components",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, got)
		}
	}
}

func TestComponentSlug(t *testing.T) {
	tests := []struct {
		c    Component
		want string
	}{
		{Component{Number: "1", Title: "Vision and Mission"}, "1-vision-and-mission"},
		{Component{Number: "IV", Title: "Lab: Safety / Rules"}, "iv-lab-safety-rules"},
		{Component{Number: "2", Title: "  "}, "2"},
		{Component{Number: "3", Title: strings.Repeat("word ", 20)}, "3-word-word-word-word-word-word-word-word-word-wor"},
	}
	for _, tt := range tests {
		if got := tt.c.Slug(); got != tt.want {
			t.Errorf("Slug(%q, %q) = %q, want %q", tt.c.Number, tt.c.Title, got, tt.want)
		}
	}
}

func TestSlugs_RepeatsGetSuffix(t *testing.T) {
	long := strings.Repeat("word ", 20)
	components := []*Component{
		{Number: "1", Title: "Lab manual"},
		{Number: "1", Title: "Lab manual"},
		{Number: "3", Title: long + "alpha"},
		{Number: "3", Title: long + "beta"},
		{Number: "1", Title: "Lab manual 2"},
		{Number: "", Title: "!!"},
	}
	got := Slugs(components)
	want := []string{
		"1-lab-manual",
		"1-lab-manual-2",
		"3-word-word-word-word-word-word-word-word-word-wor",
		"3-word-word-word-word-word-word-word-word-word-wor-2",
		"1-lab-manual-2-2",
		"component",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d slugs, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slug %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
