package detect

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/docstruct/internal/structure"
)

func TestDetect_Markers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want structure.Kind
	}{
		{"toc", "Table of Contents\n1. Intro 1", structure.KindTOC},
		{"index", "Subject Index\nAlgorithms, 10", structure.KindIndex},
		{"course file", "COURSE FILE INDEX\n1. Vision", structure.KindComponents},
		{"checklist", "Lab checklist\n1. Manual", structure.KindComponents},
	}
	d := New(500, 5, nil)
	for _, tt := range tests {
		res := d.Detect(tt.text)
		if res.Method != "markers" {
			t.Errorf("%s: expected marker detection, got %q", tt.name, res.Method)
		}
		if got := res.Kind(); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestDetect_MarkersOnlyInSample(t *testing.T) {
	text := strings.Repeat("x", 600) + "\ntable of contents"
	res := New(500, 5, nil).Detect(text)
	if res.Method == "markers" {
		t.Errorf("expected marker past the sample to be ignored, got %+v", res)
	}
}

func TestDetect_ContentFallback(t *testing.T) {
	var toc strings.Builder
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&toc, "%d. Part %d..........%d\n", i, i, i*10)
	}
	res := New(500, 5, nil).Detect(toc.String())
	if res.Method != "content" || res.Kind() != structure.KindTOC {
		t.Errorf("expected toc from content, got %+v", res)
	}

	var idx strings.Builder
	for _, term := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta"} {
		fmt.Fprintf(&idx, "%s, 3, 7\n", term)
	}
	res = New(500, 5, nil).Detect(idx.String())
	if res.Kind() != structure.KindIndex {
		t.Errorf("expected index from content, got %+v", res)
	}
}

func TestDetect_TooFewEntries(t *testing.T) {
	res := New(500, 5, nil).Detect("1. Alpha 1\n2. Beta 2")
	if res.Kind() != KindUnknown || res.Method != "none" {
		t.Errorf("expected unknown, got %+v", res)
	}
}
