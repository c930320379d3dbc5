package stats

import (
	"testing"
	"time"
)

func TestTrackerReportPercentiles(t *testing.T) {
	tr := NewTracker(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		tr.Record("toc", ms, 2)
	}

	snap := tr.Report().Overall
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Entries != 10 {
		t.Errorf("expected entries=10, got %d", snap.Entries)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Errorf("expected min=100 max=500, got %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Errorf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Errorf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Errorf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Errorf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestTrackerReportByKind(t *testing.T) {
	tr := NewTracker(time.Hour)
	tr.Record("toc", 10, 4)
	tr.Record("index", 20, 7)
	tr.Record("index", 40, 1)

	rep := tr.Report()
	if rep.Overall.Count != 3 {
		t.Fatalf("expected 3 runs overall, got %d", rep.Overall.Count)
	}
	idx := rep.ByKind["index"]
	if idx.Count != 2 || idx.Entries != 8 || idx.AvgMs != 30 {
		t.Errorf("unexpected index snapshot: %+v", idx)
	}
	if _, ok := rep.ByKind["components"]; ok {
		t.Error("expected no snapshot for a kind without runs")
	}
}

func TestTrackerPrunesExpiredRuns(t *testing.T) {
	now := time.Now()
	tr := NewTracker(time.Minute)
	tr.now = func() time.Time { return now }
	tr.Record("toc", 100, 1)

	now = now.Add(2 * time.Minute)
	if got := tr.Report().Overall.Count; got != 0 {
		t.Fatalf("expected expired run pruned, got %d", got)
	}

	tr.Record("toc", 200, 1)
	snap := tr.Report().Overall
	if snap.Count != 1 || snap.MinMs != 200 {
		t.Errorf("expected only the fresh run, got %+v", snap)
	}
}

func TestTrackerClampsNegativeDuration(t *testing.T) {
	tr := NewTracker(time.Hour)
	tr.Record("toc", -10, 0)
	if snap := tr.Report().Overall; snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Errorf("expected clamped duration 0, got %+v", snap)
	}
}
