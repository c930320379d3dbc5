// Package stats keeps rolling-window latency figures for extraction runs.
package stats

import (
	"slices"
	"sync"
	"time"
)

type run struct {
	at         time.Time
	kind       string
	durationMs int64
	entries    int
}

// Snapshot aggregates the runs still inside the window.
type Snapshot struct {
	Count   int     `json:"count"`
	Entries int     `json:"entries"`
	MinMs   int64   `json:"min_ms"`
	MaxMs   int64   `json:"max_ms"`
	AvgMs   float64 `json:"avg_ms"`
	P50Ms   float64 `json:"p50_ms"`
	P95Ms   float64 `json:"p95_ms"`
	P99Ms   float64 `json:"p99_ms"`
}

// Report is the overall snapshot plus one per extraction kind.
type Report struct {
	Overall Snapshot            `json:"overall"`
	ByKind  map[string]Snapshot `json:"by_kind"`
}

// Tracker records extraction runs within a rolling window. Safe for
// concurrent use.
type Tracker struct {
	mu     sync.Mutex
	runs   []run
	maxAge time.Duration
	now    func() time.Time
}

func NewTracker(maxAge time.Duration) *Tracker {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Tracker{
		runs:   make([]run, 0, 256),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Record adds one run of kind that took durationMs and produced entries.
func (t *Tracker) Record(kind string, durationMs int64, entries int) {
	if durationMs < 0 {
		durationMs = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now)
	t.runs = append(t.runs, run{at: now, kind: kind, durationMs: durationMs, entries: entries})
}

func (t *Tracker) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(t.now())

	byKind := make(map[string][]run)
	for _, r := range t.runs {
		byKind[r.kind] = append(byKind[r.kind], r)
	}
	rep := Report{
		Overall: summarize(t.runs),
		ByKind:  make(map[string]Snapshot, len(byKind)),
	}
	for kind, runs := range byKind {
		rep.ByKind[kind] = summarize(runs)
	}
	return rep
}

func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.maxAge)
	t.runs = slices.DeleteFunc(t.runs, func(r run) bool { return r.at.Before(cutoff) })
}

func summarize(runs []run) Snapshot {
	if len(runs) == 0 {
		return Snapshot{}
	}

	values := make([]int64, 0, len(runs))
	var sum int64
	entries := 0
	for _, r := range runs {
		values = append(values, r.durationMs)
		sum += r.durationMs
		entries += r.entries
	}
	slices.Sort(values)

	return Snapshot{
		Count:   len(values),
		Entries: entries,
		MinMs:   values[0],
		MaxMs:   values[len(values)-1],
		AvgMs:   float64(sum) / float64(len(values)),
		P50Ms:   percentile(values, 50),
		P95Ms:   percentile(values, 95),
		P99Ms:   percentile(values, 99),
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := float64(len(sorted)-1) * pct / 100.0
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}
