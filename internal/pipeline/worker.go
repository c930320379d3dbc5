package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docstruct/internal/detect"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/stats"
	"github.com/dgallion1/docstruct/internal/store"
	"github.com/dgallion1/docstruct/internal/structure"
	"github.com/dgallion1/docstruct/internal/titles"
)

// ResultStore persists extractions. *store.Store satisfies it.
type ResultStore interface {
	Save(ctx context.Context, e store.Extraction) error
	FindByHash(ctx context.Context, contentHash, kind string) (*store.Extraction, error)
}

// Publisher mirrors results elsewhere. *pathstore.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, docID, filename string, res structure.Result) (int, error)
}

// Extractor runs detection and the structure extractors with the
// configured repair settings, recording latency for each run.
type Extractor struct {
	Detector *detect.Detector
	Stats    *stats.Tracker
	Titles   titles.Source
	Repair   bool
	Log      *slog.Logger
}

// Extract runs one extractor over text. KindAuto detects the kind first;
// an undetectable document is an error.
func (e *Extractor) Extract(kind string, text string) (structure.Result, error) {
	k, err := e.resolveKind(kind, text)
	if err != nil {
		return structure.Result{}, err
	}

	opts := structure.Options{Logger: e.Log, RepairTitles: e.Repair}
	if e.Repair && e.Titles != nil {
		opts.KnownTitles = e.Titles.Current()
	}

	start := time.Now()
	res, err := structure.Extract(k, text, opts)
	if err != nil {
		return structure.Result{}, err
	}
	if e.Stats != nil {
		e.Stats.Record(string(k), time.Since(start).Milliseconds(), res.Count)
	}
	return res, nil
}

// Detect reports which structures text looks like.
func (e *Extractor) Detect(text string) detect.Result {
	return e.Detector.Detect(text)
}

func (e *Extractor) resolveKind(kind, text string) (structure.Kind, error) {
	if kind != KindAuto {
		return structure.ParseKind(kind)
	}
	k := e.Detector.Detect(text).Kind()
	if k == detect.KindUnknown {
		return "", ErrUndetected
	}
	return k, nil
}

// ErrUndetected is returned for KindAuto when no structure was recognized.
var ErrUndetected = errors.New("no document structure detected")

// Worker processes a single document job.
type Worker struct {
	extractor *Extractor
	store     ResultStore
	publisher Publisher // nil disables publishing
	log       *slog.Logger
	parseOpts parser.Options
}

func NewWorker(ex *Extractor, rs ResultStore, pub Publisher, log *slog.Logger, parseOpts parser.Options) *Worker {
	return &Worker{
		extractor: ex,
		store:     rs,
		publisher: pub,
		log:       log,
		parseOpts: parseOpts,
	}
}

// Process runs the full extraction pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	tree, text, err := parser.ParseFile(bytes.NewReader(job.FileData()), job.Filename, w.parseOpts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetFileData(nil)
	if strings.TrimSpace(text) == "" {
		log.Warn("no text extracted")
		job.AddError("no extractable text")
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetContentHash(ContentHashHex([]byte(text)))

	// Phase 2: Detect
	kind := job.Kind
	if kind == KindAuto {
		job.SetStatus(StatusDetecting, "detecting")
		det := w.extractor.Detect(text)
		log.Info("detected document type", "kind", det.Kind(), "method", det.Method)
		if det.Kind() == detect.KindUnknown {
			job.SetDetected(tree.Pages, string(detect.KindUnknown))
			job.AddError(ErrUndetected.Error())
			job.SetStatus(StatusFailed, "detecting")
			return
		}
		kind = string(det.Kind())
	}
	job.SetDetected(tree.Pages, kind)

	// Phase 2.5: Dedup check
	snap := job.Snapshot()
	existing, err := w.store.FindByHash(ctx, snap.ContentHash, kind)
	switch {
	case err == nil:
		log.Info("duplicate document, skipping", "existing_id", existing.ID, "existing_doc_id", existing.DocID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	case !errors.Is(err, store.ErrNotFound):
		log.Warn("dedup check failed, proceeding", "error", err)
	}

	// Phase 3: Extract
	job.SetStatus(StatusExtracting, "extracting")
	res, err := w.extractor.Extract(kind, text)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	log.Info("extraction complete", "kind", kind, "entries", res.Count)

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	body, err := json.Marshal(res)
	if err != nil {
		job.AddError(fmt.Sprintf("encode result: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	rec := store.Extraction{
		ID:          generateULID(),
		DocID:       job.DocID,
		Filename:    job.Filename,
		Kind:        kind,
		ContentHash: snap.ContentHash,
		EntryCount:  res.Count,
		Summary:     res.Summary,
		Result:      body,
		CreatedAt:   time.Now().UTC(),
	}
	if err := w.store.Save(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			log.Info("duplicate stored concurrently, skipping")
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	job.AddExtraction(rec.ID, res.Count)

	// Phase 5: Publish
	if w.publisher != nil {
		job.SetStatus(StatusPublishing, "publishing")
		n, err := w.publisher.Publish(ctx, job.DocID, job.Filename, res)
		job.AddPublished(n)
		if err != nil {
			log.Error("publish failed", "error", err, "nodes_written", n)
			job.AddError(fmt.Sprintf("publish: %s", err))
			job.SetStatus(StatusPartial, "done")
			return
		}
	}

	job.SetStatus(StatusCompleted, "done")
}
