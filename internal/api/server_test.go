package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/detect"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/pathstore"
	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/stats"
	"github.com/dgallion1/docstruct/internal/store"
)

const testKey = "test-key"

const tocText = `Table of Contents
1. Introduction..........1
1.1 Background..........3
2. Methods..........10
3. Results..........20
4. Discussion..........30
5. Conclusion..........40
`

// fakeStore backs both the pipeline and the document endpoints.
type fakeStore struct {
	mu   sync.Mutex
	recs []store.Extraction
}

func (f *fakeStore) Save(_ context.Context, e store.Extraction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, e)
	return nil
}

func (f *fakeStore) FindByHash(_ context.Context, hash, kind string) (*store.Extraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.ContentHash == hash && r.Kind == kind {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) List(_ context.Context, limit int) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []store.Document
	seen := map[string]int{}
	for _, r := range f.recs {
		if i, ok := seen[r.DocID]; ok {
			docs[i].Kinds = append(docs[i].Kinds, r.Kind)
			continue
		}
		seen[r.DocID] = len(docs)
		docs = append(docs, store.Document{DocID: r.DocID, Filename: r.Filename, Kinds: []string{r.Kind}})
	}
	return docs[:min(limit, len(docs))], nil
}

func (f *fakeStore) GetByDocID(_ context.Context, docID string) ([]store.Extraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Extraction
	for _, r := range f.recs {
		if r.DocID == docID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, docID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.recs[:0]
	for _, r := range f.recs {
		if r.DocID != docID {
			kept = append(kept, r)
		}
	}
	n := len(f.recs) - len(kept)
	f.recs = kept
	return n, nil
}

type fakeMirror struct {
	unpublished []string
}

func (m *fakeMirror) Unpublish(_ context.Context, docID string) error {
	m.unpublished = append(m.unpublished, docID)
	return nil
}

func (m *fakeMirror) Published(_ context.Context, docID string, _ int) ([]pathstore.ListChildrenResponse, error) {
	return []pathstore.ListChildrenResponse{{Key: "docs/" + docID + "/toc"}}, nil
}

type testEnv struct {
	srv    *httptest.Server
	store  *fakeStore
	mirror *fakeMirror
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	st := &fakeStore{}
	mirror := &fakeMirror{}
	tracker := stats.NewTracker(time.Hour)
	ex := &pipeline.Extractor{
		Detector: detect.New(500, 5, log),
		Stats:    tracker,
		Log:      log,
	}
	orch := pipeline.NewOrchestrator(cfg, pipeline.NewWorker(ex, st, nil, log, parser.Options{}), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	s := NewServer(Deps{
		Orchestrator: orch,
		Extractor:    ex,
		Store:        st,
		Mirror:       mirror,
		Stats:        tracker,
	}, log, cfg)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st, mirror: mirror}
}

func (e *testEnv) do(t *testing.T, method, path, contentType string, body io.Reader) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(b)
}

func multipartBody(t *testing.T, field string, files map[string]string, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealth_NoAuth(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)
	for _, auth := range []string{"", "Basic abc", "Bearer wrong"} {
		req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/documents", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("auth %q: expected 401, got %d", auth, resp.StatusCode)
		}
	}
}

func TestExtract_JSONText(t *testing.T) {
	env := newTestEnv(t)
	resp, out := env.do(t, http.MethodPost, "/api/extract/toc", "application/json", jsonBody(t, map[string]string{"text": tocText}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, out)
	}
	if out["kind"] != "toc" || out["count"] != float64(6) {
		t.Errorf("unexpected result: %v", out)
	}
	if _, ok := out["detection"]; ok {
		t.Error("expected no detection for an explicit kind")
	}
	if !strings.Contains(out["rendered"].(string), "Introduction (p.1)") {
		t.Errorf("unexpected rendering: %v", out["rendered"])
	}
}

func TestExtract_Auto(t *testing.T) {
	env := newTestEnv(t)
	resp, out := env.do(t, http.MethodPost, "/api/extract/auto", "application/json", jsonBody(t, map[string]string{"text": tocText}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, out)
	}
	det, ok := out["detection"].(map[string]any)
	if !ok || det["method"] != "markers" || det["is_toc"] != true {
		t.Errorf("unexpected detection: %v", out["detection"])
	}
	if out["kind"] != "toc" {
		t.Errorf("expected toc result, got %v", out["kind"])
	}

	resp, _ = env.do(t, http.MethodPost, "/api/extract/auto", "application/json", jsonBody(t, map[string]string{"text": "plain prose"}))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for undetected text, got %d", resp.StatusCode)
	}
}

func TestExtract_Multipart(t *testing.T) {
	env := newTestEnv(t)
	body, ct := multipartBody(t, "file", map[string]string{"list.txt": "1. Vision and Mission\n2. Faculty profiles\n"}, nil)
	resp, out := env.do(t, http.MethodPost, "/api/extract/components", ct, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, out)
	}
	if out["filename"] != "list.txt" || out["count"] != float64(2) {
		t.Errorf("unexpected result: %v", out)
	}
}

func TestExtract_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/api/extract/glossary", "application/json", jsonBody(t, map[string]string{"text": "x"}))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown kind: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/extract/toc", "application/json", jsonBody(t, map[string]string{"text": "  "}))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty text: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/extract/toc?repair=maybe", "application/json", jsonBody(t, map[string]string{"text": tocText}))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad repair flag: expected 400, got %d", resp.StatusCode)
	}

	body, ct := multipartBody(t, "file", map[string]string{"scan.tiff": "x"}, nil)
	resp, _ = env.do(t, http.MethodPost, "/api/extract/toc", ct, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unsupported file: expected 400, got %d", resp.StatusCode)
	}
}

func TestDetect(t *testing.T) {
	env := newTestEnv(t)
	resp, out := env.do(t, http.MethodPost, "/api/detect", "application/json", jsonBody(t, map[string]string{"text": "Subject Index\nAlgorithms, 10"}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out["kind"] != "index" {
		t.Errorf("expected index, got %v", out["kind"])
	}
}

func waitForStatus(t *testing.T, env *testEnv, jobID string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, out := env.do(t, http.MethodGet, "/api/ingest/"+jobID+"/status", "", nil)
		switch pipeline.JobStatus(out["status"].(string)) {
		case pipeline.StatusCompleted, pipeline.StatusFailed, pipeline.StatusPartial, pipeline.StatusDupSkipped:
			return out
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return nil
}

func TestIngest_AndStatus(t *testing.T) {
	env := newTestEnv(t)
	body, ct := multipartBody(t, "file", map[string]string{"book.txt": tocText}, map[string]string{"doc_id": "book-1"})
	resp, out := env.do(t, http.MethodPost, "/api/ingest", ct, body)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %v", resp.StatusCode, out)
	}
	if out["doc_id"] != "book-1" || out["kind"] != "auto" {
		t.Errorf("unexpected ingest response: %v", out)
	}

	status := waitForStatus(t, env, out["job_id"].(string))
	if status["status"] != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed, got %v", status)
	}
	progress := status["progress"].(map[string]any)
	if progress["detected_kind"] != "toc" || progress["entries"] != float64(6) {
		t.Errorf("unexpected progress: %v", progress)
	}
	if len(env.store.recs) != 1 || env.store.recs[0].DocID != "book-1" {
		t.Errorf("expected stored extraction for book-1, got %+v", env.store.recs)
	}
}

func TestIngest_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "file", map[string]string{"book.txt": tocText}, map[string]string{"kind": "glossary"})
	resp, _ := env.do(t, http.MethodPost, "/api/ingest", ct, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad kind: expected 400, got %d", resp.StatusCode)
	}

	body, ct = multipartBody(t, "other", map[string]string{"book.txt": tocText}, nil)
	resp, _ = env.do(t, http.MethodPost, "/api/ingest", ct, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/ingest/nope/status", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown job: expected 404, got %d", resp.StatusCode)
	}
}

func TestBatchIngest(t *testing.T) {
	env := newTestEnv(t)
	body, ct := multipartBody(t, "files", map[string]string{
		"list.txt":  "1. Vision and Mission\n2. Faculty profiles\n",
		"scan.tiff": "x",
	}, map[string]string{"kind": "components"})
	resp, out := env.do(t, http.MethodPost, "/api/ingest/batch", ct, body)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	jobs := out["jobs"].([]any)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(jobs))
	}
	var queued, rejected int
	for _, j := range jobs {
		m := j.(map[string]any)
		if _, ok := m["error"]; ok {
			rejected++
			continue
		}
		queued++
		waitForStatus(t, env, m["job_id"].(string))
	}
	if queued != 1 || rejected != 1 {
		t.Errorf("expected 1 queued and 1 rejected, got %d/%d", queued, rejected)
	}
}

func TestDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.store.Save(ctx, store.Extraction{ID: "01A", DocID: "doc1", Filename: "a.pdf", Kind: "toc"})
	env.store.Save(ctx, store.Extraction{ID: "01B", DocID: "doc1", Filename: "a.pdf", Kind: "index"})

	resp, out := env.do(t, http.MethodGet, "/api/documents", "", nil)
	if resp.StatusCode != http.StatusOK || out["count"] != float64(1) {
		t.Fatalf("unexpected list: %d %v", resp.StatusCode, out)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/documents?limit=zero", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", resp.StatusCode)
	}

	resp, out = env.do(t, http.MethodGet, "/api/documents/doc1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if exts := out["extractions"].([]any); len(exts) != 2 {
		t.Errorf("expected 2 extractions, got %d", len(exts))
	}
	if out["published_nodes"] != float64(1) {
		t.Errorf("expected published node count, got %v", out["published_nodes"])
	}

	resp, out = env.do(t, http.MethodDelete, "/api/documents/doc1", "", nil)
	if resp.StatusCode != http.StatusOK || out["extractions_deleted"] != float64(2) {
		t.Fatalf("unexpected delete: %d %v", resp.StatusCode, out)
	}
	if len(env.mirror.unpublished) != 1 || env.mirror.unpublished[0] != "doc1" {
		t.Errorf("expected doc1 unpublished, got %v", env.mirror.unpublished)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/documents/doc1", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, "/api/documents/doc1", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestExtractStats(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/extract/toc", "application/json", jsonBody(t, map[string]string{"text": tocText}))

	resp, out := env.do(t, http.MethodGet, "/api/stats/extract", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	overall := out["stats"].(map[string]any)["overall"].(map[string]any)
	if overall["count"] != float64(1) || overall["entries"] != float64(6) {
		t.Errorf("unexpected stats: %v", overall)
	}
	if _, ok := out["queue_depth"]; !ok {
		t.Error("expected queue depth")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		"../../etc/passwd.txt": "passwd.txt",
		`C:\docs\toc.docx`:     "toc.docx",
		"a..b.txt":             "a_b.txt",
		"":                     "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
