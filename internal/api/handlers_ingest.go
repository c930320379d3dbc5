package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/structure"
)

// queuedJob is the 202 body for an accepted upload. In a batch, rejected
// files carry only Filename and Error.
type queuedJob struct {
	Filename string             `json:"filename"`
	JobID    string             `json:"job_id,omitempty"`
	DocID    string             `json:"doc_id,omitempty"`
	Kind     string             `json:"kind,omitempty"`
	Status   pipeline.JobStatus `json:"status,omitempty"`
	PollURL  string             `json:"poll_url,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// ingestKind reads the optional "kind" form value; empty means auto.
func ingestKind(r *http.Request) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(r.FormValue("kind")))
	if kind == "" || kind == pipeline.KindAuto {
		return pipeline.KindAuto, nil
	}
	k, err := structure.ParseKind(kind)
	if err != nil {
		return "", err
	}
	return string(k), nil
}

// submit queues one upload and describes the outcome.
func (s *Server) submit(docID, filename, kind string, data []byte) (queuedJob, error) {
	job := pipeline.NewJob(docID, filename, kind, data)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		return queuedJob{Filename: filename, Error: err.Error()}, err
	}
	snap := job.Snapshot()
	return queuedJob{
		Filename: filename,
		JobID:    snap.ID,
		DocID:    snap.DocID,
		Kind:     snap.Kind,
		Status:   snap.Status,
		PollURL:  "/api/ingest/" + snap.ID + "/status",
	}, nil
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind, err := ingestKind(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := s.readUpload(filename, file)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	queued, err := s.submit(r.FormValue("doc_id"), filename, kind, data)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrStopped) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusAccepted, queued)
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	job := s.deps.Orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleBatchIngest queues every part named "files". A bad file is reported
// in its slot and does not fail the others.
func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10<<20)
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind, err := ingestKind(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]queuedJob, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		f, err := fh.Open()
		if err != nil {
			results = append(results, queuedJob{Filename: filename, Error: "failed to open file"})
			continue
		}
		data, err := s.readUpload(filename, f)
		f.Close()
		if err != nil {
			results = append(results, queuedJob{Filename: filename, Error: err.Error()})
			continue
		}
		queued, _ := s.submit("", filename, kind, data)
		results = append(results, queued)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// sanitizeFilename keeps only the base name of an uploaded file.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
