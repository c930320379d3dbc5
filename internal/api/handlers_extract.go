package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docstruct/internal/detect"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/structure"
)

// document is the text of one request, from an upload or a JSON body.
type document struct {
	Filename string
	Text     string
	Pages    int
}

type requestError struct {
	msg  string
	code int
}

func (e *requestError) Error() string { return e.msg }

// readDocument accepts a multipart upload in field "file" or a JSON body
// {"text": "..."}.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body struct {
			Text     string `json:"text"`
			Filename string `json:"filename"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return document{}, &requestError{"invalid json body: " + err.Error(), http.StatusBadRequest}
		}
		if strings.TrimSpace(body.Text) == "" {
			return document{}, &requestError{"text is required", http.StatusBadRequest}
		}
		name := body.Filename
		if name == "" {
			name = "inline.txt"
		}
		return document{Filename: sanitizeFilename(name), Text: parser.Normalize(body.Text)}, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return document{}, &requestError{"invalid multipart form: " + err.Error(), http.StatusBadRequest}
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return document{}, &requestError{"file is required: " + err.Error(), http.StatusBadRequest}
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := s.readUpload(filename, file)
	if err != nil {
		return document{}, err
	}
	tree, text, err := parser.ParseFile(bytes.NewReader(data), filename, s.parseOptions())
	if err != nil {
		return document{}, &requestError{err.Error(), http.StatusUnprocessableEntity}
	}
	return document{Filename: filename, Text: text, Pages: tree.Pages}, nil
}

// readUpload checks the extension and size limit of one uploaded file.
func (s *Server) readUpload(filename string, r io.Reader) ([]byte, error) {
	if !parser.IsSupportedExtension(filename) {
		return nil, &requestError{fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest}
	}
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, &requestError{"failed to read file", http.StatusInternalServerError}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, &requestError{fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge}
	}
	return data, nil
}

func (s *Server) parseOptions() parser.Options {
	return parser.Options{FallbackPdftotext: s.cfg.PDFFallbackPdftotext}
}

type extractResponse struct {
	structure.Result
	Filename  string         `json:"filename"`
	Pages     int            `json:"pages,omitempty"`
	Detection *detect.Result `json:"detection,omitempty"`
}

// handleExtract runs one extractor synchronously and returns its result.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(chi.URLParam(r, "kind"))
	if kind != pipeline.KindAuto {
		if _, err := structure.ParseKind(kind); err != nil {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	ex := *s.deps.Extractor
	if v := r.URL.Query().Get("repair"); v != "" {
		repair, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "repair must be a boolean", http.StatusBadRequest)
			return
		}
		ex.Repair = repair
	}

	doc, err := s.readDocument(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	resp := extractResponse{Filename: doc.Filename, Pages: doc.Pages}
	if kind == pipeline.KindAuto {
		det := ex.Detect(doc.Text)
		resp.Detection = &det
		if det.Kind() == detect.KindUnknown {
			jsonError(w, pipeline.ErrUndetected.Error(), http.StatusUnprocessableEntity)
			return
		}
		kind = string(det.Kind())
	}

	res, err := ex.Extract(kind, doc.Text)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	resp.Result = res

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleDetect reports which structures the document looks like.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	det := s.deps.Extractor.Detect(doc.Text)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename":  doc.Filename,
		"detection": det,
		"kind":      det.Kind(),
	})
}

func writeRequestError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		jsonError(w, re.msg, re.code)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
