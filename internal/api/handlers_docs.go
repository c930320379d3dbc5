package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docstruct/internal/store"
)

// handleListDocuments lists stored documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, 1000)
	}

	docs, err := s.deps.Store.List(r.Context(), limit)
	if err != nil {
		s.log.Error("list documents failed", "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs, "count": len(docs)})
}

// handleGetDocument returns every stored extraction for a document.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	exts, err := s.deps.Store.GetByDocID(r.Context(), docID)
	if err != nil {
		s.log.Error("get document failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to load document", http.StatusInternalServerError)
		return
	}
	if len(exts) == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	resp := map[string]any{
		"doc_id":      docID,
		"extractions": exts,
	}
	if s.deps.Mirror != nil {
		nodes, err := s.deps.Mirror.Published(r.Context(), docID, 1000)
		if err != nil {
			s.log.Warn("list published nodes failed", "doc_id", docID, "error", err)
		} else {
			resp["published_nodes"] = len(nodes)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleDeleteDocument deletes a document's extractions and its published nodes.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	ctx := r.Context()

	n, err := s.deps.Store.Delete(ctx, docID)
	if err != nil {
		s.log.Error("delete document failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to delete document", http.StatusInternalServerError)
		return
	}
	if n == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	resp := map[string]any{"extractions_deleted": n}
	if s.deps.Mirror != nil {
		if err := s.deps.Mirror.Unpublish(ctx, docID); err != nil {
			s.log.Warn("unpublish failed", "doc_id", docID, "error", err)
			resp["unpublish_error"] = err.Error()
		} else {
			resp["unpublished"] = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
