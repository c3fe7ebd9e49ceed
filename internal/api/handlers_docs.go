package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/store"
)

// handleListAnnotations lists the ids of every stored annotation map.
func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("list annotations failed", "error", err)
		jsonError(w, "failed to list annotations", http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": ids})
}

// handleGetAnnotations returns the stored map for a document as a bare JSON
// object, the format the browser clients read. A document with nothing
// stored yet gets an empty object, since those clients seed from the body
// whatever the status.
func (s *Server) handleGetAnnotations(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	m, ok, err := s.store.Get(r.Context(), docID)
	if errors.Is(err, store.ErrInvalidID) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		annotationOps.WithLabelValues("get", "error").Inc()
		s.log.Error("get annotations failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to read annotations", http.StatusInternalServerError)
		return
	}
	if ok {
		annotationOps.WithLabelValues("get", "ok").Inc()
	} else {
		annotationOps.WithLabelValues("get", "missing").Inc()
		m = annotation.Map{}
	}

	body, err := m.Encode()
	if err != nil {
		jsonError(w, "failed to encode annotations", http.StatusInternalServerError)
		return
	}
	etag := `"` + store.ContentHashHex(body) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// handlePutAnnotations replaces the stored map for a document.
func (s *Server) handlePutAnnotations(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := store.ValidateID(docID); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxBodyBytes {
		jsonError(w, "annotation map too large", http.StatusRequestEntityTooLarge)
		return
	}
	m, err := decodeStrict(data)
	if err != nil {
		jsonError(w, "body must be a JSON object of string tags: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.Put(r.Context(), docID, m); err != nil {
		annotationOps.WithLabelValues("put", "error").Inc()
		s.log.Error("store annotations failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to store annotations", http.StatusInternalServerError)
		return
	}
	annotationOps.WithLabelValues("put", "ok").Inc()
	annotatedNodes.Observe(float64(len(m)))
	s.log.Debug("stored annotations", "doc_id", docID, "nodes", len(m))

	body, _ := m.Encode()
	w.Header().Set("ETag", `"`+store.ContentHashHex(body)+`"`)
	w.WriteHeader(http.StatusNoContent)
}

// decodeStrict accepts only objects whose values are all strings. Stored
// maps are read leniently, but a client sending anything else is a bug.
func decodeStrict(data []byte) (annotation.Map, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("null body")
	}
	return annotation.Map(m), nil
}
