package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/classify"
	"github.com/dgallion1/formulatag/internal/paragraphs"
	"github.com/dgallion1/formulatag/internal/parser"
	"github.com/dgallion1/formulatag/internal/store"
)

type paragraphResponse struct {
	HTML        string         `json:"html"`
	Filename    string         `json:"filename"`
	Annotations annotation.Map `json:"annotations"`
}

func (s *Server) handleRandomParagraph(w http.ResponseWriter, r *http.Request) {
	if s.paragraphs == nil {
		jsonError(w, "paragraph library not configured", http.StatusServiceUnavailable)
		return
	}
	p, err := s.paragraphs.Random()
	if errors.Is(err, paragraphs.ErrEmpty) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("random paragraph failed", "error", err)
		jsonError(w, "failed to read paragraph", http.StatusInternalServerError)
		return
	}
	s.writeParagraph(w, r, p)
}

func (s *Server) handleGetParagraph(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupParagraph(w, chi.URLParam(r, "ref"))
	if !ok {
		return
	}
	s.writeParagraph(w, r, p)
}

// writeParagraph answers with the fragment and any map already stored
// under its ref, so the client can seed its session in one round trip.
func (s *Server) writeParagraph(w http.ResponseWriter, r *http.Request, p paragraphs.Paragraph) {
	m, _, err := s.store.Get(r.Context(), p.Ref)
	if err != nil {
		// A broken stored map should not block review of the paragraph.
		s.log.Warn("stored annotations unreadable", "ref", p.Ref, "error", err)
		m = nil
	}
	if m == nil {
		m = annotation.Map{}
	}
	writeJSON(w, http.StatusOK, paragraphResponse{HTML: p.HTML, Filename: p.Ref, Annotations: m})
}

// handleSuggestions classifies the formulas of a paragraph.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupParagraph(w, chi.URLParam(r, "ref"))
	if !ok {
		return
	}
	tree, err := (&parser.HTMLParser{}).Parse(strings.NewReader(p.HTML), p.Ref)
	if err != nil {
		jsonError(w, "failed to parse paragraph: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	cands, err := tree.Candidates()
	if err != nil {
		jsonError(w, "failed to list formulas: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, classify.Suggest(cands, s.vocab))
}

func (s *Server) lookupParagraph(w http.ResponseWriter, ref string) (paragraphs.Paragraph, bool) {
	if s.paragraphs == nil {
		jsonError(w, "paragraph library not configured", http.StatusServiceUnavailable)
		return paragraphs.Paragraph{}, false
	}
	p, err := s.paragraphs.Get(ref)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return p, false
	case errors.Is(err, paragraphs.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
		return p, false
	case err != nil:
		s.log.Error("read paragraph failed", "ref", ref, "error", err)
		jsonError(w, "failed to read paragraph", http.StatusInternalServerError)
		return p, false
	}
	return p, true
}
