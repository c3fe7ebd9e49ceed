package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/formulatag/internal/paragraphs"
	"github.com/dgallion1/formulatag/internal/parser"
)

// handleSplitUpload accepts a full HTML document as multipart "file" and
// adds its paragraphs to the library.
func (s *Server) handleSplitUpload(w http.ResponseWriter, r *http.Request) {
	if s.paragraphs == nil {
		jsonError(w, "paragraph library not configured", http.StatusServiceUnavailable)
		return
	}
	if err := r.ParseMultipartForm(s.cfg.MaxBodyBytes); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsHTML(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxBodyBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxBodyBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxBodyBytes), http.StatusRequestEntityTooLarge)
		return
	}

	prefix := r.FormValue("prefix")
	if prefix == "" {
		prefix = strings.TrimSuffix(filename, filepath.Ext(filename)) + "_"
	}
	refs, err := paragraphs.Split(bytes.NewReader(data), s.paragraphs.Dir(), paragraphs.SplitOptions{
		Selector: r.FormValue("selector"),
		Prefix:   sanitizeFilename(prefix),
	})
	if err != nil {
		s.log.Error("split failed", "filename", filename, "error", err)
		jsonError(w, "failed to split document", http.StatusInternalServerError)
		return
	}

	s.log.Info("document split", "filename", filename, "paragraphs", len(refs))
	if refs == nil {
		refs = []string{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"paragraphs": refs})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
