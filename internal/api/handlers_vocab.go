package api

import (
	"net/http"

	"github.com/dgallion1/formulatag/internal/vocab"
)

type vocabularyResponse struct {
	*vocab.Vocabulary
	Keys map[string]string `json:"keys"`
}

// handleVocabulary returns the tag set plus the resolved key bindings, so
// browser clients do not have to rebuild the keymap themselves.
func (s *Server) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	km, err := s.vocab.Keymap()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	keys := make(map[string]string, len(km))
	for k, a := range km {
		if a.Kind == vocab.ActionTag {
			keys[k] = a.Tag
		} else {
			keys[k] = string(a.Kind)
		}
	}
	writeJSON(w, http.StatusOK, vocabularyResponse{Vocabulary: s.vocab, Keys: keys})
}
