package api

import (
	"net/http"
)

// handleTagStats counts tags across every stored map. Unreadable maps are
// skipped and reported.
func (s *Server) handleTagStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := s.store.List(ctx)
	if err != nil {
		jsonError(w, "failed to list annotations", http.StatusInternalServerError)
		return
	}

	tags := map[string]int{}
	nodes := 0
	var skipped []string
	for _, id := range ids {
		m, ok, err := s.store.Get(ctx, id)
		if err != nil || !ok {
			skipped = append(skipped, id)
			continue
		}
		for tag, n := range m.Counts() {
			tags[tag] += n
		}
		nodes += len(m)
	}

	resp := map[string]any{
		"documents": len(ids) - len(skipped),
		"nodes":     nodes,
		"tags":      tags,
	}
	if len(skipped) > 0 {
		resp["skipped"] = skipped
	}
	writeJSON(w, http.StatusOK, resp)
}
