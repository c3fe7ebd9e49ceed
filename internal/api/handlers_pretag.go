package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/formulatag/internal/pipeline"
)

// handlePretag queues a pre-tagging pass over the paragraph library.
// ?overwrite=true replaces stored tags instead of only filling gaps.
func (s *Server) handlePretag(w http.ResponseWriter, r *http.Request) {
	if s.pretag == nil {
		jsonError(w, "pre-tagging is not configured", http.StatusServiceUnavailable)
		return
	}
	overwrite := false
	if v := r.URL.Query().Get("overwrite"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "overwrite must be a boolean", http.StatusBadRequest)
			return
		}
		overwrite = b
	}

	job := pipeline.NewJob(overwrite)
	if err := s.pretag.Submit(job); err != nil {
		s.log.Warn("pretag job rejected", "job_id", job.ID, "error", err)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	annotationOps.WithLabelValues("pretag", "queued").Inc()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      job.ID,
		"status":      pipeline.StatusQueued,
		"queue_depth": s.pretag.QueueDepth(),
	})
}

func (s *Server) handlePretagStatus(w http.ResponseWriter, r *http.Request) {
	if s.pretag == nil {
		jsonError(w, "pre-tagging is not configured", http.StatusServiceUnavailable)
		return
	}
	job := s.pretag.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
