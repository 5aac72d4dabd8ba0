package server

import (
	"net/http"

	"github.com/forumlab/agora/pkg/forum"
	"github.com/forumlab/agora/pkg/version"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleReady reports whether dependencies are usable. The forum store is
// probed with a cheap read; AI and media clients have no ping surface.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Forum.ListThreads(r.Context(), forum.Page{Limit: 1}); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "forum storage unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleQuotaStatus returns the caller's quota snapshot without consuming
// any of it.
func (s *Server) handleQuotaStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if s.deps.Guard == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}

	snap, err := s.deps.Guard.Snapshot(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quotaStatusResponse{
		Limit:     snap.Limit,
		Used:      snap.Used,
		Remaining: snap.Remaining,
		ResetsAt:  snap.ResetsAt,
	})
}
