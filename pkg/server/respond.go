package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forumlab/agora/pkg/forum"
	"github.com/forumlab/agora/pkg/media"
	"github.com/forumlab/agora/pkg/quota"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// respondError maps domain errors onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, forum.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, forum.ErrThreadNotFound),
		errors.Is(err, forum.ErrCommentNotFound),
		errors.Is(err, media.ErrOperationNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, forum.ErrNotOwner):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case quota.IsExceeded(err):
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", err.Error())
	case errors.Is(err, quota.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "quota_store_unavailable", "quota store unavailable")
	case errors.Is(err, media.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "not_configured", "media generation is not configured")
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "validation_error", err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
