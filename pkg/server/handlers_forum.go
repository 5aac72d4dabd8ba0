package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/forumlab/agora/pkg/auth"
	"github.com/forumlab/agora/pkg/forum"
)

// pageFromQuery reads skip/limit query parameters.
func pageFromQuery(r *http.Request) forum.Page {
	var p forum.Page
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil {
		p.Offset = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		p.Limit = v
	}
	return p
}

// requireUser returns the authenticated user ID, or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.deps.Forum.ListThreads(r.Context(), pageFromQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threadList(threads))
}

func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request) {
	thread, err := s.deps.Forum.GetThread(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	thread, err := s.deps.Forum.CreateThread(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, thread)
}

func (s *Server) handleUpdateThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updateThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	thread, err := s.deps.Forum.UpdateThread(r.Context(), userID, chi.URLParam(r, "threadID"), forum.ThreadUpdate{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.deps.Forum.DeleteThread(r.Context(), userID, chi.URLParam(r, "threadID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.deps.Forum.ListComments(r.Context(), chi.URLParam(r, "threadID"), pageFromQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commentList(comments))
}

func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request) {
	comment, err := s.deps.Forum.GetComment(r.Context(), chi.URLParam(r, "commentID"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	comment, err := s.deps.Forum.CreateComment(r.Context(), userID, req.ThreadID, req.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	comment, err := s.deps.Forum.UpdateComment(r.Context(), userID, chi.URLParam(r, "commentID"), req.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.deps.Forum.DeleteComment(r.Context(), userID, chi.URLParam(r, "commentID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
