package server

import (
	"net/http"
	"time"

	"github.com/forumlab/agora/pkg/ai"
)

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req summarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	summary, err := s.deps.AI.Summarize(r.Context(), req.Content)
	s.deps.Metrics.RecordAIRequest(r.Context(), "summarize", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req qaRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	answer, err := s.deps.AI.Answer(r.Context(), req.Context, req.Question)
	s.deps.Metrics.RecordAIRequest(r.Context(), "qa", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qaResponse{Answer: answer})
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req rewriteRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	rewritten, err := s.deps.AI.Rewrite(r.Context(), req.Text, ai.RewriteMode(req.Mode), req.TargetLanguage)
	s.deps.Metrics.RecordAIRequest(r.Context(), "rewrite", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewriteResponse{RewrittenText: rewritten, Mode: req.Mode})
}

func (s *Server) handleModerate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req moderationRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	start := time.Now()
	result, err := s.deps.AI.Moderate(r.Context(), req.Content)
	s.deps.Metrics.RecordAIRequest(r.Context(), "moderate", time.Since(start), err)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moderationResponse{
		RiskScore:        result.RiskScore,
		ReasonTags:       result.ReasonTags,
		Explanation:      result.Explanation,
		FlaggedForReview: result.FlaggedForReview,
	})
}
