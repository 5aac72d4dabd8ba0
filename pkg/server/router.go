package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forumlab/agora/pkg/auth"
	"github.com/forumlab/agora/pkg/quota"
)

// routes builds the REST API.
//
//	GET    /healthz, /readyz, /metrics          operational
//	/api/v1/threads, /api/v1/comments           forum CRUD
//	/api/v1/ai/*                                AI operations (quota guarded)
//	GET    /api/v1/quota (alias /api/v1/ai/quota)  caller's quota snapshot
//
// /api/v1/health mirrors /healthz for clients that only reach the API prefix.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/threads", s.handleListThreads)
		r.Post("/threads", s.handleCreateThread)
		r.Route("/threads/{threadID}", func(r chi.Router) {
			r.Get("/", s.handleGetThread)
			r.Put("/", s.handleUpdateThread)
			r.Delete("/", s.handleDeleteThread)
		})

		r.Post("/comments", s.handleCreateComment)
		r.Get("/comments/thread/{threadID}", s.handleListComments)
		r.Route("/comments/{commentID}", func(r chi.Router) {
			r.Get("/", s.handleGetComment)
			r.Put("/", s.handleUpdateComment)
			r.Delete("/", s.handleDeleteComment)
		})

		r.Get("/quota", s.handleQuotaStatus)
		r.Get("/health", s.handleHealth)
		r.Get("/health/ready", s.handleReady)

		r.Route("/ai", func(r chi.Router) {
			r.Use(s.quotaMiddleware())

			r.Get("/quota", s.handleQuotaStatus)

			r.Post("/summarize", s.handleSummarize)
			r.Post("/qa", s.handleQA)
			r.Post("/rewrite", s.handleRewrite)
			r.Post("/moderate", s.handleModerate)

			r.Route("/images", func(r chi.Router) {
				r.Post("/generate", s.handleGenerateImage)
				r.Post("/edit", s.handleEditImage)
			})

			r.Route("/videos", func(r chi.Router) {
				r.Post("/generate", s.handleGenerateVideo)
				r.Post("/generate-from-image", s.handleGenerateVideoFromImage)
				r.Get("/status/{operationID}", s.handleVideoStatus)
			})

			r.Route("/music", func(r chi.Router) {
				r.Post("/generate", s.handleGenerateMusic)
				r.Post("/generate-simple", s.handleGenerateMusicSimple)
			})
		})
	})

	return r
}

// quotaMiddleware guards the AI routes with the daily per-user quota.
// Polling an async operation's status does not consume quota.
func (s *Server) quotaMiddleware() func(http.Handler) http.Handler {
	if s.deps.Guard == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	mw := quota.Middleware(quota.MiddlewareConfig{
		Guard: s.deps.Guard,
		PrincipalFunc: func(r *http.Request) string {
			return auth.UserID(r.Context())
		},
		OnExceeded: func(w http.ResponseWriter, r *http.Request, snap quota.Snapshot) {
			s.deps.Metrics.RecordQuotaDenial(r.Context())
			quota.WriteExceeded(w, snap)
		},
	})

	return func(next http.Handler) http.Handler {
		guarded := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}
