// Package server wires the HTTP API: forum CRUD, AI text operations,
// media generation, quota enforcement, and operational endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/forumlab/agora/pkg/ai"
	"github.com/forumlab/agora/pkg/auth"
	"github.com/forumlab/agora/pkg/config"
	"github.com/forumlab/agora/pkg/forum"
	"github.com/forumlab/agora/pkg/media"
	"github.com/forumlab/agora/pkg/observability"
	"github.com/forumlab/agora/pkg/quota"
	"golang.org/x/sync/errgroup"
)

// Dependencies holds the services the HTTP layer exposes. Nil media
// services respond with 503 on their endpoints; a nil Guard disables
// quota enforcement; a nil Validator disables authentication.
type Dependencies struct {
	Forum     *forum.Service
	AI        *ai.Service
	Images    *media.ImageService
	Videos    *media.VideoService
	Music     *media.MusicService
	Guard     *quota.Guard
	Metrics   *observability.Metrics
	Validator *auth.JWTValidator
}

// Server is the agora HTTP server.
type Server struct {
	cfg    *config.Config
	deps   Dependencies
	server *http.Server
}

// NewServer creates a server from pre-built dependencies.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	s := &Server{cfg: cfg, deps: deps}
	s.server = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.buildHandler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Bootstrap builds all dependencies from configuration and returns a
// ready-to-start server.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Server, *config.DBPool, error) {
	pool := config.NewDBPool()

	var deps Dependencies
	var err error

	store, err := forum.NewStoreFromConfig(&cfg.Forum, cfg, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("forum storage: %w", err)
	}
	deps.Forum = forum.NewService(store, &cfg.Forum)

	provider, err := ai.NewProviderFromConfig(&cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("llm provider: %w", err)
	}
	deps.AI = ai.NewService(provider)

	deps.Guard, err = quota.NewGuardFromConfig(&cfg.Quota, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("quota guard: %w", err)
	}

	deps.Metrics, err = observability.InitMetrics()
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}

	if cfg.Media.APIKey != "" {
		deps.Images, err = media.NewImageService(ctx, &cfg.Media)
		if err != nil {
			return nil, nil, fmt.Errorf("image service: %w", err)
		}
		deps.Videos, err = media.NewVideoService(ctx, &cfg.Media)
		if err != nil {
			return nil, nil, fmt.Errorf("video service: %w", err)
		}
		deps.Music, err = media.NewMusicService(&cfg.Media)
		if err != nil {
			return nil, nil, fmt.Errorf("music service: %w", err)
		}
	} else {
		slog.Warn("Media API key not set, media endpoints disabled")
	}

	if authCfg := cfg.Server.Auth; authCfg.IsEnabled() {
		deps.Validator, err = auth.NewJWTValidator(
			authCfg.JWKSURL, authCfg.Issuer, authCfg.Audience, authCfg.RefreshInterval)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt validator: %w", err)
		}
		slog.Info("Authentication enabled", "issuer", authCfg.Issuer)
	} else {
		slog.Warn("Authentication disabled, all requests are anonymous")
	}

	return NewServer(cfg, deps), pool, nil
}

// buildHandler assembles the middleware chain around the router.
// Order, outermost first: metrics, logging, CORS, auth.
func (s *Server) buildHandler() http.Handler {
	var handler http.Handler = s.routes()

	if s.deps.Validator != nil {
		authCfg := s.cfg.Server.Auth
		handler = auth.Middleware(auth.MiddlewareConfig{
			Validator:     s.deps.Validator,
			ExcludedPaths: authCfg.ExcludedPaths,
			RequireAuth:   authCfg.IsRequired(),
		})(handler)
	}

	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = observability.HTTPMiddleware(s.deps.Metrics)(handler)

	return handler
}

// Start runs the server until the context is cancelled or the listener
// fails. A background sweeper evicts stale quota records and expired
// video operations while the server runs.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("HTTP server starting", "address", s.server.Addr)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.runSweeper(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.Shutdown(context.Background())
	})

	return g.Wait()
}

// runSweeper periodically evicts stale quota records and expired video
// operations so long-lived processes do not accumulate them.
func (s *Server) runSweeper(ctx context.Context) {
	interval := s.cfg.Quota.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.deps.Guard != nil {
				if n, err := s.deps.Guard.SweepStale(ctx); err != nil {
					slog.Warn("Quota sweep failed", "error", err)
				} else if n > 0 {
					slog.Debug("Evicted stale quota records", "count", n)
				}
			}
			if s.deps.Videos != nil {
				if n := s.deps.Videos.SweepExpired(); n > 0 {
					slog.Debug("Evicted expired video operations", "count", n)
				}
			}
		}
	}
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the assembled handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Address returns the listen address.
func (s *Server) Address() string {
	return s.server.Addr
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	cors := s.cfg.Server.CORS
	if cors == nil {
		// permissive default for development
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			for _, allowed := range cors.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(cors.AllowedMethods, ", "))
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(cors.AllowedHeaders, ", "))
		w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", cors.MaxAge))

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}
