package server

import (
	"net/http"

	"github.com/agentstation/collectionmap/internal/server/handlers"
	"github.com/agentstation/collectionmap/internal/server/middleware"
	"github.com/agentstation/collectionmap/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.app,
		s.cache,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
		s.config.MaxUploadBytes,
	)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	p := s.config.PathPrefix

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health (public)
	mux.HandleFunc("GET /health", h.HandleHealth)
	if p != "" {
		mux.HandleFunc("GET "+p+"/health", h.HandleHealth)
	}
	mux.HandleFunc("GET "+p+"/ready", h.HandleReady)

	// Upload workflow
	mux.HandleFunc("POST "+p+"/uploads", h.HandleCreateUpload)
	mux.HandleFunc("GET "+p+"/uploads/{id}", h.HandleGetUpload)
	mux.HandleFunc("POST "+p+"/uploads/{id}/map", h.HandleMapUpload)

	// Catalog reads
	mux.HandleFunc("GET "+p+"/institutions", h.HandleListInstitutions)
	mux.HandleFunc("GET "+p+"/institutions/{id}", h.HandleGetInstitution)
	mux.HandleFunc("GET "+p+"/collections", h.HandleListCollections)
	mux.HandleFunc("GET "+p+"/collections/{id}", h.HandleGetCollection)

	// Realtime
	mux.HandleFunc("GET "+p+"/updates/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+p+"/updates/stream", h.HandleSSE)

	if m := s.app.Metrics(); s.config.MetricsEnabled && m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	// Everything else under the prefix gets the JSON envelope rather than
	// the mux's plain-text 404.
	mux.HandleFunc(p+"/", func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found", "no route for "+r.Method+" "+r.URL.Path)
	})
}

// applyMiddleware wraps handler with the middleware chain. The first
// middleware listed runs first.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}

	if m := s.app.Metrics(); cfg.MetricsEnabled && m != nil {
		chain = append(chain, middleware.Metrics(m))
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		corsConfig.AllowedOrigins = cfg.CORSOrigins
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig(cfg.PathPrefix)
		authConfig.Enabled = true
		authConfig.HeaderName = cfg.AuthHeader
		authConfig.APIKey = cfg.APIKey
		chain = append(chain, middleware.Auth(authConfig, s.logger))
	}

	if cfg.RateLimit > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimit, cfg.TrustProxy, s.logger)
		chain = append(chain, middleware.RateLimit(rl))
	}

	return middleware.Chain(chain...)(handler)
}
