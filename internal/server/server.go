// Package server provides the HTTP API of collectionmap: CSV uploads,
// mapping commits, catalog reads and a realtime feed of upload events.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/collectionmap/cmd/application"
	"github.com/agentstation/collectionmap/internal/matcher"
	"github.com/agentstation/collectionmap/internal/server/cache"
	"github.com/agentstation/collectionmap/internal/server/events"
	"github.com/agentstation/collectionmap/internal/server/events/adapters"
	"github.com/agentstation/collectionmap/internal/server/response"
	"github.com/agentstation/collectionmap/internal/server/sse"
	ws "github.com/agentstation/collectionmap/internal/server/websocket"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	started        atomic.Bool
	startTime      time.Time
}

// New creates a server for app. It registers hooks on the ingestion
// service, so it must be called once per service.
func New(app application.Application, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := app.Logger()

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		app:            app,
		cache:          cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       newUpgrader(cfg),
		logger:         logger,
		config:         cfg,
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		startTime:      time.Now(),
	}

	if err := s.connectHooks(); err != nil {
		cancel()
		return nil, err
	}
	logger.Debug().Str("prefix", cfg.PathPrefix).Msg("Server instance created")
	return s, nil
}

func newUpgrader(cfg Config) websocket.Upgrader {
	u := websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	if cfg.CORSEnabled {
		origins, err := matcher.NewSet(cfg.CORSOrigins)
		if err != nil {
			return u
		}
		u.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins.Match(origin)
		}
	}
	return u
}

// connectHooks turns ingestion events into broker events and clears the
// read cache after every commit.
func (s *Server) connectHooks() error {
	svc, err := s.app.Ingest()
	if err != nil {
		return err
	}

	svc.OnUploadCreated(func(e ingest.UploadCreatedEvent) {
		s.broker.Publish(events.UploadCreated, map[string]any{
			"uploadId": e.UploadID,
			"fileName": e.FileName,
			"headers":  e.Headers,
			"rowCount": e.RowCount,
			"warnings": e.Warnings,
		})
	})

	svc.OnUploadMapped(func(e ingest.UploadMappedEvent) {
		s.cache.Clear()
		s.broker.Publish(events.UploadMapped, map[string]any{
			"result":     e.Result,
			"durationMs": e.Duration.Milliseconds(),
		})
		s.logger.Debug().Str("upload_id", e.Result.UploadID).Msg("Read cache cleared after commit")
	})

	svc.OnUploadFailed(func(e ingest.UploadFailedEvent) {
		s.broker.Publish(events.UploadFailed, map[string]any{
			"uploadId": e.UploadID,
			"stage":    e.Stage,
			"code":     response.Code(e.Err),
		})
	})

	svc.OnUploadExpired(func(e ingest.UploadExpiredEvent) {
		s.broker.Publish(events.UploadExpired, map[string]any{
			"uploadId": e.UploadID,
			"fileName": e.FileName,
		})
	})

	return nil
}

// Start runs the broker, WebSocket hub and SSE broadcaster until Shutdown.
func (s *Server) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		stopped := make(chan struct{}, 3)
		run := func(fn func(context.Context)) {
			fn(s.ctx)
			stopped <- struct{}{}
		}
		go run(s.broker.Run)
		go run(s.wsHub.Run)
		go run(s.sseBroadcaster.Run)
		for range 3 {
			<-stopped
		}
		close(s.done)
	}()
	s.logger.Debug().Msg("Realtime services started")
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops the realtime services and waits for them until ctx is done.
// It returns immediately when Start was never called.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if !s.started.Load() {
		return nil
	}
	select {
	case <-s.done:
		s.logger.Info().Msg("Realtime services stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config returns the validated configuration.
func (s *Server) Config() Config {
	return s.config
}

// Cache returns the read cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns when the server was created.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
