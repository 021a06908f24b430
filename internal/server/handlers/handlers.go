// Package handlers provides the HTTP handlers of the collectionmap API.
package handlers

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/collectionmap/cmd/application"
	"github.com/agentstation/collectionmap/internal/server/cache"
	"github.com/agentstation/collectionmap/internal/server/sse"
	ws "github.com/agentstation/collectionmap/internal/server/websocket"
)

// Handlers holds what the endpoints share.
type Handlers struct {
	app            application.Application
	cache          *cache.Cache
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	maxUploadBytes int64
	startTime      time.Time
}

// New creates a Handlers instance. maxUploadBytes bounds the CSV part of
// an upload request.
func New(
	app application.Application,
	cache *cache.Cache,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	maxUploadBytes int64,
) *Handlers {
	return &Handlers{
		app:            app,
		cache:          cache,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		startTime:      time.Now(),
	}
}
