package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/agentstation/collectionmap/internal/server/response"
)

// readyTimeout bounds the store probes of the readiness check.
const readyTimeout = 2 * time.Second

// HandleHealth handles GET /health and GET {prefix}/health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "collectionmap",
		"version": h.app.Version(),
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HandleReady handles GET {prefix}/ready. It answers 503 until both stores
// respond.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if _, err := h.app.Catalog(); err != nil {
		h.logger.Warn().Err(err).Msg("Catalog store not ready")
		response.ServiceUnavailable(w, "Catalog store not available")
		return
	}
	uploadStore, err := h.app.Uploads()
	if err != nil {
		h.logger.Warn().Err(err).Msg("Upload store not ready")
		response.ServiceUnavailable(w, "Upload store not available")
		return
	}
	pending, err := uploadStore.Len(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Upload store probe failed")
		response.ServiceUnavailable(w, "Upload store not responding")
		return
	}

	response.OK(w, map[string]any{
		"status":            "ready",
		"pending_uploads":   pending,
		"cache":             h.cache.Stats(),
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	})
}
