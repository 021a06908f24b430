package handlers

import (
	"net/http"
)

// HandleWebSocket handles GET {prefix}/updates/ws.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}
	client := h.wsHub.Serve(conn)
	h.logger.Debug().Str("client_id", client.ID()).Str("remote_addr", r.RemoteAddr).Msg("WebSocket client attached")
}

// HandleSSE handles GET {prefix}/updates/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
