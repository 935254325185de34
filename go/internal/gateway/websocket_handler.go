package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/jokenpo/go/internal/room"
	"github.com/rs/zerolog/log"
)

// StatsProvider reports registry statistics for /ws/stats.
type StatsProvider interface {
	Stats() room.Stats
}

// WebSocketHandler handles WebSocket upgrade requests for game connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	auth              Authenticator
	stats             StatsProvider
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, auth Authenticator, stats StatsProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		auth:              auth,
		stats:             stats,
	}
}

// HandleGameConnection authenticates the request and upgrades it.
func (h *WebSocketHandler) HandleGameConnection(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth.Authenticate(r)
	if err != nil {
		log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("rejected WebSocket connection")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Upgrade writes its own error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, identity); err != nil {
		log.Error().
			Err(err).
			Int64("user_id", identity.ID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections and rooms
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	body := h.connectionManager.GetConnectionStats()
	if h.stats != nil {
		body["rooms"] = h.stats.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleGameConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
