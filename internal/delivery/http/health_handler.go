package http

import (
	"context"
	"net/http"

	"dmbox/infrastructure/ws"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
	hub   ws.IHub
}

func NewHealthHandler(store Pinger, hub ws.IHub) *HealthHandler {
	return &HealthHandler{
		store: store,
		hub:   hub,
	}
}

// Method Get /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"alertConnections": h.hub.ConnectedCount(),
	})
}
