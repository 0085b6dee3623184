package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/bharosa/internal/handler"
	"github.com/dukerupert/bharosa/internal/middleware"
)

// HealthHandler reports liveness and, when a check is set, store health.
type HealthHandler struct {
	store string
	check func(ctx context.Context) error
	now   func() time.Time
}

// NewHealthHandler creates a health handler. check may be nil.
func NewHealthHandler(store string, check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{store: store, check: check, now: time.Now}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"store":     h.store,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}

	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			middleware.GetLogger(r.Context()).Error("health check failed", "store", h.store, "error", err)
			body["status"] = "unavailable"
			handler.WriteJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}

	handler.WriteJSON(w, http.StatusOK, body)
}
