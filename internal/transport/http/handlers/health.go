package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bookme/auth-service/internal/transport/http/response"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status["status"] = "degraded"
			status["db"] = "unreachable"
			response.WriteJSON(w, http.StatusServiceUnavailable, response.Envelope{Data: status})
			return
		}
		status["db"] = "ok"
	}

	response.OK(w, status)
}
