package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Pinger is anything whose liveness the health probe should check.
// *sqlite.DB and *redisstore.SessionStore both satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers the liveness probe.
type HealthHandler struct {
	deps   map[string]Pinger
	logger *slog.Logger
}

// NewHealthHandler checks every named dependency on each probe.
func NewHealthHandler(deps map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{deps: deps, logger: logger}
}

type healthResponse struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

// HandleHealth reports {"status":"ok"}, or 503 naming what is down.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Error("health check failed", slog.String("dependency", name), slog.String("error", err.Error()))
			if resp.Failed == nil {
				resp.Failed = make(map[string]string)
			}
			resp.Failed[name] = "unavailable"
		}
	}

	if resp.Failed != nil {
		resp.Status = "unavailable"
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)
}
