package http_handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/logger"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/metrics"
)

// Pinger is satisfied by *sql.DB (via DBPinger) and *redis.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBPinger adapts PingContext to Pinger.
type DBPinger struct {
	DB interface {
		PingContext(ctx context.Context) error
	}
}

func (p DBPinger) Ping(ctx context.Context) error { return p.DB.PingContext(ctx) }

type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler takes the dependencies checked by Readyz, keyed by name.
// Nil pingers are skipped.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	clean := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			clean[name] = p
		}
	}
	return &HealthHandler{deps: clean}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ready"}
	status := http.StatusOK

	for name, p := range h.deps {
		err := p.Ping(r.Context())
		metrics.SetDependencyHealth(name, err == nil)
		if err != nil {
			logger.WithCtx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			body[name] = "unavailable"
			body["status"] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}

	writeStatus(w, status, body)
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
