package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/admitly/pkg/logger"
	"github.com/okian/admitly/pkg/metrics"
)

// Pinger reports whether backing storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	metrics http.Handler
	pinger  Pinger
}

// NewHealthHandler creates a new health handler. A nil pinger skips the
// storage check.
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		pinger:  pinger,
	}
}

// HandleHealth handles GET /healthz requests with the Prometheus exposition
// of the service registry, or 503 when storage is unreachable.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	const op = "api.healthz"
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			logger.Get().Warn(r.Context(), "health check failed", logger.Error(Wrap(op, err)))
			writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
			return
		}
	}
	h.metrics.ServeHTTP(w, r)
}
