// Package health contiene el controller de health check.
package health

import (
	"encoding/json"
	"net/http"

	svc "github.com/dropDatabas3/talkauth/internal/http/services/health"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Readyz maneja GET /readyz: 200 si todos los componentes responden, 503 si no.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	response := c.service.Check(ctx)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if response.Version != "" {
		w.Header().Set("X-Service-Version", response.Version)
	}

	statusCode := http.StatusOK
	if response.Status == "unavailable" {
		statusCode = http.StatusServiceUnavailable
	}
	logger.From(ctx).Debug("health check completed",
		logger.String("status", response.Status),
		logger.Int("components_count", len(response.Components)),
	)

	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// Healthz maneja GET /healthz: liveness, no toca dependencias.
func (c *HealthController) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
