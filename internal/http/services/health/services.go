// Package health contiene el service de health checks.
package health

import (
	"context"
	"sort"
	"time"

	dto "github.com/dropDatabas3/talkauth/internal/http/dto/health"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

// Check verifica un componente. Todos son críticos: el núcleo no puede
// autenticar sin el store compartido ni sin el de usuarios.
type Check func(ctx context.Context) error

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Checks  map[string]Check
	Version string
	Timeout time.Duration
}

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

type healthService struct {
	deps Deps
}

func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus, len(s.deps.Checks)),
		Version:    s.deps.Version,
		Timestamp:  time.Now().UTC(),
	}

	names := make([]string, 0, len(s.deps.Checks))
	for name := range s.deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		err := s.deps.Checks[name](cctx)
		cancel()
		if err != nil {
			resp.Components[name] = dto.HealthStatus{Status: "error", Message: err.Error()}
			resp.Status = "unavailable"
			log.Error("component unavailable", logger.String("component", name), logger.Err(err))
			continue
		}
		resp.Components[name] = dto.HealthStatus{Status: "ok"}
	}
	return resp
}
