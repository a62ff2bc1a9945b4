package auth

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/talkauth/internal/metrics"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

// Engine corre la estrategia que eligió el caller según la credencial
// presentada y registra el resultado. No guarda estado por request.
type Engine struct {
	metrics *metrics.Auth
}

func NewEngine(m *metrics.Auth) *Engine {
	return &Engine{metrics: m}
}

// Authenticate corre s sobre r.
func (e *Engine) Authenticate(ctx context.Context, s Strategy, r *http.Request) (Result, error) {
	res, err := s.Authenticate(ctx, r)
	e.Observe(ctx, s.Name(), res, err)
	return res, err
}

// Observe registra el resultado de una autenticación hecha fuera de
// Authenticate (ej: el controller de login que ya parseó el body).
func (e *Engine) Observe(ctx context.Context, name string, res Result, err error) {
	log := logger.From(ctx).With(logger.Strategy(name))
	switch {
	case err != nil:
		e.metrics.Outcome(name, "error")
		log.Warn("authentication degraded", logger.Err(err))
	case res.Rejection != nil:
		e.metrics.Outcome(name, string(res.Rejection.Reason))
		log.Info("authentication rejected", logger.Reason(string(res.Rejection.Reason)))
	default:
		e.metrics.Outcome(name, "ok")
		if res.Identity != nil {
			log.Debug("authenticated", logger.UserID(res.Identity.ID))
		}
	}
}
