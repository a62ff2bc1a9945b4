// Package router arma las rutas HTTP del servicio sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/talkauth/internal/auth"
	authctrl "github.com/dropDatabas3/talkauth/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/talkauth/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/talkauth/internal/http/errors"
	mw "github.com/dropDatabas3/talkauth/internal/http/middlewares"
	"github.com/dropDatabas3/talkauth/internal/metrics"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Engine *auth.Engine
	Bearer auth.Strategy
	Auth   *authctrl.Controllers
	Health *healthctrl.HealthController

	HTTPMetrics    *metrics.HTTP
	MetricsPath    string
	MetricsHandler http.Handler // nil deshabilita /metrics
}

// New registra todas las rutas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithMetrics(deps.HTTPMetrics),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Health, sin auth
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, deps.MetricsPath, deps.MetricsHandler)
	}

	c := deps.Auth
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(mw.WithNoStore())

		// POST /api/v1/auth/local
		r.Post("/local", c.Login.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(deps.Engine, deps.Bearer))

			// GET /api/v1/auth
			r.Get("/", c.Me.Me)
			// DELETE /api/v1/auth
			r.Delete("/", c.Logout.Logout)
		})
	})

	return r
}
