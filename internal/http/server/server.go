// Package server construye el handler y el http.Server del servicio.
package server

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/talkauth/internal/app"
	authctrl "github.com/dropDatabas3/talkauth/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/talkauth/internal/http/controllers/health"
	"github.com/dropDatabas3/talkauth/internal/http/router"
	healthsvc "github.com/dropDatabas3/talkauth/internal/http/services/health"
	"github.com/dropDatabas3/talkauth/internal/metrics"
)

// Version se setea con -ldflags en el build.
var Version = "dev"

// NewHandler arma controllers y router sobre el contenedor. Las métricas HTTP
// y las del pool se registran en reg; /metrics expone reg.
func NewHandler(c *app.Container, reg *prometheus.Registry) (http.Handler, error) {
	cfg := c.Config

	var (
		httpMetrics    *metrics.HTTP
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled && reg != nil {
		var err error
		if httpMetrics, err = metrics.NewHTTP(reg); err != nil {
			return nil, err
		}
		if c.PG != nil {
			if err := metrics.Register(reg, metrics.NewPoolCollector(c.PG.Pool)); err != nil {
				return nil, err
			}
		}
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	checks := make(map[string]healthsvc.Check)
	for name, fn := range c.Checks() {
		checks[name] = fn
	}
	health := healthctrl.NewHealthController(healthsvc.NewHealthService(healthsvc.Deps{
		Checks:  checks,
		Version: Version,
	}))

	return router.New(router.Deps{
		Engine: c.Engine,
		Bearer: c.Bearer,
		Auth: authctrl.NewControllers(authctrl.Deps{
			Engine:   c.Engine,
			Local:    c.Local,
			Delivery: c.Delivery,
		}),
		Health:         health,
		HTTPMetrics:    httpMetrics,
		MetricsPath:    cfg.Metrics.Path,
		MetricsHandler: metricsHandler,
	}), nil
}

// New construye el http.Server con los timeouts configurados. baseCtx se
// propaga a todos los requests.
func New(baseCtx context.Context, c *app.Container, handler http.Handler) *http.Server {
	cfg := c.Config
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return baseCtx },
	}
}
