package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/talkauth/internal/metrics"
)

// WithMetrics instrumenta requests con contador, latencia e inflight. La
// ruta se etiqueta con el patrón de chi para acotar la cardinalidad.
func WithMetrics(m *metrics.HTTP) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.Start()
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				m.Done(strings.ToUpper(r.Method), routeLabel(r), strconv.Itoa(rec.statusCode()), time.Since(start).Seconds())
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
