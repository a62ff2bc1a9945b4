package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP agrupa las métricas de requests. Un *HTTP nil es válido.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

func NewHTTP(reg prometheus.Registerer) (*HTTP, error) {
	m := &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.inflight} {
		if err := Register(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *HTTP) Start() {
	if m != nil {
		m.inflight.Inc()
	}
}

// Done cierra un request iniciado con Start.
func (m *HTTP) Done(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.duration.WithLabelValues(method, route).Observe(seconds)
	m.requests.WithLabelValues(method, route, status).Inc()
}
