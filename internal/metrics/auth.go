package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth agrupa las métricas del núcleo de autenticación. Un *Auth nil es
// válido: todos los métodos son no-op.
type Auth struct {
	outcomes      *prometheus.CounterVec
	revocations   prometheus.Counter
	challenges    *prometheus.CounterVec
	flags         *prometheus.CounterVec
	failedRecords prometheus.Counter
}

// NewAuth crea y registra las métricas en reg (o el default si es nil).
// Registrar dos veces no es error.
func NewAuth(reg prometheus.Registerer) (*Auth, error) {
	m := &Auth{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Autenticaciones por estrategia y resultado",
		}, []string{"strategy", "result"}), // result: ok|<reason>|error

		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_token_revocations_total",
			Help: "Tokens revocados (logout)",
		}),

		challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_challenge_verifications_total",
			Help: "Verificaciones de challenge por resultado",
		}, []string{"result"}), // result: passed|failed|error

		flags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_challenge_flag_changes_total",
			Help: "Cambios del flag de challenge por acción",
		}, []string{"action"}), // action: set|cleared

		failedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_failed_attempts_recorded_total",
			Help: "Intentos fallidos registrados en el contador",
		}),
	}

	for _, c := range []prometheus.Collector{m.outcomes, m.revocations, m.challenges, m.flags, m.failedRecords} {
		if err := Register(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register registra el collector ignorando duplicados.
func Register(reg prometheus.Registerer, c prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

func (m *Auth) Outcome(strategy, result string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(strategy, result).Inc()
}

func (m *Auth) Revoked() {
	if m == nil {
		return
	}
	m.revocations.Inc()
}

func (m *Auth) Challenge(result string) {
	if m == nil {
		return
	}
	m.challenges.WithLabelValues(result).Inc()
}

func (m *Auth) FlagSet() {
	if m == nil {
		return
	}
	m.flags.WithLabelValues("set").Inc()
}

func (m *Auth) FlagCleared() {
	if m == nil {
		return
	}
	m.flags.WithLabelValues("cleared").Inc()
}

func (m *Auth) FailedAttempt() {
	if m == nil {
		return
	}
	m.failedRecords.Inc()
}
