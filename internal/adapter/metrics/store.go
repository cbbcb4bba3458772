package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreMetrics tracks the circuit breaker in front of the Redis store.
type StoreMetrics struct {
	CircuitBreakerState        *prometheus.GaugeVec
	CircuitBreakerStateChanges *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"component"}),
		CircuitBreakerStateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "circuit_breaker_state_changes_total",
			Help:      "Total number of circuit breaker transitions, by target state.",
		}, []string{"component", "state"}),
	}

	reg.MustRegister(m.CircuitBreakerState, m.CircuitBreakerStateChanges)
	return m
}

// BreakerStateChanged records a transition to state, reported as level.
func (m *StoreMetrics) BreakerStateChanged(component, state string, level float64) {
	m.CircuitBreakerStateChanges.WithLabelValues(component, state).Inc()
	m.CircuitBreakerState.WithLabelValues(component).Set(level)
}
