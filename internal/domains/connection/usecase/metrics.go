package usecase

import (
	"lor-chain/go-backend/internal/domains/connection/model"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	attempts *prometheus.CounterVec
	phase    *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lor_connection_attempts_total",
			Help: "Finished connection attempts by result.",
		}, []string{"result"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lor_connection_phase",
			Help: "Current connection phase (1 for the active phase).",
		}, []string{"phase"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.phase)
	}
	return m
}

func (m *Metrics) attemptFinished(result string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result).Inc()
}

func (m *Metrics) setPhase(current model.Phase) {
	if m == nil {
		return
	}
	for _, phase := range model.Phases {
		value := 0.0
		if phase == current {
			value = 1
		}
		m.phase.WithLabelValues(string(phase)).Set(value)
	}
}
