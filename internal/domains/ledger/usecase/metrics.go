package usecase

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	operations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lor_ledger_operations_total",
			Help: "Ledger client operations by operation and result kind.",
		}, []string{"operation", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations)
	}
	return m
}

func (m *Metrics) observe(operation string, err *Error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(err.Kind)
	}
	m.operations.WithLabelValues(operation, result).Inc()
}
