package rpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type rpcMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newRPCMetrics(reg prometheus.Registerer, streams *rpcStreamLimiter) *rpcMetrics {
	if reg == nil {
		return nil
	}
	m := &rpcMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lor_rpc_requests_total",
			Help: "JSON-RPC requests by method and result code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lor_rpc_request_duration_seconds",
			Help:    "JSON-RPC dispatch latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	openStreams := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lor_rpc_open_streams",
		Help: "Open notification stream subscriptions.",
	}, func() float64 { return float64(streams.open()) })
	reg.MustRegister(m.requests, m.latency, openStreams)
	return m
}

func (m *rpcMetrics) observe(method string, rpcErr *rpcError, latency time.Duration) {
	if m == nil {
		return
	}
	if rpcErr != nil && rpcErr.Code == -32601 {
		method = "unknown"
	}
	m.requests.WithLabelValues(method, rpcCodeLabel(rpcErr)).Inc()
	m.latency.WithLabelValues(method).Observe(latency.Seconds())
}
