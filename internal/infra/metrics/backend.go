package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(backendCallLatencyMs, backendUp)
}

var (
	backendCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduling_backend_latency_ms",
			Help:    "Clinic backend HTTP call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"op", "success"}, // op e.g. "patient_by_phone"
	)

	backendUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduling_backend_up",
			Help: "1 when the last clinic backend health probe succeeded, 0 otherwise.",
		},
	)
)

func ObserveBackendCall(op string, latencyMs int, success bool) {
	backendCallLatencyMs.WithLabelValues(norm(op), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func SetBackendUp(up bool) {
	if up {
		backendUp.Set(1)
	} else {
		backendUp.Set(0)
	}
}
