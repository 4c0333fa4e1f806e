package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(genLatencyMs)
}

var genLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ai_generation_latency_ms",
		Help:    "Text generation call latency distribution in milliseconds.",
		Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
	},
	[]string{"model", "success"},
)

func ObserveGeneration(model string, latencyMs int, success bool) {
	genLatencyMs.WithLabelValues(norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}
