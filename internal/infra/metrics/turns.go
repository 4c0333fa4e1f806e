package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(chatTurnsTotal, chatTurnLatencyMs, rateLimitedTotal)
}

var (
	chatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Completed chat turns, labeled by the action the turn resolved to.",
		},
		[]string{"action"}, // e.g. "cancel_appointment", "none"
	)

	chatTurnLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_turn_latency_ms",
			Help:    "End-to-end chat turn latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 12000},
		},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_rate_limited_total",
			Help: "Messages rejected by the per-user rate limit.",
		},
	)
)

func ObserveTurn(action string, latencyMs int) {
	chatTurnsTotal.WithLabelValues(norm(action)).Inc()
	chatTurnLatencyMs.Observe(float64(latencyMs))
}

func IncRateLimited() {
	rateLimitedTotal.Inc()
}
