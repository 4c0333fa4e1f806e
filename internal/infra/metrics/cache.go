package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sessionCacheRequests) }

var sessionCacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "session_cache_requests_total",
		Help: "Conversation store lookups by result.",
	},
	[]string{"store", "result"}, // e.g., store="redis", result="hit"
)

func IncSessionCache(store, result string) {
	sessionCacheRequests.WithLabelValues(norm(store), norm(result)).Inc()
}
