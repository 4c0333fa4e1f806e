package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	installOnce sync.Once
	pending     []prometheus.Collector
)

// register queues collectors from each file's init; the default registry
// is not touched until MustRegister runs.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister installs every queued collector exactly once, no matter
// how many listeners call it.
func MustRegister() {
	installOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}

// norm keeps label values predictable regardless of caller casing.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
