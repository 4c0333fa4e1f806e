package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(turnLocksHeld) }

// Grants minus releases on this instance. A lease that expires
// server-side without an Unlock leaves the gauge high until the same
// user's next turn.
var turnLocksHeld = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "turn_locks_held",
		Help: "Per-user turn locks currently held by this instance.",
	},
)

func IncTurnLocks() { turnLocksHeld.Inc() }
func DecTurnLocks() { turnLocksHeld.Dec() }
