package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo, startTime)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "A constant metric with labels for version and commit hash.",
		},
		[]string{"version", "commit"},
	)

	startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_start_time_unix",
			Help: "Unix timestamp of when the assistant process started.",
		},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
	startTime.Set(float64(time.Now().Unix()))
}
