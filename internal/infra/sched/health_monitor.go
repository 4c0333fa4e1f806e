package sched

import (
	"context"
	"time"

	"whatsapp-ai-assistant/internal/domain/ports/adapter"
	"whatsapp-ai-assistant/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// HealthMonitor periodically probes the clinic backend and keeps the
// reachability gauge current. Transitions are logged once, not on every
// tick.
type HealthMonitor struct {
	interval time.Duration
	timeout  time.Duration
	backend  adapter.SchedulingBackend
	log      *zerolog.Logger

	up bool
}

func NewHealthMonitor(interval time.Duration, backend adapter.SchedulingBackend, logger *zerolog.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	monLog := logger.With().Str("component", "HealthMonitor").Logger()
	return &HealthMonitor{
		interval: interval,
		timeout:  10 * time.Second,
		backend:  backend,
		log:      &monLog,
		up:       true,
	}
}

func (m *HealthMonitor) Run(ctx context.Context) error {
	m.log.Info().Dur("interval", m.interval).Msg("starting backend health monitor")
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("stopping backend health monitor")
			return ctx.Err()
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *HealthMonitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.backend.Health(probeCtx)
	cancel()

	up := err == nil
	metrics.SetBackendUp(up)

	if up != m.up {
		if up {
			m.log.Info().Msg("clinic backend reachable again")
		} else {
			m.log.Warn().Err(err).Msg("clinic backend unreachable")
		}
	}
	m.up = up
}
