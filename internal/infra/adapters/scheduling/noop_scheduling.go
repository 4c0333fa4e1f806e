// File: internal/infra/adapters/scheduling/noop_scheduling.go
package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/adapter"
)

var _ adapter.SchedulingBackend = (*NoopBackend)(nil)

// NoopBackend is a simple in-memory backend to use in tests and local
// runs without the clinic service. Every phone number is a known patient.
type NoopBackend struct {
	mu    sync.Mutex
	seq   int64
	appts map[string]*model.Appointment // phone -> upcoming appointment
}

func NewNoopBackend() *NoopBackend {
	return &NoopBackend{
		appts: make(map[string]*model.Appointment),
	}
}

func (b *NoopBackend) next() string {
	b.seq++
	return fmt.Sprintf("noop-%d", b.seq)
}

func (b *NoopBackend) Schedule(ctx context.Context, phone string, at time.Time, reason string) (*model.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ap := &model.Appointment{
		ID:        b.next(),
		PatientID: phone,
		Scheduled: at,
		Reason:    reason,
		Status:    "programada",
	}
	b.appts[phone] = ap
	cp := *ap
	return &cp, nil
}

func (b *NoopBackend) Reschedule(ctx context.Context, phone string, at time.Time) (*model.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ap, ok := b.appts[phone]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	ap.Scheduled = at
	cp := *ap
	return &cp, nil
}

func (b *NoopBackend) Cancel(ctx context.Context, phone string) (*model.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ap, ok := b.appts[phone]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	delete(b.appts, phone)
	ap.Status = "cancelada"
	return ap, nil
}

func (b *NoopBackend) Lookup(ctx context.Context, phone string) (*model.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ap, ok := b.appts[phone]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	cp := *ap
	return &cp, nil
}

func (b *NoopBackend) Health(ctx context.Context) error { return nil }
