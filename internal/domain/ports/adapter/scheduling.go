package adapter

import (
	"context"
	"time"

	"whatsapp-ai-assistant/internal/domain/model"
)

// SchedulingBackend is the hex port for the clinic's appointment service.
// Implementations must respect ctx deadlines; a timeout is reported as
// domain.ErrBackendUnavailable like any other transport failure.
type SchedulingBackend interface {
	// Schedule books a new appointment for the patient identified by phone.
	Schedule(ctx context.Context, phone string, at time.Time, reason string) (*model.Appointment, error)
	// Cancel voids the patient's upcoming appointment and returns it.
	Cancel(ctx context.Context, phone string) (*model.Appointment, error)
	// Reschedule moves the patient's upcoming appointment to at.
	Reschedule(ctx context.Context, phone string, at time.Time) (*model.Appointment, error)
	// Lookup returns the patient's upcoming appointment, or
	// domain.ErrAppointmentNotFound when none exists.
	Lookup(ctx context.Context, phone string) (*model.Appointment, error)
	// Health reports backend reachability.
	Health(ctx context.Context) error
}
