// File: internal/infra/adapters/scheduling/client.go
package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/adapter"
	"whatsapp-ai-assistant/internal/infra/metrics"
)

var _ adapter.SchedulingBackend = (*Client)(nil)

// Appointment states as the backend stores them.
const (
	stateScheduled = 1
	stateCancelled = 3
)

// Client implements adapter.SchedulingBackend against the clinic's
// follow-up ("seguimiento") REST service. Every response arrives wrapped
// in a {statusCode, data} envelope; patients are addressed by the phone
// number the message came from.
type Client struct {
	base   string
	client *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("scheduling base url empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

type patient struct {
	ID   int64  `json:"id_paciente"`
	Name string `json:"nombre"`
}

type cita struct {
	ID     int64  `json:"id_cita"`
	Fecha  string `json:"fecha_programada"`
	Motivo string `json:"motivo"`
	Estado string `json:"estado"`
}

func (c *Client) Schedule(ctx context.Context, phone string, at time.Time, reason string) (*model.Appointment, error) {
	p, err := c.patientByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if err := c.upsertAppointment(ctx, p.ID, at, reason, stateScheduled); err != nil {
		return nil, err
	}
	return &model.Appointment{
		PatientID: strconv.FormatInt(p.ID, 10),
		Scheduled: at,
		Reason:    reason,
		Status:    "programada",
	}, nil
}

func (c *Client) Reschedule(ctx context.Context, phone string, at time.Time) (*model.Appointment, error) {
	p, err := c.patientByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	cur, err := c.nextAppointment(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if err := c.upsertAppointment(ctx, p.ID, at, cur.Motivo, stateScheduled); err != nil {
		return nil, err
	}
	return &model.Appointment{
		ID:        strconv.FormatInt(cur.ID, 10),
		PatientID: strconv.FormatInt(p.ID, 10),
		Scheduled: at,
		Reason:    cur.Motivo,
		Status:    "programada",
	}, nil
}

func (c *Client) Cancel(ctx context.Context, phone string) (*model.Appointment, error) {
	p, err := c.patientByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	cur, err := c.nextAppointment(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	when, _ := parseBackendTime(cur.Fecha)
	if err := c.upsertAppointment(ctx, p.ID, when, cur.Motivo, stateCancelled); err != nil {
		return nil, err
	}
	return &model.Appointment{
		ID:        strconv.FormatInt(cur.ID, 10),
		PatientID: strconv.FormatInt(p.ID, 10),
		Scheduled: when,
		Reason:    cur.Motivo,
		Status:    "cancelada",
	}, nil
}

func (c *Client) Lookup(ctx context.Context, phone string) (*model.Appointment, error) {
	p, err := c.patientByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	cur, err := c.nextAppointment(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	when, err := parseBackendTime(cur.Fecha)
	if err != nil {
		return nil, fmt.Errorf("%w: bad fecha_programada %q", domain.ErrBackendUnavailable, cur.Fecha)
	}
	return &model.Appointment{
		ID:        strconv.FormatInt(cur.ID, 10),
		PatientID: strconv.FormatInt(p.ID, 10),
		Scheduled: when,
		Reason:    cur.Motivo,
		Status:    cur.Estado,
	}, nil
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: health http %d", domain.ErrBackendUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) patientByPhone(ctx context.Context, phone string) (*patient, error) {
	data, err := c.get(ctx, "patient_by_phone", "/api/paciente/telefono/"+phone)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, domain.ErrPatientNotFound
	}
	var p patient
	if err := json.Unmarshal(data, &p); err != nil || p.ID == 0 {
		return nil, domain.ErrPatientNotFound
	}
	return &p, nil
}

func (c *Client) nextAppointment(ctx context.Context, patientID int64) (*cita, error) {
	data, err := c.get(ctx, "next_appointment", fmt.Sprintf("/api/paciente/%d/proxima-cita", patientID))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, domain.ErrAppointmentNotFound
	}
	var ct cita
	if err := json.Unmarshal(data, &ct); err != nil || ct.Fecha == "" {
		return nil, domain.ErrAppointmentNotFound
	}
	return &ct, nil
}

func (c *Client) upsertAppointment(ctx context.Context, patientID int64, at time.Time, reason string, state int) error {
	payload := map[string]any{
		"id_paciente":      patientID,
		"fecha_programada": formatBackendTime(at),
		"motivo":           reason,
		"estado_id":        state,
	}
	_, err := c.do(ctx, "update_appointment", http.MethodPut, "/api/cita/update-assistant", payload)
	return err
}

func (c *Client) get(ctx context.Context, op, path string) (json.RawMessage, error) {
	return c.do(ctx, op, http.MethodGet, path, nil)
}

// do performs one backend call and unwraps the {statusCode, data}
// envelope. A 404 statusCode inside the envelope means "no record" and
// comes back as empty data, not as an error.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (json.RawMessage, error) {
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ObserveBackendCall(op, int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrBackendUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s http %d", domain.ErrBackendUnavailable, op, resp.StatusCode)
	}

	var out struct {
		StatusCode int             `json:"statusCode"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: decode envelope: %v", domain.ErrBackendUnavailable, op, err)
	}
	if out.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if out.StatusCode != 0 && out.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s backend status %d", domain.ErrBackendUnavailable, op, out.StatusCode)
	}
	return out.Data, nil
}

// The backend stores wall-clock time with a literal Z suffix; it is not a
// real UTC instant, so no zone conversion happens on either side.
func formatBackendTime(at time.Time) string {
	return at.Format("2006-01-02T15:04") + ":00.000Z"
}

func parseBackendTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
