// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/adapter"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
)

// memConvRepo is a small in-memory session store used by unit tests.
type memConvRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Conversation
	findErr error // simulate store failures
	saveErr error
	saves   int
	deletes int
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{store: make(map[string]*model.Conversation)}
}

var _ repository.ConversationRepository = (*memConvRepo)(nil)

func (m *memConvRepo) Find(ctx context.Context, userID string) (*model.Conversation, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *memConvRepo) Save(ctx context.Context, conv *model.Conversation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[conv.UserID] = conv
	m.saves++
	return nil
}

func (m *memConvRepo) ExtendTTL(ctx context.Context, userID string) error { return nil }

func (m *memConvRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, userID)
	m.deletes++
	return nil
}

func (m *memConvRepo) Meta(ctx context.Context, userID string) (*repository.ConversationMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &repository.ConversationMeta{
		ConversationID: c.ID,
		LastActivity:   c.UpdatedAt,
		MessageCount:   len(c.Messages),
	}, nil
}

type fakeLimiter struct {
	allowed bool
	err     error
	calls   int
}

var _ repository.RateLimiter = (*fakeLimiter)(nil)

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

type fakeLocker struct {
	busy    bool
	locks   int
	unlocks int
}

var _ repository.Locker = (*fakeLocker)(nil)

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.busy {
		return "", domain.ErrConversationBusy
	}
	f.locks++
	return "tok-test", nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.unlocks++
	return nil
}

type fakeAI struct {
	reply string
	err   error
	calls int
	last  []adapter.Message
}

var _ adapter.TextGenerator = (*fakeAI)(nil)

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(m.Content) / 4
	}
	return n, nil
}

func (f *fakeAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	f.calls++
	f.last = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeBackend records calls; err (when set) is returned from every
// operation, mimicking an unreachable or failing clinic service.
type fakeBackend struct {
	scheduleCalls   int
	rescheduleCalls int
	cancelCalls     int
	lookupCalls     int
	lastAt          time.Time
	appt            *model.Appointment
	err             error
}

var _ adapter.SchedulingBackend = (*fakeBackend)(nil)

func (f *fakeBackend) Schedule(ctx context.Context, phone string, at time.Time, reason string) (*model.Appointment, error) {
	f.scheduleCalls++
	f.lastAt = at
	if f.err != nil {
		return nil, f.err
	}
	return f.apptOr(at), nil
}

func (f *fakeBackend) Reschedule(ctx context.Context, phone string, at time.Time) (*model.Appointment, error) {
	f.rescheduleCalls++
	f.lastAt = at
	if f.err != nil {
		return nil, f.err
	}
	return f.apptOr(at), nil
}

func (f *fakeBackend) Cancel(ctx context.Context, phone string) (*model.Appointment, error) {
	f.cancelCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.apptOr(time.Time{}), nil
}

func (f *fakeBackend) Lookup(ctx context.Context, phone string) (*model.Appointment, error) {
	f.lookupCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.apptOr(time.Time{}), nil
}

func (f *fakeBackend) Health(ctx context.Context) error { return f.err }

func (f *fakeBackend) apptOr(at time.Time) *model.Appointment {
	if f.appt != nil {
		cp := *f.appt
		return &cp
	}
	return &model.Appointment{ID: "appt-1", PatientID: "pat-1", Scheduled: at, Status: "programada"}
}

func (f *fakeBackend) totalCalls() int {
	return f.scheduleCalls + f.rescheduleCalls + f.cancelCalls + f.lookupCalls
}
