// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/adapter"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
	"whatsapp-ai-assistant/internal/infra/logging"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// TurnResult is what one processed turn hands back to the transport layer.
// Action is ActionNone for purely conversational turns.
type TurnResult struct {
	Reply          string
	UserID         string
	ConversationID string
	Action         model.ActionKind
	Params         map[string]string
	Timestamp      time.Time
}

type ChatUseCase interface {
	// ProcessMessage runs one full turn for userID: rate gate, per-user
	// lock, load-or-create session, intent resolution, confirmation
	// protocol, action execution or text generation, persist.
	ProcessMessage(ctx context.Context, userID, content string) (*TurnResult, error)
	// History returns the stored messages for userID, oldest first. A
	// missing session yields an empty slice, not an error. limit > 0 caps
	// the result to the most recent entries.
	History(ctx context.Context, userID string, limit int) ([]model.Message, error)
	// SessionStatus reads the session's side record, leaving the
	// conversation blob untouched. domain.ErrNotFound means no live session.
	SessionStatus(ctx context.Context, userID string) (*repository.ConversationMeta, error)
	// Clear force-removes the stored session.
	Clear(ctx context.Context, userID string) error
}

// Options tune one chatUC instance. Zero values fall back to the defaults
// the clinic runs with.
type Options struct {
	Model             string
	ClinicName        string
	HistoryWindow     int
	PromptTokenBudget int
	RateLimit         int
	RateWindow        time.Duration
	LockTTL           time.Duration
}

func (o *Options) normalize() {
	if o.ClinicName == "" {
		o.ClinicName = "CAÑADA DEL CARMEN"
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 15
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 20
	}
	if o.RateWindow <= 0 {
		o.RateWindow = time.Minute
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 30 * time.Second
	}
}

type chatUC struct {
	conversations repository.ConversationRepository
	limiter       repository.RateLimiter
	locker        repository.Locker
	ai            adapter.TextGenerator
	backend       adapter.SchedulingBackend
	resolver      *IntentResolver
	opts          Options
	log           *zerolog.Logger

	nowFn func() time.Time
}

func NewChatUseCase(
	conversations repository.ConversationRepository,
	limiter repository.RateLimiter,
	locker repository.Locker,
	ai adapter.TextGenerator,
	backend adapter.SchedulingBackend,
	resolver *IntentResolver,
	opts Options,
	log *zerolog.Logger,
) *chatUC {
	opts.normalize()
	return &chatUC{
		conversations: conversations,
		limiter:       limiter,
		locker:        locker,
		ai:            ai,
		backend:       backend,
		resolver:      resolver,
		opts:          opts,
		log:           log,
		nowFn:         time.Now,
	}
}

func rateKey(userID string) string { return "rate_limit:" + userID }
func lockKey(userID string) string { return "turnlock:" + userID }

func (c *chatUC) ProcessMessage(ctx context.Context, userID, content string) (*TurnResult, error) {
	defer logging.TraceDuration(c.log, "ChatUC.ProcessMessage")()

	userID = strings.TrimSpace(userID)
	content = strings.TrimSpace(content)
	if userID == "" || content == "" {
		return nil, domain.ErrInvalidArgument
	}

	allowed, err := c.limiter.Allow(ctx, rateKey(userID), c.opts.RateLimit, c.opts.RateWindow)
	if err != nil {
		return nil, err
	}
	if !allowed {
		c.log.Warn().Str("user_id", logging.Redact(userID)).Msg("turn rejected: rate limit")
		return nil, domain.ErrRateLimited
	}

	// Serialize the read-modify-write cycle per user; save is
	// last-writer-wins, so two in-flight turns would lose messages.
	token, err := c.locker.TryLock(ctx, lockKey(userID), c.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := c.locker.Unlock(context.WithoutCancel(ctx), lockKey(userID), token); uerr != nil {
			c.log.Warn().Err(uerr).Str("user_id", logging.Redact(userID)).Msg("turn lock release failed")
		}
	}()

	now := c.nowFn()

	conv, err := c.conversations.Find(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		conv = model.NewConversation(userID, now)
	case err != nil:
		return nil, err
	case conv.Status != model.ConversationActive:
		conv = model.NewConversation(userID, now)
	}

	conv.AddMessage(model.RoleUser, content, now)

	intent := c.resolver.Resolve(conv, content, now)

	var (
		reply  string
		action = model.ActionNone
		params map[string]string
	)

	switch {
	case intent.Answer == model.ConfirmYes:
		reply, action, params = c.executePending(ctx, conv, now)
	case intent.Answer == model.ConfirmNo:
		conv.ClearPending(now)
		reply = msgKeepUnchanged
	case intent.Answer == model.ConfirmUnclear:
		// Repeat the stored question verbatim; pending stays as it was.
		reply = conv.Pending.Prompt
	case intent.Kind == model.ActionCancel:
		conv.SetPending(model.ActionCancel, nil, confirmPrompt, now)
		reply = confirmPrompt
		action = model.ActionCancel
	case intent.Kind == model.ActionSchedule || intent.Kind == model.ActionReschedule:
		reply = c.advanceDraft(conv, intent, now)
		action = intent.Kind
		if conv.Pending != nil {
			params = conv.Pending.Params
		} else if conv.Draft != nil {
			params = conv.Draft.Params
		}
	case intent.Kind == model.ActionLookup:
		reply, action, params = c.executeLookup(ctx, conv)
	case conv.Draft != nil:
		reply = c.continueDraft(conv, content, now)
		if conv.Draft != nil || conv.Pending != nil {
			action = draftKind(conv)
			params = draftParams(conv)
		}
	default:
		reply = c.converse(ctx, conv, content)
	}

	conv.AddMessage(model.RoleAssistant, reply, now)

	if err := c.conversations.Save(ctx, conv); err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("user_id", logging.Redact(userID)).
		Str("conversation_id", conv.ID).
		Str("action", string(action)).
		Bool("pending", conv.Pending != nil).
		Msg("turn processed")

	return &TurnResult{
		Reply:          reply,
		UserID:         userID,
		ConversationID: conv.ID,
		Action:         action,
		Params:         params,
		Timestamp:      now,
	}, nil
}

// executePending runs the confirmed action against the scheduling backend.
// Pending is cleared first in every outcome: a failed execution must not
// leave a dangling confirmation, the user re-initiates from scratch.
func (c *chatUC) executePending(ctx context.Context, conv *model.Conversation, now time.Time) (string, model.ActionKind, map[string]string) {
	p := *conv.Pending
	conv.ClearPending(now)

	var (
		appt *model.Appointment
		err  error
	)
	switch p.Kind {
	case model.ActionSchedule, model.ActionReschedule:
		at, perr := time.Parse(time.RFC3339, p.Params[paramDatetime])
		if perr != nil {
			c.log.Error().Err(perr).Str("user_id", logging.Redact(conv.UserID)).Msg("pending action carried unparseable datetime")
			return msgBackendApology, model.ActionNone, nil
		}
		if p.Kind == model.ActionSchedule {
			appt, err = c.backend.Schedule(ctx, conv.UserID, at, defaultVisitReason)
		} else {
			appt, err = c.backend.Reschedule(ctx, conv.UserID, at)
		}
		if err == nil && appt != nil && appt.Scheduled.IsZero() {
			appt.Scheduled = at
		}
	case model.ActionCancel:
		appt, err = c.backend.Cancel(ctx, conv.UserID)
	default:
		return msgBackendApology, model.ActionNone, nil
	}

	if err != nil {
		c.log.Warn().Err(err).Str("user_id", logging.Redact(conv.UserID)).Str("kind", string(p.Kind)).Msg("backend call failed")
		switch {
		case errors.Is(err, domain.ErrPatientNotFound):
			return msgPatientNotFound, model.ActionNone, nil
		case errors.Is(err, domain.ErrAppointmentNotFound):
			return msgNoAppointment, model.ActionNone, nil
		default:
			return msgBackendApology, model.ActionNone, nil
		}
	}

	switch p.Kind {
	case model.ActionSchedule:
		return fmt.Sprintf(msgScheduledFmt, formatDateES(appt.Scheduled), formatTimeES(appt.Scheduled)), p.Kind, p.Params
	case model.ActionReschedule:
		return fmt.Sprintf(msgRescheduledFmt, formatDateES(appt.Scheduled), formatTimeES(appt.Scheduled)), p.Kind, p.Params
	default:
		return msgCancelled, p.Kind, p.Params
	}
}

func (c *chatUC) executeLookup(ctx context.Context, conv *model.Conversation) (string, model.ActionKind, map[string]string) {
	appt, err := c.backend.Lookup(ctx, conv.UserID)
	switch {
	case err == nil:
		reply := fmt.Sprintf(msgNextApptFmt, formatDateES(appt.Scheduled), formatTimeES(appt.Scheduled))
		return reply, model.ActionLookup, map[string]string{paramDatetime: appt.Scheduled.Format(time.RFC3339)}
	case errors.Is(err, domain.ErrAppointmentNotFound):
		return msgNoAppointment, model.ActionLookup, nil
	case errors.Is(err, domain.ErrPatientNotFound):
		return msgPatientNotFound, model.ActionNone, nil
	default:
		c.log.Warn().Err(err).Str("user_id", logging.Redact(conv.UserID)).Msg("backend lookup failed")
		return msgBackendApology, model.ActionNone, nil
	}
}

// advanceDraft handles a schedule/reschedule keyword turn: merge freshly
// extracted params into a same-kind draft, or start over for a new kind.
func (c *chatUC) advanceDraft(conv *model.Conversation, intent model.ActionIntent, now time.Time) string {
	if conv.Draft != nil && conv.Draft.Kind == intent.Kind {
		conv.MergeDraft(intent.Params, now)
	} else {
		conv.SetDraft(intent.Kind, intent.Params, missingParams(intent.Params), now)
	}
	return c.progressDraft(conv, now)
}

// continueDraft handles a keyword-less turn while parameters are still
// being collected: a refusal abandons the draft, extracted params advance
// it, anything else re-asks the open question.
func (c *chatUC) continueDraft(conv *model.Conversation, content string, now time.Time) string {
	if c.resolver.IsNegative(content) {
		conv.ClearDraft(now)
		return msgDraftAbandoned
	}
	params := extractSchedule(normalizeText(content), now)
	if len(params) == 0 {
		return askFor(conv.Draft.Missing[0])
	}
	conv.MergeDraft(params, now)
	return c.progressDraft(conv, now)
}

// progressDraft either asks for the next missing field or promotes the
// complete draft to a pending confirmation. Validation happens here, at
// promotion: a rejected field is dropped back into the missing list.
func (c *chatUC) progressDraft(conv *model.Conversation, now time.Time) string {
	d := conv.Draft
	if !d.Complete() {
		return askFor(d.Missing[0])
	}

	at, err := combineDateTime(d.Params[paramDate], d.Params[paramTime], now.Location())
	if err != nil {
		conv.SetDraft(d.Kind, nil, []string{paramDate, paramTime}, now)
		return askFor(paramDate)
	}
	if field, msg, ok := validateAppointmentTime(now, at); !ok {
		delete(d.Params, field)
		d.Missing = append(d.Missing, field)
		conv.UpdatedAt = now
		return msg
	}

	params := map[string]string{
		paramDatetime: at.Format(time.RFC3339),
		paramDate:     d.Params[paramDate],
		paramTime:     d.Params[paramTime],
	}
	conv.SetPending(d.Kind, params, confirmPrompt, now)
	return confirmPrompt
}

func askFor(field string) string {
	if field == paramTime {
		return askTime
	}
	return askDate
}

func missingParams(params map[string]string) []string {
	missing := make([]string, 0, 2)
	if _, ok := params[paramDate]; !ok {
		missing = append(missing, paramDate)
	}
	if _, ok := params[paramTime]; !ok {
		missing = append(missing, paramTime)
	}
	return missing
}

func draftKind(conv *model.Conversation) model.ActionKind {
	if conv.Pending != nil {
		return conv.Pending.Kind
	}
	return conv.Draft.Kind
}

func draftParams(conv *model.Conversation) map[string]string {
	if conv.Pending != nil {
		return conv.Pending.Params
	}
	return conv.Draft.Params
}

// converse is the freeform path: recent history goes to the generator and
// the cleaned completion comes back. Generation failures degrade to canned
// replies; they never fail the turn.
func (c *chatUC) converse(ctx context.Context, conv *model.Conversation, content string) string {
	msgs := buildPrompt(systemPrompt(c.opts.ClinicName), conv.RecentMessages(c.opts.HistoryWindow))
	msgs = c.trimToBudget(ctx, msgs)

	raw, err := c.ai.Chat(ctx, c.opts.Model, msgs)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", logging.Redact(conv.UserID)).Msg("text generation failed, using fallback")
		return fallbackReply(normalizeText(content), c.opts.ClinicName)
	}
	if clean := cleanReply(raw); clean != "" {
		return clean
	}
	return fallbackReply(normalizeText(content), c.opts.ClinicName)
}

func (c *chatUC) History(ctx context.Context, userID string, limit int) ([]model.Message, error) {
	conv, err := c.conversations.Find(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	return conv.RecentMessages(limit), nil
}

func (c *chatUC) SessionStatus(ctx context.Context, userID string) (*repository.ConversationMeta, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return c.conversations.Meta(ctx, userID)
}

func (c *chatUC) Clear(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrInvalidArgument
	}
	return c.conversations.Delete(ctx, userID)
}
