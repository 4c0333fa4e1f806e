package model

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationClosed ConversationStatus = "closed"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one utterance in a conversation. Appended once, never mutated.
type Message struct {
	Role      string            `json:"role"` // "user" | "assistant"
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PendingAction is an action proposed to the user and awaiting an explicit
// yes/no answer. Prompt holds the exact question that was asked so an
// ambiguous reply can repeat it verbatim.
type PendingAction struct {
	Kind       ActionKind        `json:"kind"`
	Params     map[string]string `json:"params,omitempty"`
	Prompt     string            `json:"prompt"`
	ProposedAt time.Time         `json:"proposed_at"`
}

// ActionDraft accumulates schedule/reschedule parameters across turns.
// Missing lists the parameter names still to be collected; once empty the
// draft is promoted to a PendingAction.
type ActionDraft struct {
	Kind    ActionKind        `json:"kind"`
	Params  map[string]string `json:"params,omitempty"`
	Missing []string          `json:"missing,omitempty"`
}

// Complete reports whether no parameters remain to be collected.
func (d *ActionDraft) Complete() bool { return len(d.Missing) == 0 }

// Conversation is the aggregate for one user's live session. It is owned by
// the session store; a controller works on a transient copy during one turn
// and writes it back at turn end.
type Conversation struct {
	ID        string             `json:"conversation_id"`
	UserID    string             `json:"user_id"`
	Status    ConversationStatus `json:"status"`
	Messages  []Message          `json:"messages"`
	Pending   *PendingAction     `json:"pending_confirmation,omitempty"`
	Draft     *ActionDraft       `json:"draft,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewConversation mints an active conversation for userID. The id embeds the
// user id plus a ULID seeded from the creation instant, so ids are unique and
// sort by creation time.
func NewConversation(userID string, now time.Time) *Conversation {
	id := fmt.Sprintf("conv_%s_%s", userID, ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()))
	return &Conversation{
		ID:        id,
		UserID:    userID,
		Status:    ConversationActive,
		Messages:  make([]Message, 0, 8),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Conversation) AddMessage(role, content string, at time.Time) {
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: at,
	})
	c.UpdatedAt = at
}

// RecentMessages returns the last n messages, or all of them when n <= 0 or
// the history is shorter.
func (c *Conversation) RecentMessages(n int) []Message {
	if n <= 0 || len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

// SetPending installs the single pending confirmation, displacing any draft.
func (c *Conversation) SetPending(kind ActionKind, params map[string]string, prompt string, at time.Time) {
	c.Pending = &PendingAction{Kind: kind, Params: params, Prompt: prompt, ProposedAt: at}
	c.Draft = nil
	c.UpdatedAt = at
}

func (c *Conversation) ClearPending(at time.Time) {
	c.Pending = nil
	c.UpdatedAt = at
}

// SetDraft starts collecting parameters for kind, replacing any previous
// draft (a new action keyword supersedes a stale half-collected one).
func (c *Conversation) SetDraft(kind ActionKind, params map[string]string, missing []string, at time.Time) {
	c.Draft = &ActionDraft{Kind: kind, Params: params, Missing: missing}
	c.UpdatedAt = at
}

// MergeDraft folds newly extracted params into the draft and drops them from
// the missing list.
func (c *Conversation) MergeDraft(params map[string]string, at time.Time) {
	if c.Draft == nil {
		return
	}
	if c.Draft.Params == nil {
		c.Draft.Params = make(map[string]string, len(params))
	}
	for k, v := range params {
		c.Draft.Params[k] = v
	}
	remaining := c.Draft.Missing[:0]
	for _, name := range c.Draft.Missing {
		if _, ok := c.Draft.Params[name]; !ok {
			remaining = append(remaining, name)
		}
	}
	c.Draft.Missing = remaining
	c.UpdatedAt = at
}

func (c *Conversation) ClearDraft(at time.Time) {
	c.Draft = nil
	c.UpdatedAt = at
}
