//go:build !integration

package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewConversation(t *testing.T) {
	now := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

	t.Run("should mint an active session with a sortable id", func(t *testing.T) {
		conv := NewConversation("5215550001", now)
		if !strings.HasPrefix(conv.ID, "conv_5215550001_") {
			t.Errorf("id = %q, want conv_<user>_<ulid>", conv.ID)
		}
		if conv.Status != ConversationActive {
			t.Errorf("status = %q, want active", conv.Status)
		}
		if len(conv.Messages) != 0 {
			t.Errorf("new session already has %d messages", len(conv.Messages))
		}
		if !conv.CreatedAt.Equal(now) || !conv.UpdatedAt.Equal(now) {
			t.Errorf("timestamps = (%v, %v), want %v", conv.CreatedAt, conv.UpdatedAt, now)
		}
	})

	t.Run("should mint distinct ids per call", func(t *testing.T) {
		a := NewConversation("u1", now)
		b := NewConversation("u1", now)
		if a.ID == b.ID {
			t.Errorf("two sessions share id %q", a.ID)
		}
	})
}

func TestConversationMessages(t *testing.T) {
	now := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	conv := NewConversation("u1", now)
	for i, content := range []string{"m0", "m1", "m2", "m3", "m4"} {
		conv.AddMessage(RoleUser, content, now.Add(time.Duration(i)*time.Second))
	}

	t.Run("should append in arrival order", func(t *testing.T) {
		if len(conv.Messages) != 5 || conv.Messages[0].Content != "m0" || conv.Messages[4].Content != "m4" {
			t.Errorf("messages out of order: %+v", conv.Messages)
		}
		if !conv.UpdatedAt.Equal(now.Add(4 * time.Second)) {
			t.Errorf("UpdatedAt not advanced: %v", conv.UpdatedAt)
		}
	})

	t.Run("should window the most recent messages", func(t *testing.T) {
		got := conv.RecentMessages(2)
		if len(got) != 2 || got[0].Content != "m3" || got[1].Content != "m4" {
			t.Errorf("RecentMessages(2) = %+v", got)
		}
		if got := conv.RecentMessages(0); len(got) != 5 {
			t.Errorf("RecentMessages(0) = %d messages, want all", len(got))
		}
		if got := conv.RecentMessages(50); len(got) != 5 {
			t.Errorf("RecentMessages(50) = %d messages, want all", len(got))
		}
	})
}

func TestPendingAndDraft(t *testing.T) {
	now := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

	t.Run("should displace the draft when a confirmation is proposed", func(t *testing.T) {
		conv := NewConversation("u1", now)
		conv.SetDraft(ActionSchedule, map[string]string{"date": "2026-03-05"}, []string{"time"}, now)
		conv.SetPending(ActionSchedule, map[string]string{"datetime": "2026-03-05T10:00:00Z"}, "¿confirmas?", now)

		if conv.Draft != nil {
			t.Error("draft survived the pending proposal")
		}
		if conv.Pending == nil || conv.Pending.Prompt != "¿confirmas?" {
			t.Errorf("pending = %+v", conv.Pending)
		}
		conv.ClearPending(now)
		if conv.Pending != nil {
			t.Error("pending survived ClearPending")
		}
	})

	t.Run("should fold merged params out of the missing list", func(t *testing.T) {
		conv := NewConversation("u1", now)
		conv.SetDraft(ActionReschedule, nil, []string{"date", "time"}, now)
		if conv.Draft.Complete() {
			t.Fatal("empty draft reported complete")
		}

		conv.MergeDraft(map[string]string{"date": "2026-03-05"}, now)
		if got := conv.Draft.Missing; len(got) != 1 || got[0] != "time" {
			t.Errorf("missing = %v, want [time]", got)
		}

		conv.MergeDraft(map[string]string{"time": "10:00"}, now)
		if !conv.Draft.Complete() {
			t.Errorf("draft incomplete after both params: %+v", conv.Draft)
		}
	})

	t.Run("should ignore merges without a draft", func(t *testing.T) {
		conv := NewConversation("u1", now)
		conv.MergeDraft(map[string]string{"date": "2026-03-05"}, now)
		if conv.Draft != nil {
			t.Errorf("merge invented a draft: %+v", conv.Draft)
		}
	})
}

func TestConversationWireFormat(t *testing.T) {
	now := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	conv := NewConversation("5215550001", now)
	conv.AddMessage(RoleUser, "quiero reprogramar", now)
	conv.SetPending(ActionReschedule, map[string]string{"datetime": "2026-03-05T10:00:00Z"}, "¿confirmas?", now)

	raw, err := json.Marshal(conv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Stored sessions are read by other tools; the key names are contract.
	for _, key := range []string{`"conversation_id"`, `"user_id"`, `"status"`, `"messages"`, `"pending_confirmation"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("wire JSON missing %s: %s", key, raw)
		}
	}

	var back Conversation
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != conv.ID || back.Pending == nil || back.Pending.Kind != ActionReschedule {
		t.Errorf("round trip lost state: %+v", back)
	}
	if back.Pending.Prompt != "¿confirmas?" {
		t.Errorf("prompt = %q", back.Pending.Prompt)
	}
}
