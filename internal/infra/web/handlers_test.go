//go:build !integration

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
	"whatsapp-ai-assistant/internal/usecase"
)

func okResult() *usecase.TurnResult {
	return &usecase.TurnResult{
		Reply:          "¡Hola! ¿En qué puedo ayudarte?",
		UserID:         "5215550001",
		ConversationID: "conv_5215550001_01ARZ3",
		Action:         model.ActionNone,
		Timestamp:      time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC),
	}
}

func postChat(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestChatHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		chat := &mockChatUC{result: okResult()}
		router := NewServer(chat, newTestLogger()).Router()

		rr := postChat(t, router, `{"user_id":"5215550001","messages":[{"role":"user","content":"hola"}]}`)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
		}
		var resp chatResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.Response != "¡Hola! ¿En qué puedo ayudarte?" || resp.UserID != "5215550001" {
			t.Errorf("unexpected envelope: %+v", resp)
		}
		if resp.ConversationID == "" || resp.Timestamp == "" {
			t.Errorf("envelope missing ids: %+v", resp)
		}
		// Conversational turns must serialize action as JSON null.
		if !strings.Contains(rr.Body.String(), `"action":null`) {
			t.Errorf("action not null: %s", rr.Body.String())
		}
		if chat.lastContent != "hola" {
			t.Errorf("usecase got content %q", chat.lastContent)
		}
	})

	t.Run("Action turn echoes action and params", func(t *testing.T) {
		res := okResult()
		res.Action = model.ActionReschedule
		res.Params = map[string]string{"datetime": "2026-03-05T10:00:00Z"}
		chat := &mockChatUC{result: res}
		router := NewServer(chat, newTestLogger()).Router()

		rr := postChat(t, router, `{"user_id":"5215550001","messages":[{"role":"user","content":"sí"}]}`)
		var resp chatResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.Action == nil || *resp.Action != "reschedule_appointment" {
			t.Errorf("action = %v, want reschedule_appointment", resp.Action)
		}
		if resp.Params["datetime"] != "2026-03-05T10:00:00Z" {
			t.Errorf("params = %v", resp.Params)
		}
	})

	t.Run("Latest user message wins", func(t *testing.T) {
		chat := &mockChatUC{result: okResult()}
		router := NewServer(chat, newTestLogger()).Router()

		body := `{"user_id":"u1","messages":[
			{"role":"user","content":"primero"},
			{"role":"assistant","content":"respuesta"},
			{"role":"user","content":"segundo"}]}`
		if rr := postChat(t, router, body); rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if chat.lastContent != "segundo" {
			t.Errorf("usecase got %q, want the newest user entry", chat.lastContent)
		}
	})

	t.Run("Invalid body", func(t *testing.T) {
		router := NewServer(&mockChatUC{result: okResult()}, newTestLogger()).Router()
		if rr := postChat(t, router, `{not json`); rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("Missing user_id", func(t *testing.T) {
		router := NewServer(&mockChatUC{result: okResult()}, newTestLogger()).Router()
		rr := postChat(t, router, `{"messages":[{"role":"user","content":"hola"}]}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("No user message", func(t *testing.T) {
		router := NewServer(&mockChatUC{result: okResult()}, newTestLogger()).Router()
		rr := postChat(t, router, `{"user_id":"u1","messages":[{"role":"assistant","content":"x"}]}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("Error mapping", func(t *testing.T) {
		cases := []struct {
			err       error
			wantCode  int
			wantError string
		}{
			{domain.ErrRateLimited, http.StatusTooManyRequests, "too many requests, please wait a moment"},
			{domain.ErrConversationBusy, http.StatusTooManyRequests, "previous message still processing"},
			{fmt.Errorf("%w: redis down", domain.ErrSessionUnavailable), http.StatusServiceUnavailable, "service temporarily unavailable"},
			{errors.New("boom"), http.StatusInternalServerError, "internal error"},
		}
		for _, tc := range cases {
			router := NewServer(&mockChatUC{processErr: tc.err}, newTestLogger()).Router()
			rr := postChat(t, router, `{"user_id":"u1","messages":[{"role":"user","content":"hola"}]}`)
			if rr.Code != tc.wantCode {
				t.Errorf("%v: status = %d, want %d", tc.err, rr.Code, tc.wantCode)
			}
			var resp map[string]string
			_ = json.Unmarshal(rr.Body.Bytes(), &resp)
			if resp["error"] != tc.wantError {
				t.Errorf("%v: error = %q, want %q", tc.err, resp["error"], tc.wantError)
			}
		}
	})
}

func TestHistoryHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		chat := &mockChatUC{history: []model.Message{
			{Role: model.RoleUser, Content: "hola"},
			{Role: model.RoleAssistant, Content: "¡Hola!"},
		}}
		router := NewServer(chat, newTestLogger()).Router()

		req := httptest.NewRequest("GET", "/chat/history/5215550001?limit=2", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var resp struct {
			UserID   string          `json:"user_id"`
			Messages []model.Message `json:"messages"`
			Count    int             `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.UserID != "5215550001" || resp.Count != 2 || len(resp.Messages) != 2 {
			t.Errorf("unexpected response: %+v", resp)
		}
		if chat.lastLimit != 2 {
			t.Errorf("limit passed down = %d, want 2", chat.lastLimit)
		}
	})

	t.Run("Missing session yields empty array", func(t *testing.T) {
		router := NewServer(&mockChatUC{}, newTestLogger()).Router()
		req := httptest.NewRequest("GET", "/chat/history/nobody", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"messages":[]`) {
			t.Errorf("messages not an empty array: %s", rr.Body.String())
		}
	})

	t.Run("Limit clamped", func(t *testing.T) {
		chat := &mockChatUC{}
		router := NewServer(chat, newTestLogger()).Router()
		req := httptest.NewRequest("GET", "/chat/history/u1?limit=5000", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if chat.lastLimit != maxHistoryLimit {
			t.Errorf("limit passed down = %d, want %d", chat.lastLimit, maxHistoryLimit)
		}
	})

	t.Run("Store failure", func(t *testing.T) {
		chat := &mockChatUC{historyErr: fmt.Errorf("%w: redis down", domain.ErrSessionUnavailable)}
		router := NewServer(chat, newTestLogger()).Router()
		req := httptest.NewRequest("GET", "/chat/history/u1", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rr.Code)
		}
	})
}

func TestSessionHandler(t *testing.T) {
	t.Run("Active session", func(t *testing.T) {
		chat := &mockChatUC{meta: &repository.ConversationMeta{
			ConversationID: "conv_5215550001_01ARZ3",
			LastActivity:   time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC),
			MessageCount:   6,
		}}
		router := NewServer(chat, newTestLogger()).Router()
		req := httptest.NewRequest("GET", "/chat/session/5215550001", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var resp sessionResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if !resp.Active || resp.MessageCount != 6 || resp.ConversationID != "conv_5215550001_01ARZ3" {
			t.Errorf("unexpected response: %+v", resp)
		}
		if resp.LastActivity != "2026-03-04T12:00:00Z" {
			t.Errorf("last_activity = %q", resp.LastActivity)
		}
	})

	t.Run("No session reports inactive", func(t *testing.T) {
		chat := &mockChatUC{metaErr: domain.ErrNotFound}
		router := NewServer(chat, newTestLogger()).Router()
		req := httptest.NewRequest("GET", "/chat/session/nobody", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"active":false`) {
			t.Errorf("not marked inactive: %s", rr.Body.String())
		}
	})

	t.Run("Store failure", func(t *testing.T) {
		chat := &mockChatUC{metaErr: fmt.Errorf("%w: redis down", domain.ErrSessionUnavailable)}
		router := NewServer(chat, newTestLogger()).Router()
		req := httptest.NewRequest("GET", "/chat/session/u1", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rr.Code)
		}
	})
}

func TestClearHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		chat := &mockChatUC{}
		router := NewServer(chat, newTestLogger()).Router()
		req := httptest.NewRequest("DELETE", "/chat/conversation/5215550001", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rr.Code)
		}
		if chat.clears != 1 || chat.lastUserID != "5215550001" {
			t.Errorf("clear not forwarded: %+v", chat)
		}
	})

	t.Run("Invalid user", func(t *testing.T) {
		chat := &mockChatUC{clearErr: domain.ErrInvalidArgument}
		router := NewServer(chat, newTestLogger()).Router()
		req := httptest.NewRequest("DELETE", "/chat/conversation/%20", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})
}

func TestHealthzAndTraceHeader(t *testing.T) {
	router := NewServer(&mockChatUC{}, newTestLogger()).Router()
	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("body = %s", rr.Body.String())
	}
	if rr.Header().Get("X-Trace-Id") == "" {
		t.Errorf("X-Trace-Id header missing")
	}
}

func TestPathForLog(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/chat/history/5215550001", "/chat/history/5215...01"},
		{"/chat/session/5215550001", "/chat/session/5215...01"},
		{"/chat/conversation/5215550001", "/chat/conversation/5215...01"},
		{"/chat", "/chat"},
		{"/healthz", "/healthz"},
		{"/chat/history/", "/chat/history/"},
	}
	for _, c := range cases {
		if got := pathForLog(c.in); got != c.want {
			t.Errorf("pathForLog(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
