package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/infra/logging"
	"whatsapp-ai-assistant/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
)

type incomingMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	UserID   string            `json:"user_id"`
	Messages []incomingMessage `json:"messages"`
}

// chatResponse is the envelope every turn returns. Action and Params are
// null for purely conversational turns.
type chatResponse struct {
	Response       string            `json:"response"`
	UserID         string            `json:"user_id"`
	ConversationID string            `json:"conversation_id"`
	Action         *string           `json:"action"`
	Params         map[string]string `json:"params"`
	Timestamp      string            `json:"timestamp"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	content := lastUserContent(req.Messages)
	if content == "" {
		respondError(w, http.StatusBadRequest, "no user message in request")
		return
	}

	ctx = logging.WithUserID(ctx, logging.Redact(userID))

	start := time.Now()
	res, err := s.chat.ProcessMessage(ctx, userID, content)
	if err != nil {
		s.respondTurnError(ctx, w, err)
		return
	}
	metrics.ObserveTurn(string(res.Action), int(time.Since(start).Milliseconds()))

	var action *string
	if res.Action != model.ActionNone {
		a := string(res.Action)
		action = &a
	}
	respondJSON(w, http.StatusOK, chatResponse{
		Response:       res.Reply,
		UserID:         res.UserID,
		ConversationID: res.ConversationID,
		Action:         action,
		Params:         res.Params,
		Timestamp:      res.Timestamp.Format(time.RFC3339),
	})
}

// lastUserContent picks the newest user-role entry; earlier entries are
// advisory context only, the session store holds the authoritative history.
func lastUserContent(msgs []incomingMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" || msgs[i].Role == "" {
			return strings.TrimSpace(msgs[i].Content)
		}
	}
	return ""
}

func (s *Server) respondTurnError(ctx context.Context, w http.ResponseWriter, err error) {
	l := logging.With(ctx, s.log)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "empty message")
	case errors.Is(err, domain.ErrRateLimited):
		metrics.IncRateLimited()
		respondError(w, http.StatusTooManyRequests, "too many requests, please wait a moment")
	case errors.Is(err, domain.ErrConversationBusy):
		respondError(w, http.StatusTooManyRequests, "previous message still processing")
	case errors.Is(err, domain.ErrSessionUnavailable):
		l.Error().Err(err).Msg("session store unavailable")
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		l.Error().Err(err).Msg("turn failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	msgs, err := s.chat.History(r.Context(), userID, limit)
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("user_id", logging.Redact(userID)).Msg("history fetch failed")
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}

	respondJSON(w, http.StatusOK, struct {
		UserID   string          `json:"user_id"`
		Messages []model.Message `json:"messages"`
		Count    int             `json:"count"`
	}{
		UserID:   userID,
		Messages: msgs,
		Count:    len(msgs),
	})
}

// sessionResponse is the monitoring view of one user's session, served
// from the side record without deserializing the conversation blob.
type sessionResponse struct {
	UserID         string `json:"user_id"`
	Active         bool   `json:"active"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageCount   int    `json:"message_count,omitempty"`
	LastActivity   string `json:"last_activity,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	meta, err := s.chat.SessionStatus(r.Context(), userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusOK, sessionResponse{UserID: userID})
		return
	case err != nil:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("user_id", logging.Redact(userID)).Msg("session status fetch failed")
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		UserID:         userID,
		Active:         true,
		ConversationID: meta.ConversationID,
		MessageCount:   meta.MessageCount,
		LastActivity:   meta.LastActivity.Format(time.RFC3339),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.chat.Clear(r.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			respondError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("user_id", logging.Redact(userID)).Msg("conversation clear failed")
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
