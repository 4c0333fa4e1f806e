package web

import (
	"net/http"
	"time"

	"whatsapp-ai-assistant/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxHistoryLimit caps the ?limit parameter on the history endpoint.
const maxHistoryLimit = 100

// requestTimeout bounds one whole turn including backend and generation
// calls, which carry their own shorter timeouts.
const requestTimeout = 60 * time.Second

// Server exposes the assistant over HTTP for the WhatsApp bridge.
type Server struct {
	chat usecase.ChatUseCase
	log  *zerolog.Logger
}

func NewServer(chat usecase.ChatUseCase, logger *zerolog.Logger) *Server {
	return &Server{
		chat: chat,
		log:  logger,
	}
}

// Router builds the chi router with the middleware chain applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(Timeout(requestTimeout))

	r.Post("/chat", s.handleChat)
	r.Get("/chat/history/{user_id}", s.handleHistory)
	r.Get("/chat/session/{user_id}", s.handleSession)
	r.Delete("/chat/conversation/{user_id}", s.handleClear)
	r.Get("/healthz", s.handleHealthz)

	return r
}
