package http

import (
	"context"
	"fmt"
	"net/http"

	"whatsapp-ai-assistant/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the ops listener: Prometheus metrics and a liveness probe,
// kept off the public chat port.
type Server struct {
	port   int
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(port int, logger *zerolog.Logger) *Server {
	return &Server{
		port: port,
		log:  logger,
	}
}

func (s *Server) Start() error {
	metrics.MustRegister()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	s.log.Info().Int("port", s.port).Msg("ops server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
