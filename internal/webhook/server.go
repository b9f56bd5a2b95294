package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HealthFunc reports whether the service can serve requests
type HealthFunc func(ctx context.Context) error

// Server serves Telegram webhook updates and the health endpoint
type Server struct {
	updates http.Handler
	health  HealthFunc
	log     *slog.Logger

	server *http.Server
}

// NewServer creates a new webhook server. updates may be nil in polling mode.
func NewServer(updates http.Handler, health HealthFunc, log *slog.Logger) *Server {
	return &Server{
		updates: updates,
		health:  health,
		log:     log,
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.updates != nil {
		mux.HandleFunc("/webhook", s.handleWebhook)
	}
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleHealth)
	return mux
}

// Start starts the server and blocks until ctx is done or it fails
func (s *Server) Start(ctx context.Context, port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("starting http server", "port", port, "webhook", s.updates != nil)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	return s.server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("UNAVAILABLE"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.updates.ServeHTTP(w, r)
}
