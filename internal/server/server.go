// Package server provides the HTTP surface: health, the live signal as JSON
// and over WebSocket, a camera preview, and the REST resources.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/thumbstick/internal/capture"
	"github.com/ayusman/thumbstick/internal/log"
	"github.com/ayusman/thumbstick/internal/server/api"
	"github.com/ayusman/thumbstick/internal/signal"
	"github.com/ayusman/thumbstick/internal/store"
)

// DefaultTick is the signal broadcast interval.
const DefaultTick = 33 * time.Millisecond

// SignalProvider exposes the latest thumbstick signal.
type SignalProvider interface {
	Signal() signal.Signal
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Signal    SignalProvider
	Preview   *capture.Latest
	Tick      time.Duration
}

// Server is the HTTP handler for the application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	start   time.Time
	signals *SignalStream
	logger  *slog.Logger
}

// New creates a Server and registers the routes config allows.
func New(config Config) *Server {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: log.With("component", "server"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Signal != nil {
		s.signals = NewSignalStream(s.config.Signal, s.config.Tick)
		s.mux.HandleFunc("/api/signal", s.handleSignal)
		s.mux.Handle("/api/signal/ws", s.signals)
	}

	s.mux.Handle("/api/preview", NewPreviewHandler(s.config.Preview))

	if s.config.Store != nil {
		profiles := api.NewProfileHandler(s.config.Store)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)

		bindings := api.NewBindingHandler(s.config.Store)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)

		recordings := api.NewRecordingHandler(s.config.Store)
		s.mux.Handle("/api/recordings", recordings)
		s.mux.Handle("/api/recordings/", recordings)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// SignalStream returns the WebSocket broadcaster, or nil without a signal
// provider.
func (s *Server) SignalStream() *SignalStream {
	return s.signals
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(NewSignalMessage(s.config.Signal.Signal(), time.Now())); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Run serves on addr until ctx is cancelled, broadcasting the signal to
// WebSocket clients meanwhile.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.signals != nil {
		go s.signals.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
