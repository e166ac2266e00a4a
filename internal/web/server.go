// Package web serves the daemon status page and its JSON views.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/home-automaton/internal/logger"
	"github.com/sweeney/home-automaton/internal/status"
)

const readHeaderTimeout = 5 * time.Second

// Server serves status over HTTP. Handlers only read tracker snapshots.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	log        *zap.SugaredLogger
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{tracker: tracker, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/history.json", s.handleHistory)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.withLogger(mux),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withLogger attaches the server logger to every request context.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.ToContext(r.Context(), s.log)
		logger.Debugf(ctx, "%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, s.tracker.Snapshot()); err != nil {
		logger.ErrorKV(r.Context(), "render status page", "error", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

// historyJSON lists the thermostat history in slot order.
type historyJSON struct {
	LastEvent        string                `json:"last_event"`
	LastActivation   uint32                `json:"last_activation_ms"`
	LastDeactivation uint32                `json:"last_deactivation_ms"`
	Slots            []status.HistoryEntry `json:"slots"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	th := s.tracker.Snapshot().Thermostat

	body := historyJSON{
		LastEvent:        th.LastEvent,
		LastActivation:   th.LastActivation,
		LastDeactivation: th.LastDeactivation,
		Slots:            th.History,
	}
	if body.Slots == nil {
		body.Slots = []status.HistoryEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf(r.Context(), "encode history: %v", err)
	}
}
