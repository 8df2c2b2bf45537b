package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/retrykit/internal/infra/httpretry"
	"github.com/vietddude/retrykit/internal/probe"
	"github.com/vietddude/retrykit/internal/recovery"
)

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	tracker *probe.Tracker
	journal *recovery.Journal
	client  *httpretry.Client
	server  *http.Server

	storeBackend string
	storeCheck   func(ctx context.Context) error
}

// NewServer creates a new health server. client may be nil.
func NewServer(tracker *probe.Tracker, journal *recovery.Journal, client *httpretry.Client, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		tracker: tracker,
		journal: journal,
		client:  client,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.HandleFunc("/errors", s.handleErrors)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// SetStoreCheck adds the journal backend ping to the detailed report.
func (s *Server) SetStoreCheck(backend string, check func(ctx context.Context) error) {
	s.storeBackend = backend
	s.storeCheck = check
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. It returns nil after Stop.
func (s *Server) Start() error {
	slog.Info("Health server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.tracker.Overall()

	code := http.StatusOK
	if status == probe.StatusCritical {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": string(status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := Report{
		Status:  s.tracker.Overall(),
		Targets: s.tracker.Snapshot(),
	}
	if s.client != nil {
		report.Hosts = s.client.Stats()
	}

	if entries, err := s.journal.Entries(r.Context()); err == nil {
		summary := &JournalSummary{Entries: len(entries)}
		for _, e := range entries {
			if e.IsCritical() {
				summary.Critical++
			}
		}
		report.Journal = summary
	} else {
		slog.Warn("Failed to read journal", "error", err)
	}

	if s.storeCheck != nil {
		store := &StoreStatus{Backend: s.storeBackend, OK: true}
		if err := s.storeCheck(r.Context()); err != nil {
			store.OK = false
			store.Error = err.Error()
		}
		report.Store = store
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		exported, err := s.journal.Export(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		userID := r.URL.Query().Get("user")
		criticalOnly := r.URL.Query().Get("critical") == "true"
		entries := make([]recovery.ExportedEntry, 0, len(exported))
		for i := range exported {
			e := &exported[i]
			if userID != "" && e.Context.UserID != userID {
				continue
			}
			if criticalOnly && !e.IsCritical() {
				continue
			}
			entries = append(entries, *e)
		}
		writeJSON(w, http.StatusOK, entries)

	case http.MethodDelete:
		if err := s.journal.Clear(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, DELETE")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
