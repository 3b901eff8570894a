// Command teammeshd serves the teammesh façade over HTTP: hierarchy
// updates, delegated chat turns and session inspection, multi-tenant by
// construction. The transport is deliberately a thin shell; everything of
// substance lives in the library packages.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hupe1980/teammesh"
	"github.com/hupe1980/teammesh/hierarchy"
	"github.com/hupe1980/teammesh/logging"
	"github.com/hupe1980/teammesh/store"
	"github.com/hupe1980/teammesh/transcript"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "teammeshd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// Not an error when absent; the environment may be set by the runtime.
	_ = godotenv.Load()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, false)

	mgrOpts := []func(o *teammesh.Options){
		func(o *teammesh.Options) {
			o.Logger = logger
			o.HistoryEnabled = cfg.HistoryEnabled
			o.MaxModelCalls = cfg.MaxModelCalls
		},
	}

	if cfg.DBPath != "" {
		docs, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer docs.Close()
		transcripts, err := transcript.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer transcripts.Close()
		mgrOpts = append(mgrOpts, func(o *teammesh.Options) {
			o.DocumentStore = docs
			o.TranscriptStore = transcripts
		})
	}

	mgr := teammesh.New(mgrOpts...)
	srv := &server{mgr: mgr, logger: logger, timeout: cfg.RequestTimeout}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("POST /agent/chat", srv.handleChat)
	mux.HandleFunc("PUT /agent/hierarchy", srv.handleHierarchy)
	mux.HandleFunc("GET /agent/instances/{tenant}", srv.handleInstances)
	mux.HandleFunc("GET /agent/sessions/{tenant}/{instance}", srv.handleSessions)
	mux.HandleFunc("GET /agent/sessions/{tenant}/{instance}/{session}", srv.handleTranscript)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

type server struct {
	mgr     *teammesh.Manager
	logger  logging.Logger
	timeout time.Duration
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type chatPayload struct {
	TenantID     string `json:"tenant_id"`
	InstanceID   string `json:"instance_id"`
	SessionID    string `json:"session_id"`
	Message      string `json:"message"`
	CustomerName string `json:"customer_name"`
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.mgr.Chat(ctx, teammesh.ChatRequest{
		TenantID:     payload.TenantID,
		InstanceID:   payload.InstanceID,
		SessionID:    payload.SessionID,
		Message:      payload.Message,
		CustomerName: payload.CustomerName,
	})
	if err != nil {
		s.logger.Error("chat turn failed",
			"tenant_id", payload.TenantID, "instance_id", payload.InstanceID, "error", err.Error())
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type hierarchyPayload struct {
	TenantID   string `json:"tenant_id"`
	InstanceID string `json:"instance_id"`
	hierarchy.RawUpdate
}

func (s *server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	var payload hierarchyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := s.mgr.UpdateHierarchy(r.Context(), payload.TenantID, payload.InstanceID, payload.RawUpdate)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "hierarchy configuration updated successfully",
		"updated_at": cfg.UpdatedAt,
	})
}

func (s *server) handleInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := s.mgr.ListInstances(r.Context(), r.PathValue("tenant"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": instances})
}

func (s *server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.mgr.ListSessions(r.Context(), r.PathValue("tenant"), r.PathValue("instance"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	tr, err := s.mgr.GetTranscript(r.Context(),
		r.PathValue("tenant"), r.PathValue("instance"), r.PathValue("session"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// statusFor maps domain errors onto HTTP statuses: malformed input is the
// client's fault, unknown sessions are 404, everything else is a backend
// failure of the whole operation.
func statusFor(err error) int {
	var vErr *hierarchy.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, transcript.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
