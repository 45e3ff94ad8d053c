// Package server exposes audit runs over HTTP.
//
// Routes:
//
//	POST /                      run one trigger (bare Trigger JSON or push envelope)
//	GET  /records/{id}/report   composite report of a stored record
//	GET  /healthz               liveness
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/queue"
	"github.com/nao1215/pageaudit/internal/store"
)

// maxBodyBytes bounds the size of a trigger request.
const maxBodyBytes = 1 << 20

// TriggerProcessor runs one trigger. *queue.Processor implements it.
type TriggerProcessor interface {
	Process(ctx context.Context, trigger queue.Trigger) (*model.CompositeReport, error)
}

// Reporter returns the composite report of a stored record.
type Reporter interface {
	Report(ctx context.Context, recordID string) (*model.CompositeReport, error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, recordID string) (*model.CompositeReport, error)

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, recordID string) (*model.CompositeReport, error) {
	return f(ctx, recordID)
}

// Server handles trigger and report requests.
type Server struct {
	processor TriggerProcessor
	reporter  Reporter
	logger    *slog.Logger
	router    chi.Router
}

// New creates a Server. A nil logger uses slog.Default().
func New(processor TriggerProcessor, reporter Reporter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		processor: processor,
		reporter:  reporter,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/", s.handleTrigger)
	r.Get("/records/{id}/report", s.handleReport)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read body: %w", err))
		return
	}

	trigger, err := decodeTrigger(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.processor.Process(r.Context(), trigger)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, model.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		s.logger.Error("run failed", "record_id", trigger.RecordID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.reporter.Report(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		s.logger.Error("report failed", "record_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

// pushEnvelope is the body a push subscription delivers.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// decodeTrigger accepts either a push envelope carrying a base64 encoded
// Trigger or a bare Trigger.
func decodeTrigger(body []byte) (queue.Trigger, error) {
	var trigger queue.Trigger

	var envelope pushEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return trigger, fmt.Errorf("%w: body is not JSON", model.ErrInvalidInput)
	}

	payload := body
	if envelope.Message.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			return trigger, fmt.Errorf("%w: message data is not base64", model.ErrInvalidInput)
		}
		payload = decoded
	}

	if err := json.Unmarshal(payload, &trigger); err != nil {
		return trigger, fmt.Errorf("%w: trigger is not JSON", model.ErrInvalidInput)
	}
	if err := trigger.Validate(); err != nil {
		return trigger, err
	}
	return trigger, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
