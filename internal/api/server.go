package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/genai-gateway/internal/agents"
	"github.com/example/genai-gateway/internal/failure"
	"github.com/example/genai-gateway/internal/logging"
	"github.com/example/genai-gateway/internal/metrics"
	"github.com/example/genai-gateway/internal/models"
	"github.com/example/genai-gateway/internal/orchestrator"
	"github.com/example/genai-gateway/internal/providers/llm"
)

// Operation labels used in metrics.
const (
	opGenerateStream   = "generate_stream"
	opGenerateSubtasks = "generate_subtasks"
)

const maxBodyBytes = 1 << 20

type StreamRelay interface {
	Stream(ctx context.Context, req models.GenerationRequest) <-chan orchestrator.Event
}

type Server struct {
	relay   StreamRelay
	planner agents.Planner
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewServer wires the HTTP handlers. logger and m may be nil.
func NewServer(relay StreamRelay, planner agents.Planner, logger *slog.Logger, m *metrics.Collector) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{relay: relay, planner: planner, logger: logger, metrics: m}
}

// RegisterRoutes mounts the gateway endpoints on mux. metricsPath is skipped
// when empty.
func (s *Server) RegisterRoutes(mux *http.ServeMux, metricsPath string) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("POST /generate-stream", withRequestID(s.logger, http.HandlerFunc(s.handleGenerateStream)))
	mux.Handle("POST /generate-subtasks", withRequestID(s.logger, http.HandlerFunc(s.handleGenerateSubtasks)))
	if metricsPath != "" && s.metrics != nil {
		mux.Handle("GET "+metricsPath, s.metrics.Handler())
	}
}

func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logging.FromContext(r.Context(), s.logger)

	var req models.GenerationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	outcome := metrics.OutcomeOK
	for ev := range s.relay.Stream(r.Context(), req) {
		switch ev.Kind {
		case orchestrator.EventFragment:
			io.WriteString(w, ev.Text)
		case orchestrator.EventError:
			outcome = outcomeFor(ev.Err.Kind)
			io.WriteString(w, RenderStreamError(ev.Err))
		}
		// a failed flush means the caller is gone; the relay sees the
		// cancelled context and stops
		_ = rc.Flush()
	}
	if outcome == metrics.OutcomeOK && r.Context().Err() != nil {
		outcome = metrics.OutcomeCanceled
	}
	log.Info("stream finished", "outcome", outcome, "duration", time.Since(start))
	s.metrics.ObserveRequest(opGenerateStream, outcome, time.Since(start))
}

func (s *Server) handleGenerateSubtasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logging.FromContext(r.Context(), s.logger)

	var req models.SubtaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	list, err := s.planner.Plan(r.Context(), req)
	outcome := metrics.OutcomeOK
	var cerr *failure.ClassifiedError
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, list)
	case errors.Is(err, llm.ErrUnavailable):
		outcome = metrics.OutcomeUnavailable
		respondJSON(w, http.StatusServiceUnavailable, errorBody{
			Error: failure.Unavailable(s.planner.Model(req)).Message,
		})
	case errors.As(err, &cerr):
		outcome = outcomeFor(cerr.Kind)
		respondJSON(w, http.StatusInternalServerError, errorBody{
			Error:   cerr.Message,
			Kind:    string(cerr.Kind),
			Model:   cerr.Model,
			Details: cerr.Detail,
		})
	default:
		outcome = string(failure.KindUpstreamFailure)
		cerr = failure.Classify(err, failure.OpSubtasks, s.planner.Model(req))
		respondJSON(w, http.StatusInternalServerError, errorBody{
			Error: cerr.Message,
			Kind:  string(cerr.Kind),
			Model: cerr.Model,
		})
	}
	log.Info("subtasks finished", "outcome", outcome, "duration", time.Since(start))
	s.metrics.ObserveRequest(opGenerateSubtasks, outcome, time.Since(start))
}

// outcomeFor maps a failure kind to its metrics label. A missing credential
// is the Unavailable condition on both endpoints.
func outcomeFor(kind failure.Kind) string {
	if kind == failure.KindCredentialMissing {
		return metrics.OutcomeUnavailable
	}
	return string(kind)
}

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Model   string `json:"model,omitempty"`
	Details string `json:"details,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
