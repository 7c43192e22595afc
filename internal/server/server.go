package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tickerbench/tickerbench/config"
	"github.com/tickerbench/tickerbench/internal/evaluate"
	"github.com/tickerbench/tickerbench/internal/logger"
	"github.com/tickerbench/tickerbench/internal/research"
	"github.com/tickerbench/tickerbench/models"
)

// Version is advertised on agent cards.
const Version = "1.0.0"

// TaskFunc decodes and runs one task. Returning a badRequestError maps to
// a 400; anything else to a 500.
type TaskFunc func(ctx context.Context, body []byte) (interface{}, error)

type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

// Server exposes one agent over HTTP: /healthz for readiness, /card for
// discovery, /task for work.
type Server struct {
	card models.AgentCard
	task TaskFunc
	addr string
}

// NewResearchServer wraps the purple agent.
func NewResearchServer(agent *research.Agent, endpoint config.AgentEndpoint) *Server {
	return &Server{
		addr: endpoint.Addr,
		card: models.AgentCard{
			Name:        "invest_research",
			Description: "Researches tickers within a fixed date window and predicts target price moves.",
			URL:         endpoint.URL(),
			Version:     Version,
			Skills:      []string{"invest_research"},
		},
		task: func(ctx context.Context, body []byte) (interface{}, error) {
			var req models.ResearchRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, badRequestError{fmt.Errorf("invalid request: %w", err)}
			}
			resp, err := agent.Handle(ctx, req)
			if err != nil {
				return nil, badRequestError{err}
			}
			return resp, nil
		},
	}
}

// NewEvaluatorServer wraps the green agent.
func NewEvaluatorServer(agent *evaluate.Agent, endpoint config.AgentEndpoint) *Server {
	return &Server{
		addr: endpoint.Addr,
		card: models.AgentCard{
			Name:        "invest_evaluator",
			Description: "Double-checks research verdicts against verify-window evidence and scores them.",
			URL:         endpoint.URL(),
			Version:     Version,
			Skills:      []string{"invest_evaluation"},
		},
		task: func(ctx context.Context, body []byte) (interface{}, error) {
			var req models.EvalRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, badRequestError{fmt.Errorf("invalid request: %w", err)}
			}
			artifact, err := agent.Handle(ctx, req)
			if err != nil {
				if req.Validate(evaluate.RoleResearch) != nil {
					return nil, badRequestError{err}
				}
				return nil, err
			}
			return artifact, nil
		},
	}
}

// Handler builds the route table. Exposed separately so tests can mount
// it on httptest servers.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/card", s.handleCard).Methods(http.MethodGet)
	r.HandleFunc("/task", s.handleTask).Methods(http.MethodPost)
	return r
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infof("%s listening on %s", s.card.Name, s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.card)
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.TaskError{Error: "read body: " + err.Error()})
		return
	}

	result, err := s.task(r.Context(), body)
	if err != nil {
		logger.Log.Warnf("%s task failed: %v", s.card.Name, err)
		status := http.StatusInternalServerError
		var badReq badRequestError
		if errors.As(err, &badReq) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, models.TaskError{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Debugf("write response: %v", err)
	}
}
