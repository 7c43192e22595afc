package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tickerbench/tickerbench/config"
	"github.com/tickerbench/tickerbench/internal/display"
	"github.com/tickerbench/tickerbench/internal/evaluate"
	"github.com/tickerbench/tickerbench/internal/logger"
	"github.com/tickerbench/tickerbench/internal/messenger"
	"github.com/tickerbench/tickerbench/internal/storage"
	"github.com/tickerbench/tickerbench/models"
)

const (
	readyTimeout = 60 * time.Second
	readyPoll    = 500 * time.Millisecond
)

// Runner drives one benchmark run: wait for both agents, submit the task
// to the evaluator, print and persist the artifact. An unreachable agent
// is fatal here; everything per-ticker already degraded upstream.
type Runner struct {
	scenario *config.Scenario
	msgr     *messenger.Messenger
	store    *storage.Store
	out      io.Writer
}

// New builds a runner. store may be nil when persistence is not wanted.
func New(scenario *config.Scenario, msgr *messenger.Messenger, store *storage.Store, out io.Writer) *Runner {
	return &Runner{scenario: scenario, msgr: msgr, store: store, out: out}
}

// Run executes the scenario end to end and returns the artifact. The
// error reflects whether the run completed, never whether predictions
// were correct.
func (r *Runner) Run(ctx context.Context) (*models.ResultArtifact, error) {
	researchURL := r.scenario.Agents.Research.URL()
	evaluatorURL := r.scenario.Agents.Evaluator.URL()

	if err := r.awaitReady(ctx, researchURL, evaluatorURL); err != nil {
		return nil, err
	}

	for _, url := range []string{researchURL, evaluatorURL} {
		card, err := r.msgr.Card(ctx, url)
		if err != nil {
			return nil, err
		}
		logger.Log.Infof("resolved %s at %s", card.Name, url)
	}

	req := models.EvalRequest{
		Participants: map[string]string{evaluate.RoleResearch: researchURL},
		Config:       r.scenario.EvalConfig(),
	}

	artifact, err := r.msgr.Evaluate(ctx, evaluatorURL, req)
	if err != nil {
		return nil, fmt.Errorf("benchmark run failed: %w", err)
	}

	display.Render(r.out, artifact)

	if r.store != nil {
		if err := r.store.SaveArtifact(ctx, artifact); err != nil {
			logger.Log.Warnf("persist run %s: %v", artifact.RunID, err)
		}
	}

	return artifact, nil
}

// awaitReady polls the readiness endpoints until both agents answer or
// the deadline passes.
func (r *Runner) awaitReady(ctx context.Context, urls ...string) error {
	deadline, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	for _, url := range urls {
		for {
			if err := r.msgr.Healthy(deadline, url); err == nil {
				break
			}
			select {
			case <-deadline.Done():
				return fmt.Errorf("agent at %s not ready within %s", url, readyTimeout)
			case <-time.After(readyPoll):
			}
		}
	}
	return nil
}
