package evaluate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tickerbench/tickerbench/config"
	"github.com/tickerbench/tickerbench/internal/logger"
	"github.com/tickerbench/tickerbench/models"
)

// RoleResearch is the participant role the evaluator expects: the URL of
// the research agent under test.
const RoleResearch = "agent"

// Researcher reaches the research agent. The HTTP messenger implements
// it; tests swap in an in-process one.
type Researcher interface {
	Research(ctx context.Context, url string, req models.ResearchRequest) (*models.ResearchResponse, error)
}

// Agent is the green half of the benchmark. It forwards the workload to
// the research agent, independently re-checks every verdict against the
// verify window, and scores pass/fail/indeterminate. Stateless across
// runs.
type Agent struct {
	researcher Researcher
	truth      TruthSource
}

// New builds an evaluator over a researcher connection and a ground-truth
// source.
func New(researcher Researcher, truth TruthSource) *Agent {
	return &Agent{researcher: researcher, truth: truth}
}

// Handle runs one full evaluation. Research-agent unreachability is fatal
// for the run; everything per-ticker degrades instead.
func (a *Agent) Handle(ctx context.Context, req models.EvalRequest) (*models.ResultArtifact, error) {
	if err := req.Validate(RoleResearch); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	cfg := withDefaults(req.Config)

	runID := uuid.NewString()[:8]
	log := logger.Log.WithField("run_id", runID)
	log.Infof("evaluation start: tickers=%v verify=%s", cfg.Tickers, cfg.VerifyWindow)

	workload := models.ResearchRequest{
		Tickers:           cfg.Tickers,
		TargetDate:        cfg.TargetDate,
		TargetIncreasePct: cfg.TargetIncreasePct,
		ResearchWindow:    cfg.ResearchWindow,
		BaseQuery:         cfg.BaseQuery,
		MaxResults:        cfg.MaxResults,
		MaxTokens:         cfg.MaxTokens,
		MaxTokensPerPage:  cfg.MaxTokensPerPage,
		Country:           cfg.Country,
	}

	research, err := a.researcher.Research(ctx, req.Participants[RoleResearch], workload)
	if err != nil {
		return nil, fmt.Errorf("research agent: %w", err)
	}

	results := a.Score(ctx, research.Verdicts, cfg)
	summary := models.Summarize(results)

	tickers := make([]string, 0, len(results))
	for _, r := range results {
		tickers = append(tickers, r.Ticker)
	}
	tickerLine := strings.Join(tickers, ", ")
	if tickerLine == "" {
		tickerLine = "none"
	}

	artifact := &models.ResultArtifact{
		RunID: runID,
		SummaryText: []string{
			fmt.Sprintf("Invest benchmark (run %s)", runID),
			"Tickers: " + tickerLine,
			summary.String(),
		},
		Summary: summary,
		Results: results,
	}

	log.Infof("evaluation complete: %s", summary)
	return artifact, nil
}

// Score checks each verdict against independently determined ground
// truth. Output order matches input order; a ticker whose truth cannot be
// determined is marked indeterminate and leaves the pass-rate
// denominator.
func (a *Agent) Score(ctx context.Context, verdicts []models.Verdict, cfg models.EvalConfig) []models.ScoreResult {
	results := make([]models.ScoreResult, 0, len(verdicts))

	for _, verdict := range verdicts {
		if verdict.Ticker == "" {
			continue
		}

		truth, err := a.truth.Determine(ctx, verdict.Ticker, cfg)
		if err != nil {
			logger.Log.WithField("ticker", verdict.Ticker).Warnf("truth check failed: %v", err)
			truth = Truth{Rationale: fmt.Sprintf("Truth check failed: %v", err)}
		}

		result := models.ScoreResult{
			Ticker:          verdict.Ticker,
			AgentOutcome:    verdict.Outcome,
			AgentConfidence: verdict.Confidence,
			ActualIncrease:  truth.Increase,
			Rationale:       truth.Rationale,
			EvidenceChecked: truth.EvidenceChecked,
		}

		switch {
		case !truth.Determined:
			result.Status = models.StatusIndeterminate
		case verdict.Outcome.PredictsIncrease() == truth.Increase:
			result.Status = models.StatusPass
		default:
			result.Status = models.StatusFail
		}

		results = append(results, result)
	}

	return results
}

// withDefaults fills unset request fields from the stock scenario, so a
// bare {"tickers":["RR"]} request evaluates with sane windows. A non-nil
// empty ticker list is honored as-is: an empty run is valid and yields an
// empty artifact.
func withDefaults(cfg models.EvalConfig) models.EvalConfig {
	def := config.Default()

	if cfg.Tickers == nil {
		cfg.Tickers = def.Tickers
	}
	if cfg.TargetDate == "" {
		cfg.TargetDate = def.TargetDate
	}
	if cfg.TargetIncreasePct == 0 {
		cfg.TargetIncreasePct = def.TargetIncreasePct
	}
	if cfg.ResearchWindow == (models.DateWindow{}) {
		cfg.ResearchWindow = def.ResearchWindow
	}
	if cfg.VerifyWindow == (models.DateWindow{}) {
		cfg.VerifyWindow = def.VerifyWindow
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.MaxTokensPerPage == 0 {
		cfg.MaxTokensPerPage = def.MaxTokensPerPage
	}
	return cfg
}
