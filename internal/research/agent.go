package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tickerbench/tickerbench/internal/datecheck"
	"github.com/tickerbench/tickerbench/internal/logger"
	"github.com/tickerbench/tickerbench/internal/search"
	"github.com/tickerbench/tickerbench/models"
)

const (
	defaultMaxResults       = 12
	defaultMaxTokens        = 12000
	defaultMaxTokensPerPage = 2048

	maxEvidence = 3
)

// Agent is the purple half of the benchmark: given tickers and a research
// window it gathers windowed evidence and predicts whether each ticker
// clears the target rise. It holds no state between runs; every call is a
// pure function of the request plus the provider's answers.
type Agent struct {
	provider search.Provider
	policy   datecheck.Policy
}

// New builds a research agent over a search capability. A nil policy
// defaults to trusting the provider's reported dates.
func New(provider search.Provider, policy datecheck.Policy) *Agent {
	if policy == nil {
		policy = datecheck.TrustReported{}
	}
	return &Agent{provider: provider, policy: policy}
}

// Handle researches every requested ticker and returns one verdict per
// ticker in request order. A ticker with no usable evidence degrades to
// an unknown verdict; it never aborts the batch.
func (a *Agent) Handle(ctx context.Context, req models.ResearchRequest) (*models.ResearchResponse, error) {
	if _, _, err := req.ResearchWindow.Bounds(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	runID := uuid.NewString()[:8]
	log := logger.Log.WithField("run_id", runID)
	log.Infof("research start: tickers=%v window=%s target=%s pct=%.2f",
		req.Tickers, req.ResearchWindow, req.TargetDate, req.TargetIncreasePct)

	verdicts := make([]models.Verdict, 0, len(req.Tickers))
	for _, ticker := range req.Tickers {
		verdicts = append(verdicts, a.researchTicker(ctx, req, ticker))
	}

	log.Infof("research complete: verdicts=%d", len(verdicts))
	return &models.ResearchResponse{
		RunID:             runID,
		TargetDate:        req.TargetDate,
		TargetIncreasePct: req.TargetIncreasePct,
		Verdicts:          verdicts,
	}, nil
}

func (a *Agent) researchTicker(ctx context.Context, req models.ResearchRequest, ticker string) models.Verdict {
	query := buildQuery(req, ticker)

	resp, err := a.provider.Search(ctx, search.Query{
		Text:             query,
		Window:           req.ResearchWindow,
		MaxResults:       orDefault(req.MaxResults, defaultMaxResults),
		MaxTokens:        orDefault(req.MaxTokens, defaultMaxTokens),
		MaxTokensPerPage: orDefault(req.MaxTokensPerPage, defaultMaxTokensPerPage),
		Country:          req.Country,
	})
	if err != nil || resp == nil {
		logger.Log.WithField("ticker", ticker).Warnf("search failed: %v", err)
		return insufficientData(ticker)
	}

	results := a.policy.Filter(ctx, req.ResearchWindow, resp.Results)
	logger.Log.WithField("ticker", ticker).Debugf("query=%q results=%d kept=%d",
		query, len(resp.Results), len(results))

	if len(results) == 0 {
		return insufficientData(ticker)
	}

	outcome, confidence, rationale := inferVerdict(results)
	return models.Verdict{
		Ticker:     ticker,
		Outcome:    outcome,
		Confidence: confidence,
		Rationale:  rationale,
		Evidence:   summarizeEvidence(results),
	}
}

func buildQuery(req models.ResearchRequest, ticker string) string {
	if req.BaseQuery != "" {
		return strings.ReplaceAll(req.BaseQuery, "{ticker}", ticker)
	}
	year := ""
	if t, err := models.ParseDate(req.TargetDate); err == nil {
		year = fmt.Sprintf(" %d", t.Year())
	}
	return fmt.Sprintf("%s stock fundamentals outlook%s profitability backlog order intake", ticker, year)
}

// insufficientData is the degraded per-ticker verdict: predicted outcome
// false, evidence explicitly marked as missing.
func insufficientData(ticker string) models.Verdict {
	return models.Verdict{
		Ticker:     ticker,
		Outcome:    models.OutcomeUnknown,
		Confidence: 0.2,
		Rationale:  "Insufficient data: no search results available in the research window.",
	}
}

// inferVerdict turns the evidence's keyword balance into a call. Positive
// balance predicts the rise, negative predicts against it, a wash stays
// unknown.
func inferVerdict(results []search.Result) (models.Outcome, float64, string) {
	var blob strings.Builder
	for _, r := range results {
		blob.WriteString(r.Title)
		blob.WriteByte('\n')
		blob.WriteString(r.Snippet)
		blob.WriteByte('\n')
	}

	score := scoreSentiment(blob.String())
	switch {
	case score > 0:
		return models.OutcomeIncrease, min(0.9, 0.55+0.1*float64(score)),
			"Positive sentiment dominates fundamentals."
	case score < 0:
		return models.OutcomeNoIncrease, min(0.9, 0.55+0.1*float64(-score)),
			"Negative or cautious sentiment dominates."
	default:
		return models.OutcomeUnknown, 0.35,
			"Mixed or neutral fundamentals; unable to project the target gain."
	}
}

func summarizeEvidence(results []search.Result) []models.Evidence {
	if len(results) > maxEvidence {
		results = results[:maxEvidence]
	}
	evidence := make([]models.Evidence, 0, len(results))
	for _, r := range results {
		evidence = append(evidence, models.Evidence{
			Title:   r.Title,
			URL:     r.URL,
			Date:    r.Date,
			Snippet: r.Snippet,
		})
	}
	return evidence
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
