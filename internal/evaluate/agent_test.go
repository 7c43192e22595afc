package evaluate

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/tickerbench/tickerbench/internal/search"
	"github.com/tickerbench/tickerbench/models"
)

type researcherFunc func(ctx context.Context, url string, req models.ResearchRequest) (*models.ResearchResponse, error)

func (f researcherFunc) Research(ctx context.Context, url string, req models.ResearchRequest) (*models.ResearchResponse, error) {
	return f(ctx, url, req)
}

func cannedResearcher(verdicts ...models.Verdict) researcherFunc {
	return func(_ context.Context, _ string, _ models.ResearchRequest) (*models.ResearchResponse, error) {
		return &models.ResearchResponse{RunID: "fixed", Verdicts: verdicts}, nil
	}
}

type fixedTruth map[string]Truth

func (f fixedTruth) Determine(_ context.Context, ticker string, _ models.EvalConfig) (Truth, error) {
	return f[ticker], nil
}

func evalRequest(cfg models.EvalConfig) models.EvalRequest {
	return models.EvalRequest{
		Participants: map[string]string{RoleResearch: "http://localhost:9119"},
		Config:       cfg,
	}
}

func TestHandleScoresSingleTicker(t *testing.T) {
	agent := New(
		cannedResearcher(models.Verdict{Ticker: "RR", Outcome: models.OutcomeIncrease, Confidence: 0.75}),
		fixedTruth{"RR": {Determined: true, Increase: true, Rationale: "Found mention of a 33.0% move.", EvidenceChecked: 1}},
	)

	artifact, err := agent.Handle(context.Background(), evalRequest(evalConfig()))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(artifact.Results) != 1 {
		t.Fatalf("expected one result, got %d", len(artifact.Results))
	}
	r := artifact.Results[0]
	if r.Ticker != "RR" || r.Status != models.StatusPass || !r.ActualIncrease {
		t.Fatalf("unexpected result: %+v", r)
	}
	if artifact.Summary.Passed != 1 || artifact.Summary.Scored != 1 {
		t.Fatalf("unexpected summary: %+v", artifact.Summary)
	}
}

func TestHandleRejectsMissingParticipant(t *testing.T) {
	agent := New(cannedResearcher(), fixedTruth{})
	req := models.EvalRequest{Participants: map[string]string{}, Config: evalConfig()}
	if _, err := agent.Handle(context.Background(), req); err == nil {
		t.Fatal("expected error for missing research agent participant")
	}
}

func TestHandlePropagatesResearcherFailure(t *testing.T) {
	agent := New(researcherFunc(func(_ context.Context, _ string, _ models.ResearchRequest) (*models.ResearchResponse, error) {
		return nil, fmt.Errorf("connection refused")
	}), fixedTruth{})

	// An unreachable research agent is an infrastructure failure: the
	// run as a whole fails.
	if _, err := agent.Handle(context.Background(), evalRequest(evalConfig())); err == nil {
		t.Fatal("expected fatal error when the research agent is unreachable")
	}
}

func TestHandleEmptyTickerList(t *testing.T) {
	agent := New(cannedResearcher(), fixedTruth{})
	cfg := evalConfig()
	cfg.Tickers = []string{}

	artifact, err := agent.Handle(context.Background(), evalRequest(cfg))
	if err != nil {
		t.Fatalf("empty run should not fail: %v", err)
	}
	if len(artifact.Results) != 0 {
		t.Fatalf("expected empty results: %+v", artifact.Results)
	}
	if artifact.Summary.Total != 0 || artifact.Summary.PassRate() != 0 {
		t.Fatalf("0-of-0 summary expected: %+v", artifact.Summary)
	}
}

func TestScorePassFailMatrix(t *testing.T) {
	cases := []struct {
		outcome models.Outcome
		actual  bool
		want    models.Status
	}{
		{models.OutcomeIncrease, true, models.StatusPass},
		{models.OutcomeIncrease, false, models.StatusFail},
		{models.OutcomeNoIncrease, false, models.StatusPass},
		{models.OutcomeNoIncrease, true, models.StatusFail},
		// unknown predicts no rise, so it passes exactly when nothing rose
		{models.OutcomeUnknown, false, models.StatusPass},
		{models.OutcomeUnknown, true, models.StatusFail},
	}

	for _, tc := range cases {
		agent := New(cannedResearcher(), fixedTruth{"RR": {Determined: true, Increase: tc.actual}})
		results := agent.Score(context.Background(),
			[]models.Verdict{{Ticker: "RR", Outcome: tc.outcome}}, evalConfig())
		if results[0].Status != tc.want {
			t.Fatalf("outcome=%s actual=%v: got %s, want %s",
				tc.outcome, tc.actual, results[0].Status, tc.want)
		}
	}
}

func TestScoreIndeterminateExcludedFromDenominator(t *testing.T) {
	truth := fixedTruth{
		"AAA": {Determined: true, Increase: true},
		"BBB": {}, // undeterminable
		"CCC": {Determined: true, Increase: false},
	}
	verdicts := []models.Verdict{
		{Ticker: "AAA", Outcome: models.OutcomeIncrease},
		{Ticker: "BBB", Outcome: models.OutcomeIncrease},
		{Ticker: "CCC", Outcome: models.OutcomeIncrease},
	}

	results := New(cannedResearcher(), truth).Score(context.Background(), verdicts, evalConfig())
	if len(results) != 3 {
		t.Fatalf("order/length must be preserved: %d", len(results))
	}
	if results[1].Status != models.StatusIndeterminate {
		t.Fatalf("BBB should be indeterminate: %+v", results[1])
	}

	s := models.Summarize(results)
	if s.Passed != 1 || s.Scored != 2 || s.Total != 3 {
		t.Fatalf("indeterminate must leave the denominator: %+v", s)
	}
}

func TestScoreIsIdempotentOverFrozenSource(t *testing.T) {
	provider := search.Fixed{
		"AAA verify": {{Title: "AAA up 35% in December", Date: "12/10/2025"}},
		"BBB verify": {{Title: "BBB flat, up 2%", Date: "12/11/2025"}},
	}
	truth := NewSearchTruth(provider, nil)
	verdicts := []models.Verdict{
		{Ticker: "AAA", Outcome: models.OutcomeIncrease},
		{Ticker: "BBB", Outcome: models.OutcomeIncrease},
	}
	cfg := evalConfig()
	cfg.BaseQuery = "{ticker} verify"

	agent := New(cannedResearcher(), truth)
	first := agent.Score(context.Background(), verdicts, cfg)
	second := agent.Score(context.Background(), verdicts, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-scoring a frozen source must be identical:\n%+v\n%+v", first, second)
	}
}

func TestWithDefaultsHonorsExplicitEmptyTickers(t *testing.T) {
	cfg := withDefaults(models.EvalConfig{Tickers: []string{}})
	if len(cfg.Tickers) != 0 {
		t.Fatalf("explicit empty list must stay empty: %v", cfg.Tickers)
	}

	cfg = withDefaults(models.EvalConfig{})
	if len(cfg.Tickers) == 0 {
		t.Fatal("nil tickers should fall back to the stock scenario")
	}
	if cfg.TargetIncreasePct != 0.30 || cfg.VerifyWindow.Start == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}
