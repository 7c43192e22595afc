package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tickerbench/tickerbench/models"
)

func TestRenderIncludesEveryTicker(t *testing.T) {
	results := []models.ScoreResult{
		{Ticker: "RR", AgentOutcome: models.OutcomeIncrease, Status: models.StatusPass, Rationale: "33% move"},
		{Ticker: "ZZZ", AgentOutcome: models.OutcomeUnknown, Status: models.StatusIndeterminate, Rationale: "no evidence"},
	}
	artifact := &models.ResultArtifact{
		RunID:       "r1",
		SummaryText: []string{"Invest benchmark (run r1)"},
		Summary:     models.Summarize(results),
		Results:     results,
	}

	var buf bytes.Buffer
	Render(&buf, artifact)
	out := buf.String()

	// Failed/indeterminate tickers are shown, not suppressed.
	for _, want := range []string{"RR", "ZZZ", "PASS", "INDETERMINATE", "33% move"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmptyRun(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, &models.ResultArtifact{SummaryText: []string{"empty"}})
	if !strings.Contains(buf.String(), "no tickers evaluated") {
		t.Fatalf("empty run should be explicit:\n%s", buf.String())
	}
}
