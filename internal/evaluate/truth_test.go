package evaluate

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tickerbench/tickerbench/internal/search"
	"github.com/tickerbench/tickerbench/models"
)

func evalConfig() models.EvalConfig {
	return models.EvalConfig{
		Tickers:           []string{"RR"},
		TargetDate:        "12/31/2025",
		TargetIncreasePct: 0.30,
		ResearchWindow:    models.DateWindow{Start: "06/01/2025", End: "09/30/2025"},
		VerifyWindow:      models.DateWindow{Start: "12/01/2025", End: "12/31/2025"},
		BaseQuery:         "{ticker} verify",
	}
}

func TestExtractMaxPercentage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"RR gained 33% in December", "33"},
		{"up 12.5% then another 8%", "12.5"},
		{"rose thirty percent on guidance", "30"},
		{"no percentages here", "0"},
		{"moves of 5%, 45.2% and 19%", "45.2"},
	}
	for _, tc := range cases {
		got := extractMaxPercentage(tc.text)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("extractMaxPercentage(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestSearchTruthConfirmsMove(t *testing.T) {
	provider := search.Fixed{
		"RR verify": {{Title: "RR share price jumped 33% in Dec 2025", Date: "12/20/2025"}},
	}

	truth, err := NewSearchTruth(provider, nil).Determine(context.Background(), "RR", evalConfig())
	if err != nil {
		t.Fatalf("Determine: %v", err)
	}
	if !truth.Determined || !truth.Increase {
		t.Fatalf("33%% should confirm the move: %+v", truth)
	}
	if !strings.Contains(truth.Rationale, "33.0%") {
		t.Fatalf("rationale should cite the move: %q", truth.Rationale)
	}
}

func TestSearchTruthRejectsSmallMove(t *testing.T) {
	provider := search.Fixed{
		"RR verify": {{Title: "RR edged up 4% this month", Date: "12/20/2025"}},
	}

	truth, err := NewSearchTruth(provider, nil).Determine(context.Background(), "RR", evalConfig())
	if err != nil {
		t.Fatalf("Determine: %v", err)
	}
	if !truth.Determined || truth.Increase {
		t.Fatalf("4%% should not clear a 30%% bar: %+v", truth)
	}
}

func TestSearchTruthIndeterminateWithoutEvidence(t *testing.T) {
	truth, err := NewSearchTruth(search.Fixed{}, nil).Determine(context.Background(), "RR", evalConfig())
	if err != nil {
		t.Fatalf("Determine: %v", err)
	}
	if truth.Determined {
		t.Fatalf("no verify-window evidence must stay indeterminate: %+v", truth)
	}
}

func TestSearchTruthIgnoresEvidenceBeforeVerifyWindow(t *testing.T) {
	// A 40% mention dated during the research window must not decide
	// December's ground truth.
	provider := search.Fixed{
		"RR verify": {{Title: "RR soared 40% this summer", Date: "07/01/2025"}},
	}

	truth, err := NewSearchTruth(provider, nil).Determine(context.Background(), "RR", evalConfig())
	if err != nil {
		t.Fatalf("Determine: %v", err)
	}
	if truth.Determined {
		t.Fatalf("pre-window evidence must not determine truth: %+v", truth)
	}
}

func TestVerifyQueryDefaults(t *testing.T) {
	cfg := evalConfig()
	cfg.BaseQuery = ""
	q := verifyQuery("RR", cfg)
	if !strings.Contains(q, "RR") || !strings.Contains(q, "December 2025") || !strings.Contains(q, "30%") {
		t.Fatalf("unexpected verify query: %q", q)
	}
}
