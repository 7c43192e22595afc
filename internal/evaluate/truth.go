package evaluate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tickerbench/tickerbench/internal/datecheck"
	"github.com/tickerbench/tickerbench/internal/search"
	"github.com/tickerbench/tickerbench/models"
)

// Truth is one ground-truth determination. Determined=false means the
// verify window gave nothing to decide with; the ticker is scored
// indeterminate instead of failing the run.
type Truth struct {
	Determined      bool
	Increase        bool
	Rationale       string
	EvidenceChecked int
}

// TruthSource determines whether a ticker actually cleared the target
// rise, using only verify-window information. It is pluggable so the
// scoring rule can be exercised against a frozen source.
type TruthSource interface {
	Determine(ctx context.Context, ticker string, cfg models.EvalConfig) (Truth, error)
}

// SearchTruth re-searches the verify window and reads the largest
// percentage move mentioned in the evidence. It never reuses the research
// agent's evidence: the whole point is an independent check.
type SearchTruth struct {
	provider search.Provider
	policy   datecheck.Policy
}

// NewSearchTruth builds the default truth source. A nil policy trusts the
// provider's reported dates.
func NewSearchTruth(provider search.Provider, policy datecheck.Policy) *SearchTruth {
	if policy == nil {
		policy = datecheck.TrustReported{}
	}
	return &SearchTruth{provider: provider, policy: policy}
}

func (s *SearchTruth) Determine(ctx context.Context, ticker string, cfg models.EvalConfig) (Truth, error) {
	query := verifyQuery(ticker, cfg)

	resp, err := s.provider.Search(ctx, search.Query{
		Text:             query,
		Window:           cfg.VerifyWindow,
		MaxResults:       cfg.MaxResults,
		MaxTokens:        cfg.MaxTokens,
		MaxTokensPerPage: cfg.MaxTokensPerPage,
		Country:          cfg.Country,
	})
	if err != nil {
		return Truth{}, err
	}
	if resp.Err != "" {
		return Truth{Rationale: "Verify-window search unavailable: " + resp.Err}, nil
	}

	results := s.policy.Filter(ctx, cfg.VerifyWindow, resp.Results)
	if len(results) == 0 {
		return Truth{Rationale: "No evidence found in the verify window."}, nil
	}

	var corpus strings.Builder
	for _, r := range results {
		corpus.WriteString(r.Title)
		corpus.WriteByte('\n')
		corpus.WriteString(r.Snippet)
		corpus.WriteByte('\n')
	}

	maxPct := extractMaxPercentage(corpus.String())
	threshold := decimal.NewFromFloat(cfg.TargetIncreasePct).Mul(decimal.NewFromInt(100))

	truth := Truth{Determined: true, EvidenceChecked: len(results)}
	if maxPct.GreaterThanOrEqual(threshold) {
		truth.Increase = true
		truth.Rationale = fmt.Sprintf("Found mention of a %s%% move.", maxPct.StringFixed(1))
	} else {
		truth.Rationale = fmt.Sprintf("Max move mentioned: %s%% (< %s%%).",
			maxPct.StringFixed(1), threshold.StringFixed(0))
	}
	return truth, nil
}

func verifyQuery(ticker string, cfg models.EvalConfig) string {
	if cfg.BaseQuery != "" {
		return strings.ReplaceAll(cfg.BaseQuery, "{ticker}", ticker)
	}
	period := ""
	if t, err := models.ParseDate(cfg.VerifyWindow.End); err == nil {
		period = " " + t.Format("January 2006")
	}
	pct := decimal.NewFromFloat(cfg.TargetIncreasePct).Mul(decimal.NewFromInt(100))
	return fmt.Sprintf("%s share price performance%s %s%% increase", ticker, period, pct.StringFixed(0))
}

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// extractMaxPercentage finds the largest percentage figure in the text.
// The spelled-out "thirty percent" shows up in headlines often enough to
// deserve its own check.
func extractMaxPercentage(text string) decimal.Decimal {
	maxPct := decimal.Zero
	for _, match := range percentPattern.FindAllStringSubmatch(text, -1) {
		pct, err := decimal.NewFromString(match[1])
		if err != nil {
			continue
		}
		if pct.GreaterThan(maxPct) {
			maxPct = pct
		}
	}
	if strings.Contains(strings.ToLower(text), "thirty percent") {
		thirty := decimal.NewFromInt(30)
		if thirty.GreaterThan(maxPct) {
			maxPct = thirty
		}
	}
	return maxPct
}

// windowTimes returns the verify window edges as times for sources that
// need real timestamps.
func windowTimes(w models.DateWindow) (time.Time, time.Time, error) {
	return w.Bounds()
}
