package evaluate

import (
	"context"
	"fmt"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"github.com/tickerbench/tickerbench/models"
)

// QuoteTruth determines ground truth from market chart data instead of
// search evidence: the actual close-to-close move across the verify
// window is measured against the target rise. Useful when the scenario
// wants prices rather than press coverage as its arbiter.
type QuoteTruth struct {
	retries int
}

// NewQuoteTruth builds the market-data truth source.
func NewQuoteTruth() *QuoteTruth {
	return &QuoteTruth{retries: 2}
}

func (q *QuoteTruth) Determine(ctx context.Context, ticker string, cfg models.EvalConfig) (Truth, error) {
	start, end, err := windowTimes(cfg.VerifyWindow)
	if err != nil {
		return Truth{}, fmt.Errorf("verify window: %w", err)
	}

	var bars []chartBar
	for attempt := 0; attempt <= q.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Truth{}, err
		}
		bars, err = fetchBars(ticker, cfg.VerifyWindow)
		if err == nil {
			break
		}
	}
	if err != nil {
		return Truth{Rationale: fmt.Sprintf("Chart data unavailable: %v", err)}, nil
	}
	if len(bars) < 2 {
		return Truth{Rationale: fmt.Sprintf("Not enough chart bars between %s and %s.",
			start.Format("2006-01-02"), end.Format("2006-01-02"))}, nil
	}

	first := bars[0].close
	last := bars[len(bars)-1].close
	if first.IsZero() {
		return Truth{Rationale: "Chart data reports a zero opening close."}, nil
	}

	move := last.Sub(first).Div(first)
	threshold := decimal.NewFromFloat(cfg.TargetIncreasePct)

	truth := Truth{Determined: true, EvidenceChecked: len(bars)}
	pctStr := move.Mul(decimal.NewFromInt(100)).StringFixed(1)
	if move.GreaterThanOrEqual(threshold) {
		truth.Increase = true
		truth.Rationale = fmt.Sprintf("Close moved %s%% across the verify window.", pctStr)
	} else {
		truth.Rationale = fmt.Sprintf("Close moved %s%% across the verify window (< %s%%).",
			pctStr, threshold.Mul(decimal.NewFromInt(100)).StringFixed(0))
	}
	return truth, nil
}

type chartBar struct {
	close decimal.Decimal
}

func fetchBars(ticker string, window models.DateWindow) ([]chartBar, error) {
	start, end, err := windowTimes(window)
	if err != nil {
		return nil, err
	}

	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	bars := make([]chartBar, 0)
	for iter.Next() {
		bars = append(bars, chartBar{close: iter.Bar().Close})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("chart data for %s: %w", ticker, err)
	}
	return bars, nil
}
