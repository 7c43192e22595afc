package models

import "fmt"

// Status is the evaluator's scoring of one verdict. A ticker whose ground
// truth cannot be determined is indeterminate and leaves the pass-rate
// denominator.
type Status string

const (
	StatusPass          Status = "pass"
	StatusFail          Status = "fail"
	StatusIndeterminate Status = "indeterminate"
)

// ScoreResult is the evaluator's per-ticker determination, derived
// one-to-one from a Verdict.
type ScoreResult struct {
	Ticker          string  `json:"ticker"`
	AgentOutcome    Outcome `json:"agent_verdict"`
	AgentConfidence float64 `json:"agent_confidence"`
	ActualIncrease  bool    `json:"truth_increase"`
	Status          Status  `json:"status"`
	Rationale       string  `json:"rationale"`
	EvidenceChecked int     `json:"evidence_checked"`
}

// Passed reports whether the verdict was scored a pass.
func (r ScoreResult) Passed() bool { return r.Status == StatusPass }

// Summary aggregates a run. Indeterminate tickers count toward Total but
// not Scored; an empty run reports 0/0 with a zero rate rather than
// erroring.
type Summary struct {
	Passed int `json:"passed"`
	Scored int `json:"scored"`
	Total  int `json:"total"`
}

// PassRate is the percentage of scored tickers that passed. Zero scored
// means a zero rate, not a division error.
func (s Summary) PassRate() float64 {
	if s.Scored == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Scored) * 100
}

func (s Summary) String() string {
	return fmt.Sprintf("Pass rate: %.1f%% (%d/%d, %d indeterminate)",
		s.PassRate(), s.Passed, s.Scored, s.Total-s.Scored)
}

// ResultArtifact is the terminal output of a benchmark run: ordered
// per-ticker results plus the aggregate summary. Never mutated after
// emission.
type ResultArtifact struct {
	RunID       string        `json:"run_id"`
	SummaryText []string      `json:"summary"`
	Summary     Summary       `json:"totals"`
	Results     []ScoreResult `json:"ticker_results"`
}

// Summarize builds the aggregate counts from an ordered result sequence.
func Summarize(results []ScoreResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
			s.Scored++
		case StatusFail:
			s.Scored++
		}
	}
	return s
}
