package models

// Outcome is the research agent's call on a single ticker.
type Outcome string

const (
	OutcomeIncrease   Outcome = "increase"
	OutcomeNoIncrease Outcome = "no_increase"
	OutcomeUnknown    Outcome = "unknown"
)

// PredictsIncrease collapses the tri-state outcome to the boolean the
// evaluator scores against: only an explicit "increase" counts as a
// predicted rise.
func (o Outcome) PredictsIncrease() bool {
	return o == OutcomeIncrease
}

// Evidence is one supporting citation attached to a verdict. Dates are in
// the scenario wire format and must fall inside the research window.
type Evidence struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Date    string `json:"date,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Verdict is the research agent's per-ticker prediction with its
// justification.
type Verdict struct {
	Ticker     string     `json:"ticker"`
	Outcome    Outcome    `json:"verdict"`
	Confidence float64    `json:"confidence"`
	Rationale  string     `json:"rationale"`
	Evidence   []Evidence `json:"evidence,omitempty"`
}

// ResearchRequest is the workload the evaluator (or runner) posts to the
// research agent. Only Tickers is mandatory; zero limits fall back to the
// agent's defaults.
type ResearchRequest struct {
	Tickers           []string   `json:"tickers"`
	TargetDate        string     `json:"target_date"`
	TargetIncreasePct float64    `json:"target_increase_pct"`
	ResearchWindow    DateWindow `json:"research_window"`
	BaseQuery         string     `json:"base_query,omitempty"`
	MaxResults        int        `json:"max_results,omitempty"`
	MaxTokens         int        `json:"max_tokens,omitempty"`
	MaxTokensPerPage  int        `json:"max_tokens_per_page,omitempty"`
	Country           string     `json:"country,omitempty"`
}

// ResearchResponse carries one verdict per requested ticker, in request
// order.
type ResearchResponse struct {
	RunID             string    `json:"run_id"`
	TargetDate        string    `json:"target_date"`
	TargetIncreasePct float64   `json:"target_increase_pct"`
	Verdicts          []Verdict `json:"decisions"`
}
