package models

import "fmt"

// AgentCard is the descriptor an agent serves at /card so peers can
// discover what it does before posting work.
type AgentCard struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Version     string   `json:"version"`
	Skills      []string `json:"skills,omitempty"`
}

// EvalRequest is what the runner posts to the evaluator: where the
// research agent lives plus the scenario parameters to score against.
type EvalRequest struct {
	Participants map[string]string `json:"participants"`
	Config       EvalConfig        `json:"config"`
}

// Validate checks that every required participant role is present.
func (r EvalRequest) Validate(required ...string) error {
	for _, role := range required {
		if r.Participants[role] == "" {
			return fmt.Errorf("missing participant role %q", role)
		}
	}
	return nil
}

// EvalConfig is the scenario slice the evaluator needs. Zero values fall
// back to the evaluator's defaults so a bare {"tickers":["RR"]} request
// works.
type EvalConfig struct {
	Tickers           []string   `json:"tickers"`
	TargetDate        string     `json:"target_date,omitempty"`
	TargetIncreasePct float64    `json:"target_increase_pct,omitempty"`
	ResearchWindow    DateWindow `json:"research_window,omitempty"`
	VerifyWindow      DateWindow `json:"verify_window,omitempty"`
	BaseQuery         string     `json:"base_query,omitempty"`
	MaxResults        int        `json:"max_results,omitempty"`
	MaxTokens         int        `json:"max_tokens,omitempty"`
	MaxTokensPerPage  int        `json:"max_tokens_per_page,omitempty"`
	Country           string     `json:"country,omitempty"`
}

// TaskError is the structured error body agents return for rejected or
// failed tasks.
type TaskError struct {
	Error string `json:"error"`
}
