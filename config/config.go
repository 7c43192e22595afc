package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/tickerbench/tickerbench/models"
)

// AgentEndpoint describes where one agent process listens and the URL it
// advertises on its card.
type AgentEndpoint struct {
	Addr    string `toml:"addr" json:"addr"`
	CardURL string `toml:"card_url" json:"card_url"`
}

// URL returns the advertised URL, falling back to the bind address.
func (e AgentEndpoint) URL() string {
	if e.CardURL != "" {
		return e.CardURL
	}
	return "http://" + e.Addr
}

// Agents holds the connection descriptors for the benchmark pair.
type Agents struct {
	Research  AgentEndpoint `toml:"research" json:"research"`
	Evaluator AgentEndpoint `toml:"evaluator" json:"evaluator"`
}

// Scenario is the full benchmark configuration. It is loaded once at
// process start and never mutated afterwards.
type Scenario struct {
	Tickers           []string          `toml:"tickers" json:"tickers"`
	TargetDate        string            `toml:"target_date" json:"target_date"`
	TargetIncreasePct float64           `toml:"target_increase_pct" json:"target_increase_pct"`
	ResearchWindow    models.DateWindow `toml:"research_window" json:"research_window"`
	VerifyWindow      models.DateWindow `toml:"verify_window" json:"verify_window"`

	// BaseQuery overrides the agents' default search query; {ticker} is
	// replaced per ticker.
	BaseQuery        string `toml:"base_query" json:"base_query,omitempty"`
	MaxResults       int    `toml:"max_results" json:"max_results"`
	MaxTokens        int    `toml:"max_tokens" json:"max_tokens"`
	MaxTokensPerPage int    `toml:"max_tokens_per_page" json:"max_tokens_per_page"`
	Country          string `toml:"country" json:"country,omitempty"`

	Agents Agents `toml:"agents" json:"agents"`

	ResultsDir   string `toml:"results_dir" json:"results_dir"`
	DataCacheDir string `toml:"data_cache_dir" json:"data_cache_dir"`
	CacheEnabled bool   `toml:"cache_enabled" json:"cache_enabled"`
	LogLevel     string `toml:"log_level" json:"log_level"`

	// TruthPolicy selects how the evaluator determines ground truth:
	// "search" (verify-window search evidence) or "quote" (market chart
	// data). DatePolicy selects how result dates are trusted: "trust",
	// "strict" or "metatag".
	TruthPolicy string `toml:"truth_policy" json:"truth_policy"`
	DatePolicy  string `toml:"date_policy" json:"date_policy"`

	// PerplexityAPIKey comes from the environment only. It is never read
	// from the scenario file and must never be written to logs.
	PerplexityAPIKey string `toml:"-" json:"-"`
}

// Default returns the scenario the original benchmark ships with: one
// ticker, a 30% bar, a summer research window and a December verify
// window.
func Default() *Scenario {
	currentDir, _ := os.Getwd()

	return &Scenario{
		Tickers:           []string{"RR"},
		TargetDate:        "12/31/2025",
		TargetIncreasePct: 0.30,
		ResearchWindow:    models.DateWindow{Start: "06/01/2025", End: "09/30/2025"},
		VerifyWindow:      models.DateWindow{Start: "12/01/2025", End: "12/31/2025"},

		MaxResults:       12,
		MaxTokens:        12000,
		MaxTokensPerPage: 2048,

		Agents: Agents{
			Research:  AgentEndpoint{Addr: "127.0.0.1:9119"},
			Evaluator: AgentEndpoint{Addr: "127.0.0.1:9109"},
		},

		ResultsDir:   filepath.Join(currentDir, "results"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),
		CacheEnabled: true,
		LogLevel:     "info",
		TruthPolicy:  "search",
		DatePolicy:   "trust",
	}
}

// Load reads a scenario TOML file, applies environment overrides and
// validates the result. Any error here is fatal: no agent starts on a
// broken scenario.
func Load(path string) (*Scenario, error) {
	cfg := Default()

	if path != "" {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("load scenario %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("load scenario %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	_ = godotenv.Load()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Scenario) loadFromEnv() {
	if val := os.Getenv("PERPLEXITY_API_KEY"); val != "" {
		c.PerplexityAPIKey = val
	}
	if val := os.Getenv("TICKERBENCH_RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("TICKERBENCH_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}
	if val := os.Getenv("TICKERBENCH_CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("TICKERBENCH_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("TICKERBENCH_RESEARCH_ADDR"); val != "" {
		c.Agents.Research.Addr = val
	}
	if val := os.Getenv("TICKERBENCH_EVALUATOR_ADDR"); val != "" {
		c.Agents.Evaluator.Addr = val
	}
}

// Validate enforces the scenario invariants: parseable dates, a research
// window that closes on or before the target date, and a verify window
// that opens strictly after research ends.
func (c *Scenario) Validate() error {
	for i, ticker := range c.Tickers {
		t := strings.TrimSpace(ticker)
		if t == "" {
			return fmt.Errorf("tickers[%d] is empty", i)
		}
		if t != strings.ToUpper(t) {
			return fmt.Errorf("tickers[%d] %q must be uppercase", i, ticker)
		}
	}

	if c.TargetIncreasePct <= 0 || c.TargetIncreasePct > 10 {
		return fmt.Errorf("target_increase_pct %v out of range (0, 10]", c.TargetIncreasePct)
	}

	targetDate, err := models.ParseDate(c.TargetDate)
	if err != nil {
		return fmt.Errorf("target_date: %w", err)
	}

	_, researchEnd, err := c.ResearchWindow.Bounds()
	if err != nil {
		return fmt.Errorf("research_window: %w", err)
	}
	if researchEnd.After(targetDate.Add(24*time.Hour - time.Nanosecond)) {
		return fmt.Errorf("research_window ends %s, after target_date %s", c.ResearchWindow.End, c.TargetDate)
	}

	verifyStart, _, err := c.VerifyWindow.Bounds()
	if err != nil {
		return fmt.Errorf("verify_window: %w", err)
	}
	if !verifyStart.After(researchEnd) {
		return fmt.Errorf("verify_window must start after research_window ends (%s <= %s)",
			c.VerifyWindow.Start, c.ResearchWindow.End)
	}

	switch c.TruthPolicy {
	case "", "search", "quote":
	default:
		return fmt.Errorf("unknown truth_policy %q", c.TruthPolicy)
	}
	switch c.DatePolicy {
	case "", "trust", "strict", "metatag":
	default:
		return fmt.Errorf("unknown date_policy %q", c.DatePolicy)
	}

	return nil
}

// EvalConfig projects the scenario onto the wire shape the evaluator
// accepts.
func (c *Scenario) EvalConfig() models.EvalConfig {
	return models.EvalConfig{
		Tickers:           c.Tickers,
		TargetDate:        c.TargetDate,
		TargetIncreasePct: c.TargetIncreasePct,
		ResearchWindow:    c.ResearchWindow,
		VerifyWindow:      c.VerifyWindow,
		BaseQuery:         c.BaseQuery,
		MaxResults:        c.MaxResults,
		MaxTokens:         c.MaxTokens,
		MaxTokensPerPage:  c.MaxTokensPerPage,
		Country:           c.Country,
	}
}

// EnsureDirectories creates the writable directories the run needs.
func (c *Scenario) EnsureDirectories() error {
	for _, dir := range []string{c.ResultsDir, c.DataCacheDir} {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
