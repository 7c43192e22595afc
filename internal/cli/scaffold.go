package cli

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tickerbench/tickerbench/config"
	"github.com/tickerbench/tickerbench/models"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [FILE]",
		Short: "Interactively scaffold a scenario TOML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "scenario.toml"
			if len(args) == 1 {
				path = args[0]
			}

			cfg, err := promptScenario()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()

			if err := toml.NewEncoder(f).Encode(cfg); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Scenario written to %s\n", path)
			return nil
		},
	}
}

func promptScenario() (*config.Scenario, error) {
	cfg := config.Default()

	var tickersStr string
	if err := survey.AskOne(&survey.Input{
		Message: "Tickers to evaluate (comma separated):",
		Default: strings.Join(cfg.Tickers, ","),
		Help:    "Uppercase ticker symbols, e.g. RR,AAPL",
	}, &tickersStr, survey.WithValidator(func(val interface{}) error {
		for _, t := range splitTickers(val.(string)) {
			if !tickerPattern.MatchString(t) {
				return fmt.Errorf("invalid ticker %q (use uppercase letters, numbers, dots, hyphens)", t)
			}
		}
		return nil
	})); err != nil {
		return nil, err
	}
	cfg.Tickers = splitTickers(tickersStr)

	dateQuestions := []struct {
		message string
		target  *string
	}{
		{"Target date (MM/DD/YYYY):", &cfg.TargetDate},
		{"Research window start (MM/DD/YYYY):", &cfg.ResearchWindow.Start},
		{"Research window end (MM/DD/YYYY):", &cfg.ResearchWindow.End},
		{"Verify window start (MM/DD/YYYY):", &cfg.VerifyWindow.Start},
		{"Verify window end (MM/DD/YYYY):", &cfg.VerifyWindow.End},
	}
	for _, q := range dateQuestions {
		if err := survey.AskOne(&survey.Input{
			Message: q.message,
			Default: *q.target,
		}, q.target, survey.WithValidator(func(val interface{}) error {
			_, err := models.ParseDate(val.(string))
			return err
		})); err != nil {
			return nil, err
		}
	}

	var pctStr string
	if err := survey.AskOne(&survey.Input{
		Message: "Target increase fraction (0.30 = 30%):",
		Default: fmt.Sprintf("%.2f", cfg.TargetIncreasePct),
	}, &pctStr, survey.WithValidator(func(val interface{}) error {
		_, err := fmt.Sscanf(strings.TrimSpace(val.(string)), "%f", new(float64))
		return err
	})); err != nil {
		return nil, err
	}
	fmt.Sscanf(strings.TrimSpace(pctStr), "%f", &cfg.TargetIncreasePct)

	if err := survey.AskOne(&survey.Select{
		Message: "Truth policy for the evaluator:",
		Options: []string{"search", "quote"},
		Default: cfg.TruthPolicy,
	}, &cfg.TruthPolicy); err != nil {
		return nil, err
	}

	if err := survey.AskOne(&survey.Select{
		Message: "Date trust policy for search results:",
		Options: []string{"trust", "strict", "metatag"},
		Default: cfg.DatePolicy,
	}, &cfg.DatePolicy); err != nil {
		return nil, err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Research agent address:",
		Default: cfg.Agents.Research.Addr,
	}, &cfg.Agents.Research.Addr); err != nil {
		return nil, err
	}
	if err := survey.AskOne(&survey.Input{
		Message: "Evaluator agent address:",
		Default: cfg.Agents.Evaluator.Addr,
	}, &cfg.Agents.Evaluator.Addr); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitTickers(s string) []string {
	parts := strings.Split(s, ",")
	tickers := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToUpper(strings.TrimSpace(p))
		if t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}
