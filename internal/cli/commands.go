package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tickerbench/tickerbench/config"
	"github.com/tickerbench/tickerbench/internal/datecheck"
	"github.com/tickerbench/tickerbench/internal/evaluate"
	"github.com/tickerbench/tickerbench/internal/logger"
	"github.com/tickerbench/tickerbench/internal/messenger"
	"github.com/tickerbench/tickerbench/internal/research"
	"github.com/tickerbench/tickerbench/internal/runner"
	"github.com/tickerbench/tickerbench/internal/search"
	"github.com/tickerbench/tickerbench/internal/server"
	"github.com/tickerbench/tickerbench/internal/storage"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "tickerbench",
		Short: "TickerBench - agent benchmark for stock move predictions",
		Long: `TickerBench pairs a research agent and an evaluator agent to judge whether
stock tickers will rise past a target threshold by a target date. The research
agent is restricted to a research window; the evaluator independently
fact-checks against a later verify window and scores each prediction.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Scenario TOML file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	loadScenario := func() (*config.Scenario, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		logger.Init(cfg.LogLevel)
		return cfg, nil
	}

	rootCmd.AddCommand(newRunCmd(loadScenario))
	rootCmd.AddCommand(newAgentCmd(loadScenario))
	rootCmd.AddCommand(newEvaluatorCmd(loadScenario))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI. The exit code reflects whether the run completed,
// not whether any prediction was correct.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd(loadScenario func() (*config.Scenario, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark against both agents and print the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScenario()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			store, err := storage.Open(filepath.Join(cfg.ResultsDir, "runs.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signalContext()
			defer stop()

			run := runner.New(cfg, messenger.New(), store, cmd.OutOrStdout())
			_, err = run.Run(ctx)
			return err
		},
	}
}

func newAgentCmd(loadScenario func() (*config.Scenario, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Serve the research (purple) agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScenario()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			provider, policy, err := buildSearchStack(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			srv := server.NewResearchServer(research.New(provider, policy), cfg.Agents.Research)
			return srv.ListenAndServe(ctx)
		},
	}
}

func newEvaluatorCmd(loadScenario func() (*config.Scenario, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluator",
		Short: "Serve the evaluator (green) agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScenario()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			truth, err := buildTruthSource(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			agent := evaluate.New(messenger.New(), truth)
			srv := server.NewEvaluatorServer(agent, cfg.Agents.Evaluator)
			return srv.ListenAndServe(ctx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "TickerBench v%s\n", server.Version)
		},
	}
}

// buildSearchStack wires the Perplexity client with its cache plus the
// scenario's date policy.
func buildSearchStack(cfg *config.Scenario) (search.Provider, datecheck.Policy, error) {
	cache := search.NewCacheManager(filepath.Join(cfg.DataCacheDir, "perplexity"), 0, cfg.CacheEnabled)
	provider, err := search.NewPerplexityClient(cfg.PerplexityAPIKey, search.WithCache(cache))
	if err != nil {
		return nil, nil, err
	}

	policy, err := datecheck.ForName(cfg.DatePolicy)
	if err != nil {
		return nil, nil, err
	}
	return provider, policy, nil
}

func buildTruthSource(cfg *config.Scenario) (evaluate.TruthSource, error) {
	if cfg.TruthPolicy == "quote" {
		return evaluate.NewQuoteTruth(), nil
	}
	provider, policy, err := buildSearchStack(cfg)
	if err != nil {
		return nil, err
	}
	return evaluate.NewSearchTruth(provider, policy), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
