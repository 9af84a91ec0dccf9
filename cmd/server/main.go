package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/config"
	"github.com/todmy/reasoning-engine/internal/llm"
	"github.com/todmy/reasoning-engine/internal/logging"
	"github.com/todmy/reasoning-engine/internal/reasoning"
)

var (
	// Global flags
	configPath string
	envFile    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Reasoning chain generation and analysis service",
	Long: `Generates multi-step deductive, inductive and abductive reasoning chains
for a claim and its evidence, and critiques them: fallacies, logical gaps,
premise strength, evidence requirements and counterarguments.

External backends (Anthropic, OpenAI) are used when their API keys are set;
otherwise a local Ollama model produces the chain, or the heuristic builder
when HEURISTIC_FALLBACK is set.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, generateCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newEngine builds the backends and the engine from the loaded config
func newEngine() (*reasoning.Engine, llm.Backends, error) {
	backends, err := llm.NewBackends(cfg.LLM, logger.Named("llm"))
	if err != nil {
		return nil, llm.Backends{}, err
	}

	engine := reasoning.NewEngine(backends, reasoning.Options{
		Timeout:              cfg.LLM.GenerationTimeout,
		DefaultMaxSteps:      cfg.Reasoning.DefaultMaxSteps,
		MaxStepsLimit:        cfg.Reasoning.MaxStepsLimit,
		FallbackOnEmptyParse: cfg.Reasoning.FallbackOnEmptyParse,
		HeuristicFallback:    cfg.Reasoning.HeuristicFallback,
	}, logger.Named("reasoning"))
	return engine, backends, nil
}
