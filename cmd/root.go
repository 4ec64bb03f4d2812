package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/errors"
	"github.com/kyleking/chart-intent/internal/logging"
)

type configKey struct{}

// NewRootCommand builds the command tree
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "chart-intent",
		Usage: "Decide whether and how to chart the answer to a question about a dataset",
		Description: `chart-intent reads a tabular dataset, classifies its columns, and infers from a
natural-language question whether the answer should be a chart, which chart type
fits, and which columns feed it. An optional LLM provider may answer first; the
local keyword, phrase and schema rules take over when it cannot.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "Log level (debug, info, warn, error)"},
			&cli.StringFlag{Name: "db-path", Usage: "Path to the history database"},
			&cli.StringFlag{Name: "lexicon", Usage: "JSON file with chart keywords and phrases"},
			&cli.StringFlag{Name: "provider", Usage: "LLM provider (openai, anthropic, ollama, local)"},
			&cli.StringFlag{Name: "model", Usage: "LLM model name"},
			&cli.BoolFlag{Name: "no-llm", Usage: "Skip the LLM provider and use local rules only"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug mode"},
		},
		Commands: []*cli.Command{
			InferCommand(),
			ProfileCommand(),
			RecommendCommand(),
			ImportCommand(),
			TablesCommand(),
			HistoryCommand(),
			StatsCommand(),
			MigrateCommand(),
			ClearCommand(),
			ConfigCommand(),
			ServeCommand(),
		},
	}
}

// Execute runs the CLI with the process arguments
func Execute() error {
	ctx := context.Background()

	err := NewRootCommand().Run(ctx, os.Args)
	if err != nil {
		printError(err)
	}

	logging.GetLogger().Close()

	return err
}

// printError prints the error and, for typed errors, its suggestions
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	for _, s := range errors.GetSuggestions(err) {
		fmt.Fprintf(os.Stderr, "  → %s\n", s)
	}
}

// withConfig loads configuration from file, environment and global flags,
// initializes logging, and passes the configuration to action through the context
func withConfig(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cfg.Debug.Enabled {
			cfg.Logging.Level = "debug"
		}

		if err := cfg.EnsureDirectories(); err != nil {
			return errors.Wrap(err, errors.ErrTypeConfig, "failed to create data directories")
		}

		if err := logging.InitializeLogger(cfg.Logging); err != nil {
			logging.SetupFallbackLogger()
			logging.Warnf("failed to initialize logger: %v", err)
		}

		return action(contextWithConfig(ctx, cfg), cmd)
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	overrides := make(map[string]interface{})

	for _, name := range []string{"log-level", "db-path", "lexicon", "provider", "model"} {
		if cmd.IsSet(name) {
			overrides[name] = cmd.String(name)
		}
	}

	for _, name := range []string{"no-llm", "verbose", "debug"} {
		if cmd.IsSet(name) {
			overrides[name] = cmd.Bool(name)
		}
	}

	cfg, err := config.LoadConfigWithOverrides(overrides)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig, "failed to load configuration").
			WithSuggestion("Run 'chart-intent config' with valid settings or check " + config.EnvPrefix + "* variables")
	}

	return cfg, nil
}

func contextWithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// getConfigFromContext returns the configuration stored by withConfig, or the
// defaults when none is present
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}

	return config.DefaultConfig()
}
