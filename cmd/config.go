package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/errors"
	"github.com/kyleking/chart-intent/internal/llm"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Display the active configuration",
		Description: `Show the current active configuration including all settings from file, environment variables, and command-line flags.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "save", Usage: "Write the active configuration to the config file"},
		},
		Action: withConfig(runConfig),
	}
}

func runConfig(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfigFromContext(ctx)

	if err := RunConfigWithConfig(cfg); err != nil {
		return err
	}

	if cmd.Bool("save") {
		return saveConfig(cfg)
	}

	return nil
}

func saveConfig(cfg *config.Config) error {
	path, err := config.SaveConfig(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeConfig, "failed to save configuration")
	}

	fmt.Printf("\nConfiguration saved to %s (API key not written)\n", path)

	return nil
}

// RunConfigWithConfig prints cfg. API keys are masked.
func RunConfigWithConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.NewConfigError("failed to load configuration", "")
	}

	fmt.Println("====================")
	fmt.Println("Active Configuration:")

	fmt.Println("\nLLM:")
	fmt.Printf("  Enabled: %t\n", cfg.LLM.Enabled)
	fmt.Printf("  Provider: %s\n", cfg.LLM.Provider)
	fmt.Printf("  Model: %s\n", cfg.LLM.Model)
	fmt.Printf("  API Key: %s\n", maskSecret(cfg.LLM.APIKey))

	if cfg.LLM.BaseURL != "" {
		fmt.Printf("  Base URL: %s\n", cfg.LLM.BaseURL)
	}

	fmt.Printf("  Timeout: %s\n", cfg.LLM.Timeout)
	fmt.Printf("  Retry Attempts: %d\n", cfg.LLM.RetryAttempts)
	fmt.Printf("  Registered Providers: %s\n", describeProviders(cfg))

	fmt.Println("\nInference:")
	fmt.Printf("  Max Columns: %d\n", cfg.Inference.MaxColumns)
	fmt.Printf("  Lexicon File: %s\n", getStringOrDash(cfg.Inference.LexiconFile))

	fmt.Println("\nDatabase:")
	fmt.Printf("  Path: %s\n", cfg.Database.Path)
	fmt.Printf("  Max Connections: %d\n", cfg.Database.MaxConnections)
	fmt.Printf("  Query Timeout: %s\n", cfg.Database.QueryTimeout)
	fmt.Printf("  Sample Rows: %d\n", cfg.Database.SampleRows)

	fmt.Println("\nRender:")
	fmt.Printf("  Size: %dx%d\n", cfg.Render.Width, cfg.Render.Height)

	fmt.Println("\nCache:")
	fmt.Printf("  Enabled: %t\n", cfg.Cache.Enabled)
	fmt.Printf("  Directory: %s\n", cfg.Cache.Directory)
	fmt.Printf("  Max Size: %d MB\n", cfg.Cache.MaxSizeMB)
	fmt.Printf("  TTL: %d hours\n", cfg.Cache.TTLHours)
	fmt.Printf("  Cleanup Frequency: %s\n", cfg.Cache.CleanupFreq)

	fmt.Println("\nLogging:")
	fmt.Printf("  Level: %s\n", cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", cfg.Logging.Format)
	fmt.Printf("  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Output == "file" {
		fmt.Printf("  File: %s\n", cfg.Logging.File)
	}

	fmt.Printf("  Add Source: %t\n", cfg.Logging.AddSource)

	fmt.Println("\nDebug:")
	fmt.Printf("  Enabled: %t\n", cfg.Debug.Enabled)
	fmt.Printf("  Verbose: %t\n", cfg.Debug.Verbose)

	// Show raw JSON if debug is enabled
	if cfg.Debug.Enabled {
		fmt.Println("\nRaw Configuration (JSON):")
		fmt.Println("==========================")

		masked := *cfg
		masked.LLM.APIKey = maskSecret(cfg.LLM.APIKey)

		jsonData, err := json.MarshalIndent(masked, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}

		fmt.Println(string(jsonData))
	}

	return nil
}

// describeProviders builds the provider manager the way infer does and lists
// what it registered, or why it could not
func describeProviders(cfg *config.Config) string {
	if !cfg.LLM.Enabled {
		return "none (LLM disabled)"
	}

	manager, err := llm.NewServiceFromConfig(cfg.LLM, cfg.LLMTimeout())
	if err != nil {
		return fmt.Sprintf("none (%v)", err)
	}

	return strings.Join(manager.GetAvailableProviders(), ", ")
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}
