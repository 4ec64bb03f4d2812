package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/formatter"
	"github.com/kyleking/chart-intent/internal/intent"
	"github.com/kyleking/chart-intent/internal/lexicon"
	"github.com/kyleking/chart-intent/internal/storage"
)

func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:        "profile",
		Usage:       "Classify the columns of a dataset",
		Description: `Show each column's storage kind and whether it is treated as numeric, categorical or temporal.`,
		ArgsUsage:   " <file|table>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the schema as JSON"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", cmd.Args().Len())
			}

			return runProfile(ctx, cmd.Args().First(), cmd.Bool("json"))
		}),
	}
}

// loadForCommand resolves a dataset for commands that do not need the provider
func loadForCommand(ctx context.Context, ref string) (*dataset.Frame, *intent.Engine, error) {
	cfg := getConfigFromContext(ctx)

	var repo storage.Repository
	if r, err := initializeStorage(ctx, cfg); err == nil {
		repo = r
		defer r.Close()
	}

	ds, err := storage.LoadDataset(ctx, repo, ref, cfg.Database.SampleRows)
	if err != nil {
		return nil, nil, err
	}

	lex, err := lexicon.LoadOrDefault(config.ExpandPath(cfg.Inference.LexiconFile))
	if err != nil {
		return nil, nil, err
	}

	return ds, intent.New(intent.WithLexicon(lex), intent.WithMaxColumns(cfg.Inference.MaxColumns)), nil
}

func runProfile(ctx context.Context, ref string, asJSON bool) error {
	ds, engine, err := loadForCommand(ctx, ref)
	if err != nil {
		return err
	}

	schema := engine.Profile(ds)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(struct {
			Name    string          `json:"name"`
			Summary dataset.Summary `json:"summary"`
			Schema  any             `json:"schema"`
		}{ds.Name(), dataset.Summarize(ds), schema})
	}

	return formatter.NewTerminalFormatter().WriteSchema(os.Stdout, ds, schema)
}
