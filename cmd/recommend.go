package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/formatter"
	"github.com/kyleking/chart-intent/internal/intent"
	"github.com/kyleking/chart-intent/internal/types"
)

func RecommendCommand() *cli.Command {
	return &cli.Command{
		Name:        "recommend",
		Usage:       "Suggest charts for a dataset",
		Description: `Suggest up to five charts based only on the dataset's column kinds.`,
		ArgsUsage:   " <file|table>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the recommendations as JSON"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", cmd.Args().Len())
			}

			return runRecommend(ctx, cmd.Args().First(), cmd.Bool("json"))
		}),
	}
}

func runRecommend(ctx context.Context, ref string, asJSON bool) error {
	ds, engine, err := loadForCommand(ctx, ref)
	if err != nil {
		return err
	}

	recs := intent.Recommend(engine.Profile(ds))

	if asJSON {
		if recs == nil {
			recs = []types.ChartSpec{}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(recs)
	}

	return formatter.NewTerminalFormatter().WriteRecommendations(os.Stdout, recs)
}
