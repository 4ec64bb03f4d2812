package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/formatter"
	"github.com/kyleking/chart-intent/internal/storage"
)

func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:        "history",
		Usage:       "List past inferences",
		Description: `Show recorded inferences, newest first. Pass an id to show one inference in full.`,
		ArgsUsage:   " [id]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum number of inferences to show"},
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "Number of inferences to skip"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command) error {
			repo, err := initializeStorage(ctx, getConfigFromContext(ctx))
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer repo.Close()

			if cmd.Args().Present() {
				return runShowInferenceWithStorage(ctx, cmd.Args().First(), repo)
			}

			return runHistoryWithStorage(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")), repo)
		}),
	}
}

func runHistoryWithStorage(ctx context.Context, limit, offset int, repo storage.Repository) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	records, err := repo.ListInferences(ctx, limit, offset)
	if err != nil {
		return fmt.Errorf("failed to list inferences: %w", err)
	}

	return formatter.NewTerminalFormatter().WriteHistory(os.Stdout, records)
}

func runShowInferenceWithStorage(ctx context.Context, id string, repo storage.Repository) error {
	rec, err := repo.GetInference(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("ID: %s\n", rec.ID)
	fmt.Printf("When: %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Question: %s\n", rec.Question)
	fmt.Printf("Dataset: %s\n", getStringOrDash(rec.Dataset))
	fmt.Printf("Source: %s (candidate %s)\n", rec.Source, getStringOrDash(rec.Candidate))

	if rec.HasChart() {
		fmt.Printf("Chart: %s\n", rec.ChartType)
		fmt.Printf("Columns: %v\n", rec.Columns)
		fmt.Printf("Title: %s\n", rec.Title)
		fmt.Printf("Description: %s\n", rec.Description)
	} else {
		fmt.Println("Chart: none")
	}

	if rec.ProviderError != "" {
		fmt.Printf("Provider error: %s\n", rec.ProviderError)
	}

	fmt.Printf("Duration: %dms\n", rec.DurationMS)

	return nil
}

func getStringOrDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
