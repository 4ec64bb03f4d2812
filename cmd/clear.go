package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/storage"
)

func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:        "clear",
		Usage:       "Clear the inference history",
		Description: `Remove every recorded inference. Imported datasets are kept. This action requires confirmation.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Skip confirmation prompt"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command) error {
			return runClear(ctx, cmd.Bool("force"))
		}),
	}
}

func runClear(ctx context.Context, force bool) error {
	return runClearWithStorage(ctx, force, nil, os.Stdin)
}

func runClearWithStorage(ctx context.Context, force bool, repo storage.Repository, in io.Reader) error {
	// Initialize storage if not provided (for testing)
	if repo == nil {
		var err error

		repo, err = initializeStorage(ctx, getConfigFromContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		defer repo.Close()
	}

	stats, err := repo.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	if stats.TotalInferences == 0 {
		fmt.Println("History is already empty.")
		return nil
	}

	fmt.Printf("This will delete:\n")
	fmt.Printf("  • %d inferences (%d with a chart)\n", stats.TotalInferences, stats.ChartsProduced)

	if !force {
		fmt.Printf("\nAre you sure you want to clear the history? This action cannot be undone.\n")
		fmt.Printf("Type 'yes' to confirm: ")

		response, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Println("Operation cancelled.")
			return nil
		}
	}

	if err := repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Println("History cleared successfully.")

	return nil
}
