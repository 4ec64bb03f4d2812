package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/formatter"
	"github.com/kyleking/chart-intent/internal/logging"
	"github.com/kyleking/chart-intent/internal/storage"
)

func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Show or roll back database schema migrations",
		Description: `List the schema migrations known to this build and whether each is applied.
Pending migrations are applied whenever the database is opened. Use --rollback-to
before switching to an older build; --rollback-to 0 drops all history and imported datasets.`,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "rollback-to", Usage: "Undo applied migrations above this version"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command) error {
			repo, err := initializeStorage(ctx, getConfigFromContext(ctx))
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer repo.Close()

			target := -1
			if cmd.IsSet("rollback-to") {
				target = int(cmd.Int("rollback-to"))
			}

			return runMigrateWithStorage(ctx, target, repo)
		}),
	}
}

// runMigrateWithStorage rolls back to target when it is not negative, then
// prints the migration table
func runMigrateWithStorage(ctx context.Context, target int, repo storage.Repository) error {
	if target >= 0 {
		logging.GetLogger().WithField("version", target).Info("rolling back schema")

		if err := repo.RollbackTo(ctx, target); err != nil {
			return fmt.Errorf("failed to roll back schema: %w", err)
		}
	}

	migrations, err := repo.Migrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	return formatter.NewTerminalFormatter().WriteMigrations(os.Stdout, migrations)
}
