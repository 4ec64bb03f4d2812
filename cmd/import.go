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

func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a CSV file into the local database",
		Description: `Load a delimited file into DuckDB so later commands can refer to it by table
name. Column types are taken from DuckDB's CSV sniffer. Importing the same
table again replaces it.`,
		ArgsUsage: " <file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Usage: "Table name (defaults to the file name)"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly 1 argument, got %d", cmd.Args().Len())
			}

			return runImport(ctx, cmd.Args().First(), cmd.String("table"))
		}),
	}
}

func runImport(ctx context.Context, path, table string) error {
	repo, err := initializeStorage(ctx, getConfigFromContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer repo.Close()

	return runImportWithStorage(ctx, path, table, repo)
}

func runImportWithStorage(ctx context.Context, path, table string, repo storage.Repository) error {
	if table == "" {
		table = storage.TableNameFromPath(path)
	}

	var info *storage.TableInfo

	err := logging.GetLogger().Timed("import "+table, func() error {
		var err error
		info, err = repo.ImportCSV(ctx, table, path)

		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d rows from %s into table %q\n", info.RowCount, path, info.Name)

	return nil
}

func TablesCommand() *cli.Command {
	return &cli.Command{
		Name:        "tables",
		Usage:       "List imported datasets",
		Description: `List the tables created by 'import' with their row counts and source files.`,
		Action: withConfig(func(ctx context.Context, _ *cli.Command) error {
			repo, err := initializeStorage(ctx, getConfigFromContext(ctx))
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer repo.Close()

			return runTablesWithStorage(ctx, repo)
		}),
	}
}

func runTablesWithStorage(ctx context.Context, repo storage.Repository) error {
	tables, err := repo.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	return formatter.NewTerminalFormatter().WriteTables(os.Stdout, tables)
}
