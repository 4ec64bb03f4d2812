package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/logging"
	"github.com/kyleking/chart-intent/internal/mcpserver"
	"github.com/kyleking/chart-intent/internal/monitor"
)

const (
	serveMemoryThresholdMB = 512
	serveMemoryInterval    = time.Minute
)

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run an MCP server on stdin/stdout",
		Description: `Expose the infer_chart, profile_dataset and recommend_charts tools over the
Model Context Protocol. Logs go to the configured log output, never stdout.`,
		Action: withConfig(func(ctx context.Context, _ *cli.Command) error {
			return runServe(ctx)
		}),
	}
}

func runServe(ctx context.Context) error {
	cfg := getConfigFromContext(ctx)
	if cfg.Logging.Output == "stdout" {
		return fmt.Errorf("log output must not be stdout while serving MCP over stdio")
	}

	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	deps := mcpserver.Deps{
		Engine:  engine,
		MaxRows: cfg.Database.SampleRows,
		Logger:  logging.GetLogger(),
	}

	repo, err := initializeStorage(ctx, cfg)
	if err != nil {
		logging.GetLogger().WithError(err).Warn("history unavailable, serving files only")
	} else {
		defer repo.Close()

		deps.Store = repo
	}

	mon := monitor.NewMemoryMonitor(serveMemoryThresholdMB, logging.GetLogger())
	mon.Start(ctx, serveMemoryInterval)
	defer mon.Stop()

	return mcpserver.New(deps).ServeStdio()
}
