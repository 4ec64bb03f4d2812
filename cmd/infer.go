package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/urfave/cli/v3"

	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/formatter"
	"github.com/kyleking/chart-intent/internal/intent"
	"github.com/kyleking/chart-intent/internal/logging"
	"github.com/kyleking/chart-intent/internal/render"
	"github.com/kyleking/chart-intent/internal/storage"
)

type inferOptions struct {
	Source   string
	Question string
	JSON     bool
	Short    bool
	// Render is a file to write the chart document to, "-" for stdout
	Render string
}

func InferCommand() *cli.Command {
	return &cli.Command{
		Name:  "infer",
		Usage: "Infer whether and how to chart the answer to a question",
		Description: `Read a CSV/TSV file (or a table imported with 'import'), ask the configured
LLM provider when enabled, and fall back to local rules to decide the chart type
and columns.

Examples:
  chart-intent infer sales.csv "show the sales trend over time"
  chart-intent infer --no-llm --json sales.csv "compare sales by category"
  chart-intent infer --render chart.json sales "distribution of order size"`,
		ArgsUsage: " <file|table> <question>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the full result as JSON"},
			&cli.BoolFlag{Name: "short", Usage: "Print a one-line summary"},
			&cli.StringFlag{Name: "render", Usage: "Write the chart document to `FILE` (- for stdout)"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() < 2 {
				return fmt.Errorf("expected a dataset and a question, got %d arguments", args.Len())
			}

			opts := inferOptions{
				Source:   args.First(),
				Question: strings.Join(args.Tail(), " "),
				JSON:     cmd.Bool("json"),
				Short:    cmd.Bool("short"),
				Render:   cmd.String("render"),
			}

			return runInfer(ctx, opts)
		}),
	}
}

func runInfer(ctx context.Context, opts inferOptions) error {
	cfg := getConfigFromContext(ctx)

	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	repo, err := initializeStorage(ctx, cfg)
	if err != nil {
		logging.GetLogger().WithError(err).Warn("history unavailable, inference will not be recorded")

		repo = nil
	} else {
		defer repo.Close()
	}

	return runInferWithDeps(ctx, cfg, opts, engine, repo)
}

func runInferWithDeps(
	ctx context.Context,
	cfg *config.Config,
	opts inferOptions,
	engine *intent.Engine,
	repo storage.Repository,
) error {
	ds, err := storage.LoadDataset(ctx, repo, opts.Source, cfg.Database.SampleRows)
	if err != nil {
		return err
	}

	stop := startSpinner(cfg.LLM.Enabled && !opts.JSON, "Thinking about "+ds.Name()+"...")
	res := engine.Infer(ctx, intent.Query{Question: opts.Question}, ds)
	stop()

	if repo != nil {
		if err := repo.RecordInference(ctx, storage.RecordFromResult(res, ds.Name())); err != nil {
			logging.GetLogger().WithError(err).Warn("failed to record inference")
		}
	}

	if err := printInference(os.Stdout, res, opts); err != nil {
		return err
	}

	if opts.Render == "" {
		return nil
	}

	return renderChart(ctx, cfg, res, ds, opts.Render)
}

func printInference(w io.Writer, res *intent.Result, opts inferOptions) error {
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(struct {
			*intent.Result
			Response string `json:"response"`
		}{res, res.Response()})
	}

	format := formatter.FormatLong
	if opts.Short {
		format = formatter.FormatShort
	}

	_, err := fmt.Fprintln(w, formatter.NewTerminalFormatter().FormatResult(res, format))

	return err
}

// renderChart writes the chart document for res to dest. Shape errors from
// the renderer are returned as is.
func renderChart(ctx context.Context, cfg *config.Config, res *intent.Result, ds dataset.Dataset, dest string) error {
	if res.Spec == nil {
		fmt.Fprintln(os.Stderr, "No chart to render.")
		return nil
	}

	renderer := render.NewJSONRenderer(cfg.Render)
	renderer.Indent = true

	if dest == "-" {
		return renderer.Render(ctx, *res.Spec, ds, os.Stdout)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if err := renderer.Render(ctx, *res.Spec, ds, f); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	fmt.Fprintf(os.Stderr, "Chart written to %s\n", dest)

	return nil
}

// startSpinner shows progress on stderr while the provider is consulted and
// returns the function that stops it
func startSpinner(enabled bool, suffix string) func() {
	if !enabled || !term.FromEnv().IsTerminalOutput() {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()

	return s.Stop
}
