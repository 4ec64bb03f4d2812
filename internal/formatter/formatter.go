package formatter

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/term"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/intent"
	"github.com/kyleking/chart-intent/internal/storage"
	"github.com/kyleking/chart-intent/internal/types"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatLong  OutputFormat = "long"
	FormatShort OutputFormat = "short"
)

// Formatter handles terminal output for inference results, dataset profiles and history
type Formatter struct {
	isTTY bool
	width int
	now   func() time.Time
}

// NewFormatter creates a formatter for plain, non-terminal output
func NewFormatter() *Formatter {
	return &Formatter{width: 80, now: time.Now}
}

// NewTerminalFormatter creates a formatter sized for the current terminal
func NewTerminalFormatter() *Formatter {
	f := NewFormatter()
	t := term.FromEnv()

	f.isTTY = t.IsTerminalOutput()
	if w, _, err := t.Size(); err == nil && w > 0 {
		f.width = w
	}

	return f
}

// FormatResult formats a single inference result
func (f *Formatter) FormatResult(res *intent.Result, format OutputFormat) string {
	switch format {
	case FormatLong:
		return f.formatLong(res)
	case FormatShort:
		return f.formatShort(res)
	default:
		return f.formatShort(res)
	}
}

// formatLong lists the decision, the chart and the analysis text
func (f *Formatter) formatLong(res *intent.Result) string {
	var lines []string

	lines = append(lines, "Question: "+res.Question)
	lines = append(lines, fmt.Sprintf("Decision: %s (source: %s)", res.Candidate, res.Source))

	if res.Spec != nil {
		lines = append(lines, "Chart: "+res.Spec.ChartType.Title())
		lines = append(lines, "Columns: "+joinOrDash(res.Spec.Columns))
		lines = append(lines, "Title: "+res.Spec.Title)
		lines = append(lines, "Description: "+res.Spec.Description)
	} else {
		lines = append(lines, "Chart: none")
		lines = append(lines, "Columns: "+joinOrDash(res.Selected))
	}

	if res.ProviderError != "" {
		lines = append(lines, "Provider error: "+res.ProviderError)
	}

	if text := res.Response(); text != "" {
		lines = append(lines, "", text)
	}

	return strings.Join(lines, "\n")
}

// formatShort is a one-line summary
func (f *Formatter) formatShort(res *intent.Result) string {
	if res.Spec == nil {
		return fmt.Sprintf("no chart (candidate %s, source %s)", res.Candidate, res.Source)
	}

	return fmt.Sprintf("%s [%s] via %s  %s",
		res.Spec.ChartType, strings.Join(res.Spec.Columns, ", "), res.Source, res.Spec.Title)
}

// WriteSchema prints one row per column with its kind, role and missing count
func (f *Formatter) WriteSchema(w io.Writer, ds dataset.Dataset, schema types.DatasetSchema) error {
	summary := dataset.Summarize(ds)

	if f.isTTY {
		fmt.Fprintf(w, "%d rows x %d columns\n\n", summary.Rows, summary.Columns)
	}

	tp := tableprinter.New(w, f.isTTY, f.width)
	tp.AddHeader([]string{"COLUMN", "KIND", "ROLE", "MISSING"})

	for _, name := range schema.Columns {
		tp.AddField(name)
		tp.AddField(summary.ColumnKinds[name])
		tp.AddField(role(schema, name))
		tp.AddField(strconv.Itoa(summary.MissingValues[name]))
		tp.EndRow()
	}

	return tp.Render()
}

func role(schema types.DatasetSchema, name string) string {
	switch {
	case schema.IsTemporal(name):
		return "temporal"
	case schema.IsNumeric(name):
		return "numeric"
	case schema.IsCategorical(name):
		return "categorical"
	default:
		return "-"
	}
}

// WriteRecommendations prints the suggested charts
func (f *Formatter) WriteRecommendations(w io.Writer, specs []types.ChartSpec) error {
	if len(specs) == 0 {
		_, err := fmt.Fprintln(w, "No charts can be recommended for this dataset.")
		return err
	}

	tp := tableprinter.New(w, f.isTTY, f.width)
	tp.AddHeader([]string{"#", "CHART", "COLUMNS", "TITLE"})

	for i, spec := range specs {
		tp.AddField(strconv.Itoa(i + 1))
		tp.AddField(spec.ChartType.String())
		tp.AddField(strings.Join(spec.Columns, ", "))
		tp.AddField(spec.Title, tableprinter.WithTruncate(nil))
		tp.EndRow()
	}

	return tp.Render()
}

// WriteHistory prints stored inferences, newest first
func (f *Formatter) WriteHistory(w io.Writer, records []storage.InferenceRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No inferences recorded yet.")
		return err
	}

	tp := tableprinter.New(w, f.isTTY, f.width)
	tp.AddHeader([]string{"ID", "WHEN", "CHART", "COLUMNS", "SOURCE", "QUESTION"})

	for _, rec := range records {
		tp.AddField(shortID(rec.ID))
		tp.AddField(f.humanizeAge(rec.CreatedAt))
		tp.AddField(orDash(rec.ChartType))
		tp.AddField(joinOrDash(rec.Columns))
		tp.AddField(rec.Source)
		tp.AddField(rec.Question)
		tp.EndRow()
	}

	return tp.Render()
}

// FormatStats formats history statistics
func (f *Formatter) FormatStats(stats *storage.Stats) string {
	var lines []string

	lines = append(lines, "Inference History Statistics")
	lines = append(lines, "============================")
	lines = append(lines, "Total inferences: "+f.formatInt(stats.TotalInferences))
	lines = append(lines, "Charts produced: "+f.formatInt(stats.ChartsProduced))
	lines = append(lines, "No chart: "+f.formatInt(stats.NoChart))
	lines = append(lines, "Provider failures: "+f.formatInt(stats.ProviderFailures))
	lines = append(lines, "Imported datasets: "+f.formatInt(stats.ImportedDatasets))
	lines = append(lines, "Last inference: "+f.humanizeAge(stats.LastInferenceTime))
	lines = append(lines, fmt.Sprintf("Database size: %.2f MB", stats.DatabaseSizeMB))

	schema := "Schema version: " + strconv.Itoa(stats.SchemaVersion)
	if stats.PendingMigrations > 0 {
		schema += fmt.Sprintf(" (%d pending)", stats.PendingMigrations)
	}

	lines = append(lines, schema)

	if len(stats.ChartTypeBreakdown) > 0 {
		lines = append(lines, "", "Chart types: "+formatBreakdown(stats.ChartTypeBreakdown))
	}

	if len(stats.SourceBreakdown) > 0 {
		lines = append(lines, "Sources: "+formatBreakdown(stats.SourceBreakdown))
	}

	return strings.Join(lines, "\n")
}

// WriteTables prints the imported datasets
func (f *Formatter) WriteTables(w io.Writer, tables []storage.TableInfo) error {
	if len(tables) == 0 {
		_, err := fmt.Fprintln(w, "No datasets imported yet.")
		return err
	}

	tp := tableprinter.New(w, f.isTTY, f.width)
	tp.AddHeader([]string{"TABLE", "ROWS", "IMPORTED", "SOURCE"})

	for _, t := range tables {
		tp.AddField(t.Name)
		tp.AddField(strconv.FormatInt(t.RowCount, 10))
		tp.AddField(f.humanizeAge(t.ImportedAt))
		tp.AddField(t.SourcePath)
		tp.EndRow()
	}

	return tp.Render()
}

// WriteMigrations prints each known schema migration and when it was applied
func (f *Formatter) WriteMigrations(w io.Writer, migrations []storage.MigrationStatus) error {
	tp := tableprinter.New(w, f.isTTY, f.width)
	tp.AddHeader([]string{"VERSION", "DESCRIPTION", "APPLIED"})

	for _, m := range migrations {
		tp.AddField(strconv.Itoa(m.Version))
		tp.AddField(m.Description)

		if m.Applied {
			tp.AddField(f.humanizeAge(m.AppliedAt))
		} else {
			tp.AddField("pending")
		}

		tp.EndRow()
	}

	return tp.Render()
}

// formatBreakdown renders counts by descending count, then by name
func formatBreakdown(counts map[string]int) string {
	type entry struct {
		name  string
		count int
	}

	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name: name, count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}

		return entries[i].name < entries[j].name
	})

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s (%d)", e.name, e.count))
	}

	return strings.Join(parts, ", ")
}

// formatInt formats an integer, returning "?" for negative values (unknown)
func (f *Formatter) formatInt(value int) string {
	if value < 0 {
		return "?"
	}

	return strconv.Itoa(value)
}

// humanizeAge converts a time to a human-readable age string
func (f *Formatter) humanizeAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	duration := f.now().Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	}

	days := int(duration.Hours() / 24)

	switch {
	case days < 30:
		return plural(days, "day")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}

	return fmt.Sprintf("%d %ss ago", n, unit)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func joinOrDash(columns []string) string {
	if len(columns) == 0 {
		return "-"
	}

	return strings.Join(columns, ", ")
}
