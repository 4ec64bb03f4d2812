package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/kyleking/chart-intent/internal/types"
)

const systemPrompt = `You are a professional data analyst. You answer questions about a tabular dataset
and decide whether the answer is best supported by a chart.

Dataset information:
%s
Respond with a JSON object only, using exactly these fields:
{
  "analysis": "a detailed written answer to the question",
  "visualization": {
    "needed": true or false,
    "chart_type": "histogram/scatter/line/bar/pie/heatmap/box",
    "columns": ["column names used by the chart"],
    "title": "chart title",
    "description": "one sentence describing the chart"
  }
}

Set visualization.needed to true when the question calls for a distribution, correlation,
trend, comparison or composition view. Set it to false when a written answer is enough.
Only use column names that appear in the dataset information.`

// buildAnalysisPrompt creates the system prompt describing the dataset
func buildAnalysisPrompt(data DataContext) string {
	return fmt.Sprintf(systemPrompt, formatDataContext(data))
}

// formatDataContext renders the dataset description the way the model sees it
func formatDataContext(data DataContext) string {
	var sb strings.Builder

	if data.Name != "" {
		fmt.Fprintf(&sb, "- Name: %s\n", data.Name)
	}

	fmt.Fprintf(&sb, "- Shape: %d rows x %d columns\n", data.Rows, len(data.Columns))
	fmt.Fprintf(&sb, "- Columns: %s\n", strings.Join(data.Columns, ", "))
	fmt.Fprintf(&sb, "- Numeric columns: %s\n", strings.Join(data.Numeric, ", "))
	fmt.Fprintf(&sb, "- Categorical columns: %s\n", strings.Join(data.Categorical, ", "))

	if len(data.Temporal) > 0 {
		fmt.Fprintf(&sb, "- Temporal columns: %s\n", strings.Join(data.Temporal, ", "))
	}

	kinds := make([]string, 0, len(data.Columns))
	missing := make([]string, 0)

	for _, c := range data.Columns {
		if k, ok := data.ColumnKinds[c]; ok {
			kinds = append(kinds, fmt.Sprintf("%s=%s", c, k))
		}

		if n := data.MissingValues[c]; n > 0 {
			missing = append(missing, fmt.Sprintf("%s=%d", c, n))
		}
	}

	sort.Strings(missing)

	if len(kinds) > 0 {
		fmt.Fprintf(&sb, "- Column types: %s\n", strings.Join(kinds, ", "))
	}

	if len(missing) > 0 {
		fmt.Fprintf(&sb, "- Missing values: %s\n", strings.Join(missing, ", "))
	} else {
		sb.WriteString("- Missing values: none\n")
	}

	return sb.String()
}

type analysisPayload struct {
	Analysis      *string                  `json:"analysis"`
	Visualization *types.VisualizationHint `json:"visualization"`
}

var htmlTag = regexp.MustCompile(`(?i)<(p|br|div|span|ul|ol|li|strong|em|b|i|h[1-6]|table|tr|td|th|code|pre|a)\b[^>]*>`)

// ParseAnalysis turns a raw model reply into an analysis. Replies that are not
// the expected JSON object are kept as plain text with no visualization.
func ParseAnalysis(raw string) *types.Analysis {
	var payload analysisPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return &types.Analysis{
			Text:          toMarkdown(strings.TrimSpace(raw)),
			Visualization: &types.VisualizationHint{Needed: false},
			Structured:    false,
		}
	}

	text := strings.TrimSpace(raw)
	if payload.Analysis != nil {
		text = *payload.Analysis
	}

	hint := payload.Visualization
	if hint == nil {
		hint = &types.VisualizationHint{Needed: false}
	}

	return &types.Analysis{
		Text:          toMarkdown(text),
		Visualization: hint,
		Structured:    true,
	}
}

// stripCodeFence removes a surrounding ```json ... ``` block if present
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// toMarkdown converts HTML fragments some models emit into Markdown. Plain
// text is returned unchanged.
func toMarkdown(text string) string {
	if !htmlTag.MatchString(text) {
		return text
	}

	md, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return text
	}

	return strings.TrimSpace(md)
}
