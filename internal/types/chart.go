package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChartType identifies one of the supported chart shapes. The zero value means
// no chart type has been decided yet.
type ChartType string

const (
	ChartUndetermined ChartType = ""
	ChartHistogram    ChartType = "histogram"
	ChartScatter      ChartType = "scatter"
	ChartLine         ChartType = "line"
	ChartBar          ChartType = "bar"
	ChartPie          ChartType = "pie"
	ChartBox          ChartType = "box"
	ChartHeatmap      ChartType = "heatmap"
)

// ChartTypes lists the concrete chart types in their canonical order
var ChartTypes = []ChartType{
	ChartHistogram,
	ChartScatter,
	ChartLine,
	ChartBar,
	ChartPie,
	ChartBox,
	ChartHeatmap,
}

// ParseChartType maps a free-form tag onto a ChartType. Unknown tags are an error.
func ParseChartType(s string) (ChartType, error) {
	tag := ChartType(strings.ToLower(strings.TrimSpace(s)))
	for _, ct := range ChartTypes {
		if ct == tag {
			return ct, nil
		}
	}

	return ChartUndetermined, fmt.Errorf("unknown chart type: %q", s)
}

// Valid reports whether ct is one of the concrete chart types
func (ct ChartType) Valid() bool {
	_, err := ParseChartType(string(ct))
	return err == nil
}

func (ct ChartType) String() string {
	if ct == ChartUndetermined {
		return "undetermined"
	}

	return string(ct)
}

// Title returns the chart type with its first letter upper-cased
func (ct ChartType) Title() string {
	s := ct.String()
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// UnmarshalJSON rejects tags outside the enumeration
func (ct *ChartType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "" {
		*ct = ChartUndetermined
		return nil
	}

	parsed, err := ParseChartType(s)
	if err != nil {
		return err
	}

	*ct = parsed

	return nil
}

// ChartSpec is a validated, render-ready chart configuration
type ChartSpec struct {
	ChartType   ChartType `json:"chart_type"`
	Columns     []string  `json:"columns"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// Analysis is the result returned by an external analysis provider
type Analysis struct {
	Text          string             `json:"analysis"`
	Visualization *VisualizationHint `json:"visualization,omitempty"`
	// Structured is false when the provider answered with free text instead of the expected JSON
	Structured bool `json:"structured"`
}

// VisualizationHint is the provider's opinion on whether and how to chart the answer
type VisualizationHint struct {
	Needed      bool     `json:"needed"`
	ChartType   string   `json:"chart_type,omitempty"`
	Columns     []string `json:"columns,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Actionable reports whether the hint carries enough to skip local classification
func (h *VisualizationHint) Actionable() bool {
	if h == nil || !h.Needed || len(h.Columns) == 0 {
		return false
	}

	_, err := ParseChartType(h.ChartType)

	return err == nil
}
