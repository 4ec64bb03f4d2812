// Package render turns a validated chart configuration into output a front-end can draw.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/errors"
	"github.com/kyleking/chart-intent/internal/types"
)

// Renderer draws a chart from a spec and the dataset it was validated against.
// A renderer may reject a spec whose columns do not have the shape the chart
// type needs; that error is returned to the caller unchanged.
type Renderer interface {
	Render(ctx context.Context, spec types.ChartSpec, ds dataset.Dataset, w io.Writer) error
}

// ShapeChecker enforces the data shape each chart type needs
type ShapeChecker struct{}

type shape struct {
	minColumns int
	minNumeric int
}

var shapes = map[types.ChartType]shape{
	types.ChartHistogram: {minColumns: 1, minNumeric: 1},
	types.ChartScatter:   {minColumns: 2, minNumeric: 2},
	types.ChartLine:      {minColumns: 2},
	types.ChartBar:       {minColumns: 1},
	types.ChartPie:       {minColumns: 1},
	types.ChartHeatmap:   {minColumns: 2, minNumeric: 2},
	types.ChartBox:       {minColumns: 1, minNumeric: 1},
}

// Check returns an ErrTypeRender error when spec cannot be drawn from ds
func (ShapeChecker) Check(spec types.ChartSpec, ds dataset.Dataset) error {
	want, ok := shapes[spec.ChartType]
	if !ok {
		return errors.NewRenderError(spec.ChartType.String(), "unsupported chart type")
	}

	kinds := make(map[string]types.ValueKind, len(ds.Columns()))
	for _, c := range ds.Columns() {
		kinds[c.Name] = c.Kind
	}

	numeric := 0

	for _, name := range spec.Columns {
		kind, ok := kinds[name]
		if !ok {
			return errors.NewRenderError(spec.ChartType.String(), "column %q is not in the dataset", name)
		}

		if kind.Numeric() {
			numeric++
		}
	}

	if len(spec.Columns) < want.minColumns {
		return errors.NewRenderError(spec.ChartType.String(),
			"needs at least %d columns, got %d", want.minColumns, len(spec.Columns))
	}

	if numeric < want.minNumeric {
		return errors.NewRenderError(spec.ChartType.String(),
			"needs at least %d numeric columns, got %d", want.minNumeric, numeric)
	}

	return nil
}

// Series is one column of chart data. Numeric columns carry float values with
// nil for missing cells; other columns carry their raw text.
type Series struct {
	Column string          `json:"column"`
	Kind   types.ValueKind `json:"kind"`
	Values []any           `json:"values"`
}

// Document is the payload JSONRenderer writes
type Document struct {
	Spec   types.ChartSpec `json:"spec"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Series []Series        `json:"series"`
}

// JSONRenderer writes the spec and its column data as a JSON document
type JSONRenderer struct {
	Width   int
	Height  int
	Indent  bool
	checker ShapeChecker
}

// NewJSONRenderer creates a renderer sized from the render configuration
func NewJSONRenderer(cfg config.RenderConfig) *JSONRenderer {
	return &JSONRenderer{Width: cfg.Width, Height: cfg.Height}
}

// Build checks the spec against ds and collects its series
func (r *JSONRenderer) Build(ctx context.Context, spec types.ChartSpec, ds dataset.Dataset) (*Document, error) {
	if err := r.checker.Check(spec, ds); err != nil {
		return nil, err
	}

	kinds := make(map[string]types.ValueKind, len(ds.Columns()))
	for _, c := range ds.Columns() {
		kinds[c.Name] = c.Kind
	}

	doc := &Document{Spec: spec, Width: r.Width, Height: r.Height, Series: make([]Series, 0, len(spec.Columns))}

	for _, name := range spec.Columns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, _ := ds.Values(name)
		kind := kinds[name]
		values := make([]any, len(raw))

		for i, v := range raw {
			values[i] = cell(kind, v)
		}

		doc.Series = append(doc.Series, Series{Column: name, Kind: kind, Values: values})
	}

	return doc, nil
}

// Render implements Renderer
func (r *JSONRenderer) Render(ctx context.Context, spec types.ChartSpec, ds dataset.Dataset, w io.Writer) error {
	doc, err := r.Build(ctx, spec, ds)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write chart document: %w", err)
	}

	return nil
}

func cell(kind types.ValueKind, v string) any {
	if !kind.Numeric() {
		return v
	}

	f, ok := dataset.ParseNumber(v)
	if !ok {
		return nil
	}

	return f
}
