// Package intent decides whether a question about a dataset should be answered
// with a chart, which chart type, and which columns feed it.
//
// The decision is a cascade. An external analysis that already names a chart
// type and columns is used as is. Otherwise the keyword rules are tried, then
// the phrase rules, then the shape of the schema, and the final default is a
// bar chart. Column selection and validation against the live dataset follow.
package intent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/lexicon"
	"github.com/kyleking/chart-intent/internal/logging"
	"github.com/kyleking/chart-intent/internal/profile"
	"github.com/kyleking/chart-intent/internal/types"
)

// Source records which tier of the cascade chose the chart type
type Source string

const (
	SourceExternal    Source = "external"
	SourceKeyword     Source = "keyword"
	SourcePhrase      Source = "phrase"
	SourceSchemaShape Source = "schema_shape"
	SourceDefault     Source = "default"
)

// AnalysisProvider is an external collaborator, typically an LLM, that may
// already know whether and how to chart the answer
type AnalysisProvider interface {
	Analyze(ctx context.Context, question string, ds dataset.Dataset, schema types.DatasetSchema) (*types.Analysis, error)
}

// Query is a single inference request
type Query struct {
	Question string
	// Analysis, when set, is used instead of calling the engine's provider
	Analysis *types.Analysis
}

// Result is the outcome of one inference together with how it was reached
type Result struct {
	ID            string              `json:"id"`
	Question      string              `json:"question"`
	Schema        types.DatasetSchema `json:"schema"`
	Source        Source              `json:"source"`
	Candidate     types.ChartType     `json:"candidate"`
	Selected      []string            `json:"selected_columns"`
	Spec          *types.ChartSpec    `json:"spec"`
	Analysis      *types.Analysis     `json:"analysis,omitempty"`
	ProviderError string              `json:"provider_error,omitempty"`
	Duration      time.Duration       `json:"duration"`
}

// HasChart reports whether a chart can be produced
func (r *Result) HasChart() bool {
	return r.Spec != nil
}

// Response is the text shown to the user: the analysis, followed by the chart
// description when a chart was produced
func (r *Result) Response() string {
	text := ""
	if r.Analysis != nil {
		text = r.Analysis.Text
	}

	if r.Spec == nil {
		return text
	}

	if text == "" {
		return "📊 " + r.Spec.Description
	}

	return text + "\n\n📊 " + r.Spec.Description
}

// Engine runs the inference cascade. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	lex        *lexicon.Lexicon
	maxColumns int
	provider   AnalysisProvider
	timeout    time.Duration
	logger     *logging.Logger
	newID      func() string

	profiler  *profile.Profiler
	keyword   *KeywordClassifier
	semantic  *SemanticClassifier
	selector  *ColumnSelector
	validator *Validator
}

// Option configures an Engine
type Option func(*Engine)

// WithLexicon replaces the built-in vocabulary
func WithLexicon(lex *lexicon.Lexicon) Option {
	return func(e *Engine) {
		if lex != nil {
			e.lex = lex
		}
	}
}

// WithMaxColumns caps the number of columns per chart
func WithMaxColumns(n int) Option {
	return func(e *Engine) {
		e.maxColumns = n
	}
}

// WithProvider sets the external analysis provider consulted before local classification
func WithProvider(p AnalysisProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithProviderTimeout bounds each provider call; zero leaves it to the caller's context
func WithProviderTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger sets the logger used for decision tracing
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an engine from options
func New(opts ...Option) *Engine {
	e := &Engine{
		lex:        lexicon.Default(),
		maxColumns: DefaultMaxColumns,
		newID:      uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.GetLogger()
	}

	e.profiler = profile.New(e.lex)
	e.keyword = NewKeywordClassifier(e.lex)
	e.semantic = NewSemanticClassifier(e.lex)
	e.selector = NewColumnSelector(e.maxColumns)
	e.validator = NewValidator(e.maxColumns)

	return e
}

// Profile returns the schema the engine would infer from ds
func (e *Engine) Profile(ds dataset.Dataset) types.DatasetSchema {
	return e.profiler.ProfileDataset(ds)
}

// Infer profiles ds, consults the provider when the query carries no analysis,
// and runs the cascade. A provider failure or timeout is logged and treated as
// "no visualization needed".
func (e *Engine) Infer(ctx context.Context, q Query, ds dataset.Dataset) *Result {
	start := time.Now()
	schema := e.profiler.ProfileDataset(ds)

	analysis := q.Analysis

	var providerErr error
	if analysis == nil && e.provider != nil {
		analysis, providerErr = e.analyze(ctx, q.Question, ds, schema)
	}

	result := e.Decide(q.Question, analysis, schema, ds.ColumnNames())
	result.Duration = time.Since(start)

	if providerErr != nil {
		result.ProviderError = providerErr.Error()
	}

	return result
}

func (e *Engine) analyze(ctx context.Context, question string, ds dataset.Dataset, schema types.DatasetSchema) (*types.Analysis, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	analysis, err := e.provider.Analyze(ctx, question, ds, schema)
	if err != nil {
		e.logger.WithError(err).Warn("analysis provider failed, falling back to local classification")
		return nil, err
	}

	return analysis, nil
}

// Decide runs the cascade without calling any provider. live is the dataset's
// current column set and is authoritative over schema.
func (e *Engine) Decide(question string, analysis *types.Analysis, schema types.DatasetSchema, live []string) *Result {
	result := &Result{
		ID:       e.newID(),
		Question: question,
		Schema:   schema,
		Analysis: analysis,
	}

	var hint *types.VisualizationHint
	if analysis != nil {
		hint = analysis.Visualization
	}

	candidate := Candidate{}
	if hint != nil && hint.Needed {
		candidate.Title = hint.Title
		candidate.Description = hint.Description
	}

	if hint.Actionable() {
		ct, _ := types.ParseChartType(hint.ChartType)
		candidate.ChartType = ct
		candidate.Columns = hint.Columns
		result.Source = SourceExternal
	} else {
		candidate.ChartType, result.Source = e.classify(question, schema)
		candidate.Columns = e.selector.Select(question, candidate.ChartType, schema)
	}

	result.Candidate = candidate.ChartType
	result.Selected = candidate.Columns
	result.Spec = e.validator.Validate(candidate, live, question)

	log := e.logger.WithFields(map[string]interface{}{
		"inference_id": result.ID,
		"source":       result.Source,
		"chart_type":   result.Candidate,
		"columns":      result.Selected,
	})
	if result.Spec == nil {
		log.Debug("no chart producible from live columns")
	} else {
		log.Debug("chart inferred")
	}

	return result
}

func (e *Engine) classify(question string, schema types.DatasetSchema) (types.ChartType, Source) {
	q := lexicon.Normalize(question)

	if ct, ok := e.keyword.Classify(q); ok {
		return ct, SourceKeyword
	}

	return e.semantic.Classify(q, schema)
}
