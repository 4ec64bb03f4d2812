package intent

import (
	"github.com/kyleking/chart-intent/internal/lexicon"
	"github.com/kyleking/chart-intent/internal/types"
)

// SemanticClassifier is the fallback used when no keyword rule matched. It
// always resolves to a concrete chart type.
type SemanticClassifier struct {
	comparison []string
	trend      []string
}

// NewSemanticClassifier returns a classifier over lex's phrase sets
func NewSemanticClassifier(lex *lexicon.Lexicon) *SemanticClassifier {
	return &SemanticClassifier{
		comparison: lex.ComparisonPhrases,
		trend:      lex.TrendPhrases,
	}
}

// ClassifyPhrase looks for comparison phrasing (bar) and then trend phrasing (line)
func (s *SemanticClassifier) ClassifyPhrase(question string) (types.ChartType, bool) {
	switch {
	case lexicon.ContainsAny(question, s.comparison):
		return types.ChartBar, true
	case lexicon.ContainsAny(question, s.trend):
		return types.ChartLine, true
	default:
		return types.ChartUndetermined, false
	}
}

// ClassifyShape picks a chart type from the numeric column count alone. The
// boolean is false when the bar default was used.
func ClassifyShape(schema types.DatasetSchema) (types.ChartType, bool) {
	switch n := len(schema.Numeric); {
	case n >= 2:
		return types.ChartScatter, true
	case n == 1:
		return types.ChartHistogram, true
	default:
		return types.ChartBar, false
	}
}

// Classify runs the phrase tier then the schema-shape tier and reports which decided
func (s *SemanticClassifier) Classify(question string, schema types.DatasetSchema) (types.ChartType, Source) {
	if ct, ok := s.ClassifyPhrase(question); ok {
		return ct, SourcePhrase
	}

	if ct, ok := ClassifyShape(schema); ok {
		return ct, SourceSchemaShape
	}

	return types.ChartBar, SourceDefault
}
