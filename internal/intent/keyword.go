package intent

import (
	"github.com/kyleking/chart-intent/internal/lexicon"
	"github.com/kyleking/chart-intent/internal/types"
)

// KeywordClassifier maps question text to a chart type through the lexicon's
// ordered keyword rules
type KeywordClassifier struct {
	rules []lexicon.Rule
}

// NewKeywordClassifier returns a classifier over lex's keyword rules
func NewKeywordClassifier(lex *lexicon.Lexicon) *KeywordClassifier {
	return &KeywordClassifier{rules: lex.Keywords}
}

// Classify returns the chart type of the first rule, in declared order, with a
// trigger occurring in the normalized question. Ties go to declaration order,
// not to the number of matching triggers.
func (k *KeywordClassifier) Classify(question string) (types.ChartType, bool) {
	for _, rule := range k.rules {
		if lexicon.ContainsAny(question, rule.Triggers) {
			return rule.ChartType, true
		}
	}

	return types.ChartUndetermined, false
}
