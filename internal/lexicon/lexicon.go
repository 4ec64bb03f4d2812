// Package lexicon holds the trigger vocabularies used to map question text and
// column names onto chart types. The vocabularies are data, so they can be
// replaced from a JSON file to add languages without touching the classifiers.
package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kyleking/chart-intent/internal/errors"
	"github.com/kyleking/chart-intent/internal/types"
)

// Rule binds a chart type to the terms that select it
type Rule struct {
	ChartType types.ChartType `json:"chart_type"`
	Triggers  []string        `json:"triggers"`
}

// Lexicon is the full vocabulary consulted by the classifiers. Keyword rules
// are evaluated in slice order and the first rule with a matching trigger wins.
type Lexicon struct {
	Keywords          []Rule   `json:"keywords"`
	ComparisonPhrases []string `json:"comparison_phrases"`
	TrendPhrases      []string `json:"trend_phrases"`
	TemporalTokens    []string `json:"temporal_tokens"`
}

// Default returns the built-in English and Chinese vocabulary. A trigger that
// contains an earlier rule's trigger never fires: 相关性矩阵 always reaches
// scatter through 相关. Custom lexicons can reorder the rules to change that.
func Default() *Lexicon {
	return &Lexicon{
		Keywords: []Rule{
			{types.ChartHistogram, []string{"分布", "直方图", "histogram", "频率", "distribution", "frequency"}},
			{types.ChartScatter, []string{"散点", "相关", "scatter", "关系", "correlation", "relationship"}},
			{types.ChartLine, []string{"折线", "趋势", "line", "时间", "变化"}},
			{types.ChartBar, []string{"柱状", "条形", "bar", "比较", "排名", "最高", "最低", "top"}},
			{types.ChartPie, []string{"饼图", "pie", "占比", "比例", "份额", "proportion", "share", "percentage"}},
			{types.ChartBox, []string{"箱线", "box", "异常", "分位", "outlier", "quartile"}},
			{types.ChartHeatmap, []string{"热力", "heatmap", "相关性矩阵"}},
		},
		ComparisonPhrases: []string{"highest", "lowest", "top", "ranking", "compare", "最高", "最低", "排名", "比较"},
		TrendPhrases:      []string{"trend", "change", "over time", "趋势", "变化", "时间"},
		TemporalTokens:    []string{"date", "time", "时间", "日期"},
	}
}

// Load reads a lexicon from a JSON file. Sections absent from the file keep
// their default vocabulary.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeConfig, "failed to read lexicon %s", path)
	}

	var fromFile Lexicon
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeConfig, "failed to parse lexicon %s", path).
			WithSuggestion("The lexicon file must be a JSON object with keywords, comparison_phrases, trend_phrases and temporal_tokens")
	}

	lex := Default()
	if fromFile.Keywords != nil {
		lex.Keywords = fromFile.Keywords
	}

	if fromFile.ComparisonPhrases != nil {
		lex.ComparisonPhrases = fromFile.ComparisonPhrases
	}

	if fromFile.TrendPhrases != nil {
		lex.TrendPhrases = fromFile.TrendPhrases
	}

	if fromFile.TemporalTokens != nil {
		lex.TemporalTokens = fromFile.TemporalTokens
	}

	if err := lex.Validate(); err != nil {
		return nil, err
	}

	return lex.normalized(), nil
}

// LoadOrDefault loads path when set and falls back to Default otherwise
func LoadOrDefault(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

// Validate checks that every rule names a known chart type, appears once and has triggers
func (l *Lexicon) Validate() error {
	seen := make(map[types.ChartType]bool, len(l.Keywords))

	for i, rule := range l.Keywords {
		if !rule.ChartType.Valid() {
			return errors.NewConfigError(
				fmt.Sprintf("keyword rule %d has unknown chart type %q", i, rule.ChartType),
				"keywords",
			)
		}

		if seen[rule.ChartType] {
			return errors.NewConfigError(
				fmt.Sprintf("chart type %s declared more than once", rule.ChartType),
				"keywords",
			)
		}

		seen[rule.ChartType] = true

		if len(nonEmpty(rule.Triggers)) == 0 {
			return errors.NewConfigError(
				fmt.Sprintf("chart type %s has no triggers", rule.ChartType),
				"keywords",
			)
		}
	}

	if len(nonEmpty(l.TemporalTokens)) == 0 {
		return errors.NewConfigError("at least one temporal token is required", "temporal_tokens")
	}

	return nil
}

func (l *Lexicon) normalized() *Lexicon {
	out := &Lexicon{
		Keywords:          make([]Rule, 0, len(l.Keywords)),
		ComparisonPhrases: normalizeAll(l.ComparisonPhrases),
		TrendPhrases:      normalizeAll(l.TrendPhrases),
		TemporalTokens:    normalizeAll(l.TemporalTokens),
	}

	for _, rule := range l.Keywords {
		out.Keywords = append(out.Keywords, Rule{
			ChartType: rule.ChartType,
			Triggers:  normalizeAll(rule.Triggers),
		})
	}

	return out
}

// IsTemporalName reports whether a column name looks like it holds dates or times
func (l *Lexicon) IsTemporalName(name string) bool {
	return ContainsAny(Normalize(name), l.TemporalTokens)
}

// Normalize lower-cases text with Unicode-aware case folding so Latin terms
// match regardless of case while CJK text passes through unchanged
func Normalize(s string) string {
	return cases.Lower(language.Und).String(s)
}

// ContainsAny reports whether any term occurs as a substring of text. Both
// sides are expected to be normalized already.
func ContainsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}

	return false
}

func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range nonEmpty(terms) {
		out = append(out, Normalize(t))
	}

	return out
}

func nonEmpty(terms []string) []string {
	out := make([]string, 0, len(terms))

	for _, t := range terms {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}

	return out
}
