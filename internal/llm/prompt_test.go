package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysis(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		a := ParseAnalysis(structuredReply)

		assert.True(t, a.Structured)
		assert.Equal(t, "Tools sell the most.", a.Text)
		assert.Equal(t, "bar", a.Visualization.ChartType)
		assert.Equal(t, "Sales by category", a.Visualization.Title)
	})

	t.Run("bare json without visualization", func(t *testing.T) {
		a := ParseAnalysis(`{"analysis": "ok"}`)

		assert.True(t, a.Structured)
		require.NotNil(t, a.Visualization)
		assert.False(t, a.Visualization.Needed)
	})

	t.Run("json without analysis keeps raw text", func(t *testing.T) {
		raw := `{"visualization": {"needed": false}}`
		a := ParseAnalysis(raw)

		assert.True(t, a.Structured)
		assert.Equal(t, raw, a.Text)
	})

	t.Run("malformed json", func(t *testing.T) {
		a := ParseAnalysis("```json\n{\"analysis\": \"cut off\n```")

		assert.False(t, a.Structured)
		assert.False(t, a.Visualization.Needed)
		assert.Contains(t, a.Text, "cut off")
	})

	t.Run("plain text", func(t *testing.T) {
		a := ParseAnalysis("  Sales grew 10% in March.  ")

		assert.False(t, a.Structured)
		assert.Equal(t, "Sales grew 10% in March.", a.Text)
	})
}

func TestParseAnalysisConvertsHTML(t *testing.T) {
	a := ParseAnalysis(`{"analysis": "<p>Sales are <strong>up</strong>.</p>"}`)

	assert.Equal(t, "Sales are **up**.", a.Text)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(` {"a":1} `))
}

func TestFormatDataContext(t *testing.T) {
	out := formatDataContext(testDataContext())

	assert.Contains(t, out, "- Name: sales.csv")
	assert.Contains(t, out, "- Shape: 4 rows x 3 columns")
	assert.Contains(t, out, "- Temporal columns: date")
	assert.Contains(t, out, "- Column types: date=date, category=text, sales=float")
	assert.Contains(t, out, "- Missing values: sales=1")

	empty := formatDataContext(DataContext{})
	assert.Contains(t, empty, "- Missing values: none")
	assert.NotContains(t, empty, "Temporal")
}
