package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/lexicon"
	"github.com/kyleking/chart-intent/internal/types"
)

func TestProfilePriority(t *testing.T) {
	schema := New(nil).Profile([]types.ColumnInfo{
		{Name: "order_date", Kind: types.KindText},
		{Name: "region", Kind: types.KindText},
		{Name: "sales", Kind: types.KindFloat},
		{Name: "shipped", Kind: types.KindTimestamp},
		{Name: "runtime_ms", Kind: types.KindInteger},
		{Name: "is_member", Kind: types.KindBoolean},
		{Name: "qty", Kind: types.KindInteger},
	})

	assert.Equal(t, []string{"order_date", "region", "sales", "shipped", "runtime_ms", "is_member", "qty"}, schema.Columns)
	assert.Equal(t, []string{"order_date", "shipped", "runtime_ms"}, schema.Temporal)
	assert.Equal(t, []string{"sales", "qty"}, schema.Numeric)
	assert.Equal(t, []string{"region", "is_member"}, schema.Categorical)
}

func TestProfileCJKNames(t *testing.T) {
	schema := New(nil).Profile([]types.ColumnInfo{
		{Name: "下单日期", Kind: types.KindText},
		{Name: "地区", Kind: types.KindText},
		{Name: "销售额", Kind: types.KindFloat},
	})

	assert.Equal(t, []string{"下单日期"}, schema.Temporal)
	assert.Equal(t, []string{"地区"}, schema.Categorical)
	assert.Equal(t, []string{"销售额"}, schema.Numeric)
}

func TestProfileCustomLexicon(t *testing.T) {
	lex := lexicon.Default()
	lex.TemporalTokens = []string{"fecha"}

	schema := New(lex).Profile([]types.ColumnInfo{
		{Name: "fecha_venta", Kind: types.KindText},
		{Name: "date_label", Kind: types.KindText},
	})

	assert.Equal(t, []string{"fecha_venta"}, schema.Temporal)
	assert.Equal(t, []string{"date_label"}, schema.Categorical)
}

func TestProfileEmpty(t *testing.T) {
	schema := New(nil).Profile(nil)

	assert.Empty(t, schema.Columns)
	assert.NotNil(t, schema.Numeric)
	assert.NotNil(t, schema.Categorical)
	assert.NotNil(t, schema.Temporal)
}

func TestProfileDatasetPartitionsColumns(t *testing.T) {
	frame, err := dataset.NewFrame("t", []string{"date", "category", "price", "stock"}, [][]string{
		{"2024-01-01", "tools", "9.99", "3"},
		{"2024-01-02", "toys", "4.50", "10"},
	})
	require.NoError(t, err)

	schema := New(nil).ProfileDataset(frame)

	assert.Equal(t, []string{"date"}, schema.Temporal)
	assert.Equal(t, []string{"category"}, schema.Categorical)
	assert.Equal(t, []string{"price", "stock"}, schema.Numeric)

	total := len(schema.Temporal) + len(schema.Numeric) + len(schema.Categorical)
	assert.Equal(t, len(schema.Columns), total)
}
