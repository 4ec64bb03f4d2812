package types

import "slices"

// ValueKind is the storage type of a column as declared by the source or inferred from a sample
type ValueKind string

const (
	KindInteger   ValueKind = "integer"
	KindFloat     ValueKind = "float"
	KindBoolean   ValueKind = "boolean"
	KindDate      ValueKind = "date"
	KindTimestamp ValueKind = "timestamp"
	KindText      ValueKind = "text"
)

// Numeric reports whether the kind holds numbers
func (k ValueKind) Numeric() bool {
	return k == KindInteger || k == KindFloat
}

// Temporal reports whether the kind holds dates or times
func (k ValueKind) Temporal() bool {
	return k == KindDate || k == KindTimestamp
}

// ColumnInfo describes a single column of a dataset
type ColumnInfo struct {
	Name string    `json:"name"`
	Kind ValueKind `json:"kind"`
}

// DatasetSchema is the typed view of a dataset's columns used by the inference cascade.
// Every name in Numeric, Categorical and Temporal appears in Columns, the three
// lists are disjoint, and each preserves declared column order.
type DatasetSchema struct {
	Columns     []string `json:"columns"`
	Numeric     []string `json:"numeric_columns"`
	Categorical []string `json:"categorical_columns"`
	Temporal    []string `json:"temporal_columns"`
}

// Has reports whether name is a column of the schema
func (s DatasetSchema) Has(name string) bool {
	return slices.Contains(s.Columns, name)
}

// IsNumeric reports whether name was profiled as numeric
func (s DatasetSchema) IsNumeric(name string) bool {
	return slices.Contains(s.Numeric, name)
}

// IsCategorical reports whether name was profiled as categorical
func (s DatasetSchema) IsCategorical(name string) bool {
	return slices.Contains(s.Categorical, name)
}

// IsTemporal reports whether name was profiled as temporal
func (s DatasetSchema) IsTemporal(name string) bool {
	return slices.Contains(s.Temporal, name)
}
