// Package testutil provides common constants and utilities for tests
package testutil

import "time"

const (
	// TestTimeout is the default timeout for test operations
	TestTimeout = 30 * time.Second

	// ShortTestTimeout is a shorter timeout for quick operations
	ShortTestTimeout = 5 * time.Second

	// PropertyIterations is how many random schemas property tests draw
	PropertyIterations = 200

	// PropertySeed keeps property tests reproducible
	PropertySeed = 20241015
)

// SalesCSV is a small dataset with a temporal, a categorical and two numeric columns
const SalesCSV = `date,category,sales,orders
2024-01-01,tools,120.5,3
2024-01-02,toys,80,2
2024-01-03,tools,200.25,5
2024-01-04,garden,55,1
`

// PeopleCSV has two numeric and two categorical columns and no temporal column
const PeopleCSV = `age,income,gender,city
34,52000,f,Berlin
41,61000,m,Paris
29,48000,f,Madrid
`
