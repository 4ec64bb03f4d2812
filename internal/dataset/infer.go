package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/kyleking/chart-intent/internal/types"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2006-01",
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"02.01.2006 15:04:05",
}

// InferKind picks the most specific kind every non-empty value satisfies.
// Columns with no non-empty values are text.
func InferKind(values []string) types.ValueKind {
	seen := false
	allInt, allFloat, allBool, allDate, allTS := true, true, true, true, true

	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}

		seen = true

		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}

		if allFloat {
			if _, ok := ParseNumber(v); !ok {
				allFloat = false
			}
		}

		if allBool {
			if _, ok := parseBoolLoose(v); !ok {
				allBool = false
			}
		}

		if allDate {
			if !matchesLayout(v, dateLayouts) {
				allDate = false
			}
		}

		if allTS {
			if !matchesLayout(v, timestampLayouts) {
				allTS = false
			}
		}

		if !allInt && !allFloat && !allBool && !allDate && !allTS {
			return types.KindText
		}
	}

	switch {
	case !seen:
		return types.KindText
	case allInt:
		return types.KindInteger
	case allBool:
		return types.KindBoolean
	case allDate:
		return types.KindDate
	case allTS:
		return types.KindTimestamp
	case allFloat:
		return types.KindFloat
	default:
		return types.KindText
	}
}

// ParseNumber parses a decimal value, tolerating thousands separators
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "yes", "y":
		return true, true
	case "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

func matchesLayout(s string, layouts []string) bool {
	for _, layout := range layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}

	return false
}

// KindFromSQL maps a declared SQL column type onto a ValueKind
func KindFromSQL(sqlType string) types.ValueKind {
	t := strings.ToUpper(strings.TrimSpace(sqlType))

	switch {
	case t == "INTERVAL":
		return types.KindText
	case strings.HasPrefix(t, "TIMESTAMP"), strings.HasPrefix(t, "DATETIME"), t == "TIME":
		return types.KindTimestamp
	case t == "DATE":
		return types.KindDate
	case t == "BOOLEAN", t == "BOOL":
		return types.KindBoolean
	case strings.Contains(t, "INT"):
		return types.KindInteger
	case strings.HasPrefix(t, "DECIMAL"), strings.HasPrefix(t, "NUMERIC"),
		t == "DOUBLE", t == "FLOAT", t == "REAL":
		return types.KindFloat
	default:
		return types.KindText
	}
}
