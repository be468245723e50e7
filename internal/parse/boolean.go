package parse

import "github.com/JonMunkholm/tablecheck/internal/schema"

// booleanConverter matches raw values exactly against the configured
// spellings. Empty lists fall back to the defaults.
func booleanConverter(trueValues, falseValues []string) converter {
	if len(trueValues) == 0 {
		trueValues = schema.DefaultTrueValues
	}
	if len(falseValues) == 0 {
		falseValues = schema.DefaultFalseValues
	}
	lookup := make(map[string]bool, len(trueValues)+len(falseValues))
	for _, v := range falseValues {
		lookup[v] = false
	}
	for _, v := range trueValues {
		lookup[v] = true
	}
	return func(s string) (any, bool) {
		b, ok := lookup[s]
		return b, ok
	}
}
