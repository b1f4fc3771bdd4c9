package validation

import "github.com/goliatone/go-formflow/pkg/schema"

// ErrorMap holds the per-column messages produced by one submit attempt,
// keyed by column ID. Maps are replaced wholesale on every evaluation —
// callers never patch an existing map, so stale entries cannot survive a
// re-validation.
type ErrorMap map[string]string

// EvaluateAll runs Evaluate over every column in sequence order and returns a
// fresh map holding only the columns that failed. Static columns (headings,
// paragraphs) are skipped.
func EvaluateAll(columns []schema.ColumnDefinition, values schema.FormValues) ErrorMap {
	out := make(ErrorMap)
	for _, column := range columns {
		if column.DataType.Class() == schema.InputStatic {
			continue
		}
		value, present := values[column.ID]
		if msg := Evaluate(column, value, present); msg != "" {
			out[column.ID] = msg
		}
	}
	return out
}

// Empty reports whether the map carries no errors.
func (m ErrorMap) Empty() bool {
	return len(m) == 0
}

// Clone returns an independent copy so sessions can hand the map out without
// exposing their internal state to mutation.
func (m ErrorMap) Clone() ErrorMap {
	if m == nil {
		return nil
	}
	out := make(ErrorMap, len(m))
	for id, msg := range m {
		out[id] = msg
	}
	return out
}
