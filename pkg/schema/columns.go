package schema

import "sort"

// ValidationBinding pairs a column ID with the named validation rule the
// catalog configured for it.
type ValidationBinding struct {
	ColumnID string
	Rule     string
}

// SortColumns orders definitions ascending by SequenceNo. The sort is stable:
// columns sharing a sequence number keep the order the catalog returned them
// in, which is the only ordering guarantee the backend provides for ties.
func SortColumns(columns []ColumnDefinition) []ColumnDefinition {
	out := append([]ColumnDefinition(nil), columns...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SequenceNo < out[j].SequenceNo
	})
	return out
}

// MergeValidationRules copies the configured rule names onto their matching
// columns by ID. Bindings without a matching column are ignored; columns
// without a binding keep their existing rule.
func MergeValidationRules(columns []ColumnDefinition, bindings []ValidationBinding) []ColumnDefinition {
	if len(bindings) == 0 {
		return columns
	}
	byID := make(map[string]string, len(bindings))
	for _, b := range bindings {
		if b.ColumnID == "" || b.Rule == "" {
			continue
		}
		byID[b.ColumnID] = b.Rule
	}
	out := append([]ColumnDefinition(nil), columns...)
	for i := range out {
		if rule, ok := byID[out[i].ID]; ok {
			out[i].ValidationRule = rule
		}
	}
	return out
}
