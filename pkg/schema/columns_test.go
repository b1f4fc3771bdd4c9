package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSortColumns_StableOnTies(t *testing.T) {
	columns := []ColumnDefinition{
		{ID: "c3", SequenceNo: 2},
		{ID: "c1", SequenceNo: 1},
		{ID: "c4", SequenceNo: 2},
		{ID: "c2", SequenceNo: 1},
	}

	sorted := SortColumns(columns)

	var ids []string
	for _, col := range sorted {
		ids = append(ids, col.ID)
	}
	// Ties keep fetch order: c3 before c4, c1 before c2.
	want := []string{"c1", "c2", "c3", "c4"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("sorted order mismatch (-want +got):\n%s", diff)
	}

	if columns[0].ID != "c3" {
		t.Fatal("SortColumns mutated its input")
	}
}

func TestMergeValidationRules(t *testing.T) {
	columns := []ColumnDefinition{
		{ID: "email", ValidationRule: ""},
		{ID: "phone", ValidationRule: "Numeric"},
		{ID: "name"},
	}
	bindings := []ValidationBinding{
		{ColumnID: "email", Rule: "Email"},
		{ColumnID: "phone", Rule: "Mobile"},
		{ColumnID: "ghost", Rule: "Alphabet"},
		{ColumnID: "", Rule: "Email"},
		{ColumnID: "name", Rule: ""},
	}

	merged := MergeValidationRules(columns, bindings)

	want := []ColumnDefinition{
		{ID: "email", ValidationRule: "Email"},
		{ID: "phone", ValidationRule: "Mobile"},
		{ID: "name"},
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged columns mismatch (-want +got):\n%s", diff)
	}
}

func TestFormValues_Toggle(t *testing.T) {
	values := FormValues{}

	values.Toggle("c1", "X")
	values.Toggle("c1", "Y")
	if diff := cmp.Diff([]string{"X", "Y"}, values["c1"].Labels()); diff != "" {
		t.Fatalf("labels after add mismatch (-want +got):\n%s", diff)
	}

	values.Toggle("c1", "X")
	if diff := cmp.Diff([]string{"Y"}, values["c1"].Labels()); diff != "" {
		t.Fatalf("labels after remove mismatch (-want +got):\n%s", diff)
	}

	values.Toggle("c1", "Y")
	if !values["c1"].IsEmpty() {
		t.Fatal("expected empty selection after removing the last label")
	}
}

func TestValue_IsEmpty(t *testing.T) {
	cases := []struct {
		name  string
		value Value
		empty bool
	}{
		{"zero value", Value{}, true},
		{"blank text", Text(""), true},
		{"text", Text("hello"), false},
		{"no selections", Selections(), true},
		{"selections", Selections("A"), false},
		{"empty attachment", Binary(Attachment{Filename: "a.png"}), true},
		{"attachment", Binary(Attachment{Filename: "a.png", Data: []byte{1}}), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.value.IsEmpty(); got != tc.empty {
				t.Fatalf("IsEmpty() = %v, want %v", got, tc.empty)
			}
		})
	}
}
