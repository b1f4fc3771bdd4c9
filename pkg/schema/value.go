package schema

// Attachment is the opaque binary handle collected for file and photo
// columns.
type Attachment struct {
	Filename string
	Data     []byte
}

// Size returns the attachment length in bytes.
func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

// ValueKind discriminates the Value union.
type ValueKind string

const (
	ValueKindText       ValueKind = "text"
	ValueKindSelections ValueKind = "selections"
	ValueKindBinary     ValueKind = "binary"
)

// Value is the tagged union a column can hold during a filling session:
// a scalar string, an ordered sequence of selected option labels, or an
// attachment. The zero Value is an empty text value.
type Value struct {
	kind       ValueKind
	text       string
	selections []string
	attachment *Attachment
}

// Text wraps a scalar string value.
func Text(s string) Value {
	return Value{kind: ValueKindText, text: s}
}

// Selections wraps an ordered sequence of selected labels. The slice is
// copied so callers cannot mutate the stored value.
func Selections(labels ...string) Value {
	return Value{kind: ValueKindSelections, selections: append([]string(nil), labels...)}
}

// Binary wraps an attachment.
func Binary(att Attachment) Value {
	return Value{kind: ValueKindBinary, attachment: &att}
}

// Kind reports which arm of the union is populated.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return ValueKindText
	}
	return v.kind
}

// String returns the scalar arm, or "" for other kinds.
func (v Value) String() string {
	return v.text
}

// Labels returns a copy of the selection arm.
func (v Value) Labels() []string {
	if len(v.selections) == 0 {
		return nil
	}
	return append([]string(nil), v.selections...)
}

// Attachment returns the binary arm.
func (v Value) Attachment() (Attachment, bool) {
	if v.attachment == nil {
		return Attachment{}, false
	}
	return *v.attachment, true
}

// IsEmpty reports whether the value counts as unset for validation purposes:
// an empty string, an empty selection sequence, or a missing attachment.
func (v Value) IsEmpty() bool {
	switch v.Kind() {
	case ValueKindSelections:
		return len(v.selections) == 0
	case ValueKindBinary:
		return v.attachment == nil || len(v.attachment.Data) == 0
	default:
		return v.text == ""
	}
}

// withToggled returns the value with label added when absent or removed when
// present, preserving the order of the remaining labels.
func (v Value) withToggled(label string) Value {
	out := make([]string, 0, len(v.selections)+1)
	removed := false
	for _, existing := range v.selections {
		if existing == label {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	if !removed {
		out = append(out, label)
	}
	return Value{kind: ValueKindSelections, selections: out}
}

// FormValues is the live edit state of one filling session: one entry per
// column that has been touched, keyed by column ID. It is owned exclusively
// by the session that created it.
type FormValues map[string]Value

// SetText records a scalar value for a column.
func (fv FormValues) SetText(columnID, text string) {
	fv[columnID] = Text(text)
}

// Toggle adds the label to the column's selection sequence when absent and
// removes it when present.
func (fv FormValues) Toggle(columnID, label string) {
	fv[columnID] = fv[columnID].withToggled(label)
}

// SetAttachment records an uploaded attachment for a column.
func (fv FormValues) SetAttachment(columnID string, att Attachment) {
	fv[columnID] = Binary(att)
}

// Delete removes the column's entry entirely, returning it to the untouched
// state.
func (fv FormValues) Delete(columnID string) {
	delete(fv, columnID)
}

// Clone returns an independent copy of the value map.
func (fv FormValues) Clone() FormValues {
	out := make(FormValues, len(fv))
	for id, value := range fv {
		out[id] = value
	}
	return out
}
