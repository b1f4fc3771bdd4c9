package schema

import "time"

// DataType is the closed enumeration of column kinds a form version can
// carry. Incoming payloads use loose string tags; ParseDataType maps them
// onto this enum so unrecognised tags become a traceable fallback instead of
// silently behaving like text.
type DataType string

const (
	DataTypeText      DataType = "text"
	DataTypeNumber    DataType = "number"
	DataTypeDecimal   DataType = "decimal"
	DataTypeDate      DataType = "date"
	DataTypeDatetime  DataType = "datetime"
	DataTypeTextarea  DataType = "textarea"
	DataTypeSelect    DataType = "select"
	DataTypeRadio     DataType = "radio"
	DataTypeCheckbox  DataType = "checkbox"
	DataTypeBoolean   DataType = "boolean"
	DataTypeFile      DataType = "file"
	DataTypePhoto     DataType = "photo"
	DataTypeHeading1  DataType = "h1"
	DataTypeHeading2  DataType = "h2"
	DataTypeHeading3  DataType = "h3"
	DataTypeHeading4  DataType = "h4"
	DataTypeHeading5  DataType = "h5"
	DataTypeHeading6  DataType = "h6"
	DataTypeParagraph DataType = "p"
)

// InputClass groups data types by the shape of value they collect.
type InputClass string

const (
	// InputScalar collects a single string value.
	InputScalar InputClass = "scalar"
	// InputMultiSelect collects an ordered sequence of option labels.
	InputMultiSelect InputClass = "multi-select"
	// InputBinary collects an uploaded attachment.
	InputBinary InputClass = "binary"
	// InputStatic renders content but collects nothing (headings, paragraphs).
	InputStatic InputClass = "static"
)

// ColumnDefinition is one configured field of a form version. Definitions are
// produced by the external form-configuration workflow and are immutable for
// the duration of a filling session.
type ColumnDefinition struct {
	ID             string   `json:"colId" yaml:"colId"`
	Name           string   `json:"columnName" yaml:"columnName"`
	DataType       DataType `json:"dataType" yaml:"dataType"`
	SequenceNo     int      `json:"sequenceNo" yaml:"sequenceNo"`
	Mandatory      bool     `json:"isMandatory" yaml:"isMandatory"`
	ReadOnly       bool     `json:"isReadOnly,omitempty" yaml:"isReadOnly,omitempty"`
	ValidationRule string   `json:"validationRule,omitempty" yaml:"validationRule,omitempty"`
}

// FormVersion identifies one revision of a form's column layout plus the
// submission gating metadata the catalog returns alongside it. Fee is the
// submission fee in minor currency units; zero means the form submits without
// a payment step. A zero RegistrationEnd means the window never closes.
type FormVersion struct {
	FormID          string             `json:"formId" yaml:"formId"`
	FormNo          int                `json:"formNo" yaml:"formNo"`
	Title           string             `json:"title,omitempty" yaml:"title,omitempty"`
	Banner          string             `json:"banner,omitempty" yaml:"banner,omitempty"`
	Fee             int64              `json:"fee,omitempty" yaml:"fee,omitempty"`
	RegistrationEnd time.Time          `json:"registrationEnd,omitempty" yaml:"registrationEnd,omitempty"`
	Columns         []ColumnDefinition `json:"columns" yaml:"columns"`
}

// Open reports whether the registration window is still open at the supplied
// instant.
func (v FormVersion) Open(now time.Time) bool {
	if v.RegistrationEnd.IsZero() {
		return true
	}
	return now.Before(v.RegistrationEnd)
}

// Column returns the definition with the given ID.
func (v FormVersion) Column(id string) (ColumnDefinition, bool) {
	for _, col := range v.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return ColumnDefinition{}, false
}

// OptionSet holds the selectable labels for one select/radio/checkbox column.
// Insertion order is display order.
type OptionSet struct {
	ColumnID string   `json:"colId" yaml:"colId"`
	FormID   string   `json:"formId" yaml:"formId"`
	Labels   []string `json:"labels" yaml:"labels"`
}
