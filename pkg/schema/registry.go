package schema

import "strings"

// dataTypeAliases maps the loose tags accepted on the wire onto the canonical
// enum. The catalog backend historically emitted several spellings for the
// numeric and boolean kinds.
var dataTypeAliases = map[string]DataType{
	"text":     DataTypeText,
	"number":   DataTypeNumber,
	"int":      DataTypeNumber,
	"integer":  DataTypeNumber,
	"decimal":  DataTypeDecimal,
	"date":     DataTypeDate,
	"datetime": DataTypeDatetime,
	"textarea": DataTypeTextarea,
	"select":   DataTypeSelect,
	"radio":    DataTypeRadio,
	"checkbox": DataTypeCheckbox,
	"boolean":  DataTypeBoolean,
	"flg":      DataTypeBoolean,
	"file":     DataTypeFile,
	"photo":    DataTypePhoto,
	"h1":       DataTypeHeading1,
	"h2":       DataTypeHeading2,
	"h3":       DataTypeHeading3,
	"h4":       DataTypeHeading4,
	"h5":       DataTypeHeading5,
	"h6":       DataTypeHeading6,
	"p":        DataTypeParagraph,
}

// ParseDataType resolves a wire tag into the canonical DataType. Unrecognised
// tags fall back to DataTypeText with ok=false so callers can trace the
// fallback instead of treating it as a plain text column by accident.
func ParseDataType(raw string) (DataType, bool) {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if dt, ok := dataTypeAliases[tag]; ok {
		return dt, true
	}
	return DataTypeText, false
}

// Class reports the input shape a data type collects.
func (t DataType) Class() InputClass {
	switch t {
	case DataTypeText, DataTypeNumber, DataTypeDecimal, DataTypeDate,
		DataTypeDatetime, DataTypeTextarea, DataTypeSelect, DataTypeRadio,
		DataTypeBoolean:
		return InputScalar
	case DataTypeCheckbox:
		return InputMultiSelect
	case DataTypeFile, DataTypePhoto:
		return InputBinary
	case DataTypeHeading1, DataTypeHeading2, DataTypeHeading3,
		DataTypeHeading4, DataTypeHeading5, DataTypeHeading6, DataTypeParagraph:
		return InputStatic
	default:
		return InputScalar
	}
}

// HasOptions reports whether the type draws its values from a per-column
// option set.
func (t DataType) HasOptions() bool {
	switch t {
	case DataTypeSelect, DataTypeRadio, DataTypeCheckbox:
		return true
	default:
		return false
	}
}

// HeadingLevel returns 1..6 for heading types and 0 otherwise.
func (t DataType) HeadingLevel() int {
	switch t {
	case DataTypeHeading1:
		return 1
	case DataTypeHeading2:
		return 2
	case DataTypeHeading3:
		return 3
	case DataTypeHeading4:
		return 4
	case DataTypeHeading5:
		return 5
	case DataTypeHeading6:
		return 6
	default:
		return 0
	}
}
