// Package submit assembles and dispatches submission payloads: one multipart
// request carrying the form identity plus a part per answered column, with
// binary columns embedded as file parts.
package submit

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/google/uuid"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Part is one entry of the multipart body. File is set for binary columns;
// everything else travels as a text part.
type Part struct {
	Name  string
	Value string
	File  *schema.Attachment
}

// Payload is the wire representation assembled at submit time. Reference is
// a client-generated UUID carried with the request so a user-initiated
// re-submit after a transport failure can be correlated server-side.
type Payload struct {
	FormID    string
	Reference string
	Parts     []Part
}

// Build assembles a payload from the session's value map. Columns appear in
// schema order, one part per populated value; untouched columns are omitted.
// Multi-select values emit repeated parts under the same key. On the update
// path boolean columns are coerced to the backend's canonical "1"/"0" text
// form.
func Build(formID string, columns []schema.ColumnDefinition, values schema.FormValues, forUpdate bool) *Payload {
	payload := &Payload{
		FormID:    formID,
		Reference: uuid.NewString(),
	}

	for _, column := range columns {
		value, ok := values[column.ID]
		if !ok {
			continue
		}
		switch value.Kind() {
		case schema.ValueKindSelections:
			for _, label := range value.Labels() {
				payload.Parts = append(payload.Parts, Part{Name: column.ID, Value: label})
			}
		case schema.ValueKindBinary:
			att, ok := value.Attachment()
			if !ok {
				continue
			}
			payload.Parts = append(payload.Parts, Part{Name: column.ID, File: &att})
		default:
			text := value.String()
			if forUpdate && column.DataType == schema.DataTypeBoolean {
				text = coerceBool(text)
			}
			payload.Parts = append(payload.Parts, Part{Name: column.ID, Value: text})
		}
	}
	return payload
}

// Encode writes the payload as a multipart body. The form identity and
// client reference always lead the body.
func (p *Payload) Encode(w io.Writer) (contentType string, err error) {
	mw := multipart.NewWriter(w)

	if err := mw.WriteField("formId", p.FormID); err != nil {
		return "", fmt.Errorf("submit: write formId: %w", err)
	}
	if p.Reference != "" {
		if err := mw.WriteField("clientRef", p.Reference); err != nil {
			return "", fmt.Errorf("submit: write clientRef: %w", err)
		}
	}

	for _, part := range p.Parts {
		if part.File != nil {
			fw, err := mw.CreateFormFile(part.Name, part.File.Filename)
			if err != nil {
				return "", fmt.Errorf("submit: create file part %q: %w", part.Name, err)
			}
			if _, err := fw.Write(part.File.Data); err != nil {
				return "", fmt.Errorf("submit: write file part %q: %w", part.Name, err)
			}
			continue
		}
		if err := mw.WriteField(part.Name, part.Value); err != nil {
			return "", fmt.Errorf("submit: write part %q: %w", part.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("submit: close multipart body: %w", err)
	}
	return mw.FormDataContentType(), nil
}

func coerceBool(raw string) string {
	switch raw {
	case "1", "true", "True", "on", "yes":
		return "1"
	default:
		return "0"
	}
}
