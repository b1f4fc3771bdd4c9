// Package export renders a form version as an OpenAPI 3 document describing
// its submission endpoint, so configured forms interoperate with
// OpenAPI-driven tooling (generators, linters, mock servers).
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Options controls document generation.
type Options struct {
	// Title overrides the document title; defaults to the version title or
	// the form ID.
	Title string
	// Validate runs kin-openapi validation on the produced document.
	Validate bool
}

// Document builds an OpenAPI 3 description of the version's submission
// endpoint. Input columns become multipart request-body properties; mandatory
// columns populate the required list; option-bearing columns carry their
// resolved labels as enums; uploads become binary strings. Static columns
// are omitted.
func Document(ctx context.Context, version schema.FormVersion, options map[string]schema.OptionSet, opts Options) (*openapi3.T, error) {
	if version.FormID == "" {
		return nil, errors.New("export: form id is required")
	}

	title := opts.Title
	if title == "" {
		title = version.Title
	}
	if title == "" {
		title = version.FormID
	}

	body, err := requestSchema(version, options)
	if err != nil {
		return nil, err
	}

	operation := &openapi3.Operation{
		OperationID: "submitForm",
		Summary:     "Submit " + title,
		RequestBody: &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content: openapi3.Content{
					"multipart/form-data": &openapi3.MediaType{
						Schema: openapi3.NewSchemaRef("", body),
					},
				},
			},
		},
		Responses: submissionResponses(),
	}

	paths := openapi3.NewPaths()
	paths.Set(fmt.Sprintf("/forms/%s/submissions", version.FormID), &openapi3.PathItem{Post: operation})

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: fmt.Sprintf("%d", version.FormNo),
		},
		Paths: paths,
	}

	if opts.Validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("export: validate: %w", err)
		}
	}
	return doc, nil
}

func requestSchema(version schema.FormVersion, options map[string]schema.OptionSet) (*openapi3.Schema, error) {
	body := &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{},
	}

	for _, column := range version.Columns {
		if column.DataType.Class() == schema.InputStatic {
			continue
		}
		prop, err := columnSchema(column, options)
		if err != nil {
			return nil, err
		}
		body.Properties[column.ID] = openapi3.NewSchemaRef("", prop)
		if column.Mandatory {
			body.Required = append(body.Required, column.ID)
		}
	}
	return body, nil
}

func columnSchema(column schema.ColumnDefinition, options map[string]schema.OptionSet) (*openapi3.Schema, error) {
	prop := &openapi3.Schema{
		Title: column.Name,
	}

	switch column.DataType {
	case schema.DataTypeNumber:
		prop.Type = &openapi3.Types{openapi3.TypeInteger}
	case schema.DataTypeDecimal:
		prop.Type = &openapi3.Types{openapi3.TypeNumber}
	case schema.DataTypeBoolean:
		prop.Type = &openapi3.Types{openapi3.TypeBoolean}
	case schema.DataTypeDate:
		prop.Type = &openapi3.Types{openapi3.TypeString}
		prop.Format = "date"
	case schema.DataTypeDatetime:
		prop.Type = &openapi3.Types{openapi3.TypeString}
		prop.Format = "date-time"
	case schema.DataTypeFile, schema.DataTypePhoto:
		prop.Type = &openapi3.Types{openapi3.TypeString}
		prop.Format = "binary"
	case schema.DataTypeCheckbox:
		item := &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}}
		item.Enum = enumValues(column.ID, options)
		prop.Type = &openapi3.Types{openapi3.TypeArray}
		prop.Items = openapi3.NewSchemaRef("", item)
	case schema.DataTypeSelect, schema.DataTypeRadio:
		prop.Type = &openapi3.Types{openapi3.TypeString}
		prop.Enum = enumValues(column.ID, options)
	case schema.DataTypeText, schema.DataTypeTextarea:
		prop.Type = &openapi3.Types{openapi3.TypeString}
	default:
		return nil, fmt.Errorf("export: column %s has unmapped data type %q", column.ID, column.DataType)
	}
	return prop, nil
}

func enumValues(columnID string, options map[string]schema.OptionSet) []any {
	set, ok := options[columnID]
	if !ok {
		return nil
	}
	values := make([]any, 0, len(set.Labels))
	for _, label := range set.Labels {
		values = append(values, label)
	}
	return values
}

func submissionResponses() *openapi3.Responses {
	receipt := &openapi3.Schema{
		Type: &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{
			"SubmissionId": openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}}),
			"Message":      openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}}),
		},
	}

	okDesc := "Submission accepted"
	responses := openapi3.NewResponses()
	responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &okDesc,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: openapi3.NewSchemaRef("", receipt),
				},
			},
		},
	})
	return responses
}
