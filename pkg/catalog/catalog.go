// Package catalog defines the contracts the form runtime expects from the
// external form-builder backend: the versioned column catalog, the per-column
// option lists, submission transport, and the payment sub-flow. The HTTP
// implementations live in internal/restapi; tests and offline tooling supply
// their own.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// ColumnRecord mirrors one entry of the schema-for-version response.
type ColumnRecord struct {
	ColID      string `json:"ColId"`
	ColumnName string `json:"ColumnName"`
	DataType   string `json:"DataType"`
	SequenceNo int    `json:"SequenceNo"`
	IsValid    bool   `json:"IsValid"`
	IsReadOnly bool   `json:"IsReadOnly,omitempty"`
}

// RuleRecord mirrors one entry of the validation-rules-for-form response.
type RuleRecord struct {
	ColID          string `json:"ColId"`
	ValidationList string `json:"ValidationList"`
}

// VersionRecord is the schema-for-version response envelope. EndDateTime is
// RFC 3339; an empty string means the registration window never closes.
type VersionRecord struct {
	FormID      string         `json:"FormId"`
	FormNo      int            `json:"FormNo"`
	FormName    string         `json:"FormName,omitempty"`
	BannerHTML  string         `json:"BannerHtml,omitempty"`
	Fees        int64          `json:"Fees,omitempty"`
	EndDateTime string         `json:"EndDateTime,omitempty"`
	Columns     []ColumnRecord `json:"Columns"`
}

// SchemaService fetches form layouts and their configured validation rules.
type SchemaService interface {
	Version(ctx context.Context, formID string, formNo int) (VersionRecord, error)
	ValidationRules(ctx context.Context, formID string) ([]RuleRecord, error)
}

// OptionService fetches the ordered option labels for one column. The
// backend keeps three parallel catalogs (select/radio/checkbox) addressed by
// data type; the contract shape is identical across them.
type OptionService interface {
	Options(ctx context.Context, columnID, formID string, dataType schema.DataType) ([]string, error)
}

// Order identifies a created payment order for a fee-bearing form.
type Order struct {
	OrderID string `json:"OrderId"`
	Amount  int64  `json:"Amount"`
}

// PaymentService creates and verifies payment orders. The gateway itself is
// opaque; the runtime only needs confirmed/failed outcomes.
type PaymentService interface {
	CreateOrder(ctx context.Context, formID string, amount int64) (Order, error)
	VerifyPayment(ctx context.Context, orderID, paymentRef string) error
}

// BuildVersion converts a wire record into the domain model: tags are parsed
// through the column-type registry, columns are stably sorted by sequence,
// and the banner markup is sanitized.
func BuildVersion(record VersionRecord) schema.FormVersion {
	columns := make([]schema.ColumnDefinition, 0, len(record.Columns))
	for _, raw := range record.Columns {
		dataType, _ := schema.ParseDataType(raw.DataType)
		columns = append(columns, schema.ColumnDefinition{
			ID:         raw.ColID,
			Name:       strings.TrimSpace(raw.ColumnName),
			DataType:   dataType,
			SequenceNo: raw.SequenceNo,
			Mandatory:  raw.IsValid,
			ReadOnly:   raw.IsReadOnly,
		})
	}

	version := schema.FormVersion{
		FormID:  record.FormID,
		FormNo:  record.FormNo,
		Title:   strings.TrimSpace(record.FormName),
		Banner:  schema.SanitizeBanner(record.BannerHTML),
		Fee:     record.Fees,
		Columns: schema.SortColumns(columns),
	}
	if record.EndDateTime != "" {
		if end, err := time.Parse(time.RFC3339, record.EndDateTime); err == nil {
			version.RegistrationEnd = end
		}
	}
	return version
}

// BindRules converts rule records into the bindings MergeValidationRules
// consumes.
func BindRules(records []RuleRecord) []schema.ValidationBinding {
	out := make([]schema.ValidationBinding, 0, len(records))
	for _, record := range records {
		out = append(out, schema.ValidationBinding{
			ColumnID: record.ColID,
			Rule:     strings.TrimSpace(record.ValidationList),
		})
	}
	return out
}
