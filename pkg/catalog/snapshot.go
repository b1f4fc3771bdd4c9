package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// SnapshotBackend serves a previously captured form snapshot through the
// SchemaService and OptionService contracts, so the runtime can fill a form
// without reaching the form-builder backend.
type SnapshotBackend struct {
	snap    schema.Snapshot
	options map[string]schema.OptionSet
}

// NewSnapshotBackend wraps a decoded snapshot.
func NewSnapshotBackend(snap schema.Snapshot) *SnapshotBackend {
	return &SnapshotBackend{snap: snap, options: snap.OptionsByColumn()}
}

// Version serves the snapshot's layout. The backend answers only for the form
// the snapshot was taken from.
func (b *SnapshotBackend) Version(_ context.Context, formID string, _ int) (VersionRecord, error) {
	if formID != b.snap.Version.FormID {
		return VersionRecord{}, fmt.Errorf("catalog: snapshot holds form %q, not %q", b.snap.Version.FormID, formID)
	}
	return encodeVersion(b.snap.Version), nil
}

// ValidationRules rebuilds the rule records from the rules inlined on the
// snapshot's columns.
func (b *SnapshotBackend) ValidationRules(_ context.Context, formID string) ([]RuleRecord, error) {
	if formID != b.snap.Version.FormID {
		return nil, fmt.Errorf("catalog: snapshot holds form %q, not %q", b.snap.Version.FormID, formID)
	}
	var out []RuleRecord
	for _, column := range b.snap.Version.Columns {
		if column.ValidationRule == "" {
			continue
		}
		out = append(out, RuleRecord{ColID: column.ID, ValidationList: column.ValidationRule})
	}
	return out, nil
}

// Options serves the captured labels for one column. Columns absent from the
// snapshot get an empty list rather than an error, matching how the provider
// degrades a missing catalog.
func (b *SnapshotBackend) Options(_ context.Context, columnID, _ string, _ schema.DataType) ([]string, error) {
	return b.options[columnID].Labels, nil
}

// encodeVersion is BuildVersion's inverse: it re-wraps a domain layout in the
// wire record shape the rest of the package consumes.
func encodeVersion(version schema.FormVersion) VersionRecord {
	record := VersionRecord{
		FormID:     version.FormID,
		FormNo:     version.FormNo,
		FormName:   version.Title,
		BannerHTML: version.Banner,
		Fees:       version.Fee,
		Columns:    make([]ColumnRecord, 0, len(version.Columns)),
	}
	if !version.RegistrationEnd.IsZero() {
		record.EndDateTime = version.RegistrationEnd.Format(time.RFC3339)
	}
	for _, column := range version.Columns {
		record.Columns = append(record.Columns, ColumnRecord{
			ColID:      column.ID,
			ColumnName: column.Name,
			DataType:   string(column.DataType),
			SequenceNo: column.SequenceNo,
			IsValid:    column.Mandatory,
			IsReadOnly: column.ReadOnly,
		})
	}
	return record
}
