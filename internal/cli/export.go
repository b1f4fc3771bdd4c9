package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/catalog"
	"github.com/goliatone/go-formflow/pkg/export"
	"github.com/goliatone/go-formflow/pkg/schema"
)

func (c *CLI) newExportCommand() *cobra.Command {
	var formID string
	var formNo int
	var format string
	var outPath string
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a form version as an OpenAPI 3 document",
		Example: `  # Print the document as JSON
  formflow export --form frm-1 --form-no 3

  # Write YAML to a file
  formflow export --form frm-1 --form-no 3 --format yaml -o form.yaml

  # Export from a local snapshot instead of the backend
  formflow export --snapshot form.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var version schema.FormVersion
			var options map[string]schema.OptionSet
			switch {
			case snapshotPath != "":
				snap, err := schema.LoadSnapshot(ctx, schema.SourceFromFile(snapshotPath))
				if err != nil {
					return err
				}
				version = snap.Version
				options = snap.OptionsByColumn()
				slog.Debug("Snapshot loaded", "path", snapshotPath, "columns", len(version.Columns))
			default:
				if formID == "" {
					return errors.New("--form is required (or use --snapshot)")
				}
				client, err := c.newClient()
				if err != nil {
					return err
				}

				record, err := client.Version(ctx, formID, formNo)
				if err != nil {
					return err
				}
				version = catalog.BuildVersion(record)
				slog.Debug("Schema loaded", "columns", len(version.Columns))

				var failures map[string]error
				options, failures = catalog.NewProvider(client).Resolve(ctx, formID, version.Columns)
				for columnID, ferr := range failures {
					slog.Warn("Options unavailable", "column", columnID, "error", ferr)
				}
			}

			doc, err := export.Document(ctx, version, options, export.Options{Validate: true})
			if err != nil {
				return err
			}

			var raw []byte
			switch format {
			case "json":
				raw, err = json.MarshalIndent(doc, "", "  ")
			case "yaml":
				raw, err = yaml.Marshal(doc)
			default:
				return fmt.Errorf("unknown format %q (json or yaml)", format)
			}
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			return os.WriteFile(outPath, raw, 0o644)
		},
	}

	cmd.Flags().StringVar(&formID, "form", "", "Form identifier")
	cmd.Flags().IntVar(&formNo, "form-no", 1, "Form version number")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Build the document from a form snapshot file")
	return cmd
}
