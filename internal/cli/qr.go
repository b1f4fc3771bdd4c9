package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/share"
)

func (c *CLI) newQRCommand() *cobra.Command {
	var formID string
	var formNo int
	var baseURL string
	var outPath string
	var size int

	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Generate the public filling link and its QR code",
		Example: `  # Print the filling link
  formflow qr --base-url https://forms.example.com --form frm-1 --form-no 3

  # Write the QR PNG to a file
  formflow qr --base-url https://forms.example.com --form frm-1 -o frm-1.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if formID == "" {
				return errors.New("--form is required")
			}
			if baseURL == "" {
				baseURL = os.Getenv("FORMFLOW_PUBLIC_URL")
			}

			link, err := share.Link(baseURL, formID, formNo)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)

			if outPath == "" {
				return nil
			}
			if err := share.WriteQRFile(baseURL, formID, formNo, size, outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "QR code written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&formID, "form", "", "Form identifier")
	cmd.Flags().IntVar(&formNo, "form-no", 1, "Form version number")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public portal base URL (env FORMFLOW_PUBLIC_URL)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the QR PNG to this path")
	cmd.Flags().IntVar(&size, "size", share.DefaultQRSize, "QR image edge length in pixels")
	return cmd
}
