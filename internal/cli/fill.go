package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/catalog"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/submit"
)

func (c *CLI) newFillCommand() *cobra.Command {
	var formID string
	var formNo int
	var yes bool
	var snapshotPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a form interactively and submit it",
		Example: `  # Fill form frm-1, version 3
  formflow fill --form frm-1 --form-no 3

  # Skip the final confirmation prompt
  formflow fill --form frm-1 --form-no 3 --yes

  # Fill offline from a snapshot, collecting answers into a file
  formflow fill --snapshot form.yaml --out answers.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			hook := func(ctx context.Context, receipt submit.Receipt) error {
				slog.Debug("Submission committed", "submissionId", receipt.SubmissionID)
				return nil
			}

			var sess *session.Session
			switch {
			case snapshotPath != "":
				snap, err := schema.LoadSnapshot(ctx, schema.SourceFromFile(snapshotPath))
				if err != nil {
					return err
				}
				if formID == "" {
					formID = snap.Version.FormID
					formNo = snap.Version.FormNo
				}
				if outPath == "" {
					outPath = formID + "-answers.yaml"
				}
				backend := catalog.NewSnapshotBackend(snap)
				slog.Debug("Using snapshot", "path", snapshotPath, "form", formID)
				sess = session.New(formID, formNo,
					backend,
					catalog.NewProvider(backend),
					submit.NewDispatcher(answersSender{path: outPath}, hook),
				)
			default:
				if formID == "" {
					return errors.New("--form is required (or use --snapshot)")
				}
				client, err := c.newClient()
				if err != nil {
					return err
				}
				sess = session.New(formID, formNo,
					client,
					catalog.NewProvider(client),
					submit.NewDispatcher(client, hook),
					session.WithPayments(client, consoleAuthorizer(cmd)),
				)
			}

			slog.Debug("Loading schema", "form", formID, "formNo", formNo)
			if err := sess.Load(ctx); err != nil {
				return err
			}

			var opts []tui.Option
			if yes {
				opts = append(opts, tui.WithoutConfirm())
			}
			result, err := tui.NewFiller(sess, opts...).Run(ctx)
			if err != nil {
				if errors.Is(err, tui.ErrAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
				return err
			}

			if snapshotPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Answers written to %s\n", outPath)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted: %s\n", result.Receipt.SubmissionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&formID, "form", "", "Form identifier")
	cmd.Flags().IntVar(&formNo, "form-no", 1, "Form version number")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the final confirmation prompt")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Fill offline from a form snapshot file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Answers file for snapshot mode (default <form>-answers.yaml)")
	return cmd
}

// consoleAuthorizer walks the payment step on the terminal: it shows the
// created order and reads the gateway's payment reference back.
func consoleAuthorizer(cmd *cobra.Command) session.PaymentAuthorizer {
	return func(ctx context.Context, order catalog.Order) (string, error) {
		fmt.Fprintf(cmd.OutOrStdout(), "Payment order %s created for amount %d.\n", order.OrderID, order.Amount)
		fmt.Fprint(cmd.OutOrStdout(), "Enter the payment reference: ")

		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		ref := strings.TrimSpace(line)
		if ref == "" {
			return "", errors.New("payment reference is required")
		}
		return ref, nil
	}
}
