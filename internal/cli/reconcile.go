package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	JSON bool
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair account bill indexes",
		Long: `Rebuild every account's bill index from the stored bills. Bills an
account pays for or splits are attached; listed bills that no longer involve
the account are detached.

Example:
  splittie reconcile
  splittie reconcile --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.syncer.Reconcile(cmd.Context(), a.store)
			if report != nil {
				w := cmd.OutOrStdout()
				if opts.JSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(report); encErr != nil {
						return WrapExitError(ExitFailure, "failed to write report", encErr)
					}
				} else {
					fmt.Fprintf(w, "accounts: %d\nattached: %d\ndetached: %d\nfailed:   %d\n",
						report.Accounts, report.Attached, report.Detached, report.Failed)
				}
			}
			if err != nil {
				return WrapExitError(ExitFailure, "reconcile incomplete", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the report as JSON")
	return cmd
}
