package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepDelaysCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-delays",
		Short: "Record delays for overdue loans now",
		Long: `Run the overdue-loan sweep once, outside the server's schedule. Loans that
already have a delay are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			recorded, err := app.Library.RecordDelays(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d delay(s)\n", recorded)
			if err != nil {
				return GeneralError("recording delays", err)
			}
			return nil
		},
	}
}
