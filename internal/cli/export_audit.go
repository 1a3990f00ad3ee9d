package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

func newExportAuditCommand(opts *rootOptions) *cobra.Command {
	var (
		dir       string
		eventType string
		userID    uint
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "export-audit",
		Short: "Write audit events to a JSON file",
		Example: `  # Export the last 1000 loan returns
  library export-audit --type return --limit 1000 --dir ./exports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = opts.cfg.Audit.ExportDir
			}

			app, err := opts.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			name, err := app.Audit.ExportJSON(dir, auditrepo.Filter{
				UserID:    userID,
				EventType: entities.AuditEventType(eventType),
				Limit:     limit,
			})
			if err != nil {
				return GeneralError("exporting audit events", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, name))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dir, "dir", "", "output directory (defaults to AUDIT_EXPORT_DIR)")
	f.StringVar(&eventType, "type", "", "only events of this type (borrow, return, catalog, account, auth, delay)")
	f.UintVar(&userID, "user-id", 0, "only events caused by this user")
	f.IntVar(&limit, "limit", 1000, "maximum number of events")
	return cmd
}
