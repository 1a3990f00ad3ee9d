package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/database/accounts"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Create the rights and roles listed in a YAML file",
		Long: `Create missing rights and roles from a seed file. Existing roles keep
their current rights.`,
		Example: `  library seed roles.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg.Seed.File = args[0]

			app, err := opts.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			roles, err := accounts.NewRepository(app.DB.DB).ListRoles()
			if err != nil {
				return GeneralError("listing roles", err)
			}
			for _, role := range roles {
				rights := make([]string, 0, len(role.Rights))
				for _, r := range role.Rights {
					rights = append(rights, r.Name)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", role.Name, strings.Join(rights, ", "))
			}
			return nil
		},
	}
}
