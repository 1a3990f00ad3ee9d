package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const adminRole = "Administrator"

func newCreateAdminCommand(opts *rootOptions) *cobra.Command {
	var (
		name     string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Create a user with the Administrator role. The password is prompted for
when --password is not given.`,
		Example: `  library create-admin --email admin@example.com --name "Head Librarian"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return ConfigError("missing flag", fmt.Errorf("--email is required"))
			}
			if name == "" {
				name = email
			}
			if password == "" {
				var err error
				password, err = readPassword(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: ")
				if err != nil {
					return GeneralError("reading password", err)
				}
			}

			app, err := opts.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Auth.Register(name, email, password, adminRole)
			if err != nil {
				return GeneralError("creating administrator", err)
			}
			app.Audit.LogAuth(cmd.Context(), user.ID, "create_admin", nil)

			fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&email, "email", "", "login email (required)")
	f.StringVar(&name, "name", "", "display name (defaults to the email)")
	f.StringVar(&password, "password", "", "password (prompted if empty)")
	return cmd
}

// readPassword reads without echo from a terminal, or a single line from
// any other input.
func readPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytePassword)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
