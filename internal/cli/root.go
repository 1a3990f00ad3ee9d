// Package cli implements the library command line: the server and the
// administrative commands that run against the same database.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entrypoint"
)

// BuildInfo is set via ldflags at build time.
type BuildInfo struct {
	Version string
	Commit  string
}

// Command group IDs
const (
	groupServer = "server"
	groupAdmin  = "admin"
)

type rootOptions struct {
	cfg *config.Config

	// Persistent flags override the environment
	dbPath string
	dsn    string
	driver string
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "library",
		Short: "Library management server",
		Long: `library - book lending backend

Keeps the catalog and stock of a small library, lends and takes back copies,
and controls access through roles and rights. Configuration is read from the
environment (DATABASE_PATH, AUTH_TOKEN_SECRET, ...).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			opts.cfg = opts.loadConfig()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(opts.cfg, info.Version)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	f.StringVar(&opts.dsn, "dsn", "", "MySQL DSN (overrides DATABASE_DSN)")
	f.StringVar(&opts.driver, "driver", "", "database driver: sqlite or mysql (overrides DATABASE_DRIVER)")

	root.AddGroup(
		&cobra.Group{ID: groupServer, Title: "Server:"},
		&cobra.Group{ID: groupAdmin, Title: "Administration:"},
	)

	serve := newServeCommand(opts, info)
	serve.GroupID = groupServer
	root.AddCommand(serve)

	for _, cmd := range []*cobra.Command{
		newCreateAdminCommand(opts),
		newSeedCommand(opts),
		newSweepDelaysCommand(opts),
		newExportAuditCommand(opts),
	} {
		cmd.GroupID = groupAdmin
		root.AddCommand(cmd)
	}

	root.AddCommand(newVersionCommand(info))

	return root
}

// Execute runs the root command and exits on error.
func Execute(info BuildInfo) {
	if err := NewRootCommand(info).Execute(); err != nil {
		ExitWithError(err)
	}
}

func (o *rootOptions) loadConfig() *config.Config {
	cfg := config.NewConfig()
	if o.driver != "" {
		cfg.Database.Driver = o.driver
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.dsn != "" {
		cfg.Database.DSN = o.dsn
	}
	return cfg
}

// openApp opens the database for a one-shot command.
func (o *rootOptions) openApp() (*entrypoint.App, error) {
	app, err := entrypoint.NewApp(o.cfg, false)
	if err != nil {
		return nil, DBConnectError("opening database", err)
	}
	return app, nil
}
