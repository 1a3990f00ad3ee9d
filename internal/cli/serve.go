package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/entrypoint"
)

func newServeCommand(opts *rootOptions, info BuildInfo) *cobra.Command {
	var (
		host string
		port int32
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Example: `  # Serve on another port with a throwaway database
  library serve --port 9090 --db /tmp/library.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				opts.cfg.HTTP.Host = host
			}
			if port != 0 {
				opts.cfg.HTTP.Port = port
			}
			entrypoint.Run(opts.cfg, info.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen address (overrides HOST)")
	cmd.Flags().Int32Var(&port, "port", 0, "listen port (overrides PORT)")
	return cmd
}
