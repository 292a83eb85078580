package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcraft/internal/server"
	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/workspace"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor over an HTTP JSON API",
		Long: `Serve live documents over HTTP.

Documents are created with POST /api/documents and driven with pointer input
and toolbar commands. GET /api/documents/{id}/events streams the document
state after every change. Snapshots are written to the configured store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			sessions, st, err := c.openSessions(ctx, cfg, designer.WithWorkspaceOptions(
				workspace.WithPixelRatio(cfg.Grid.PixelRatio),
			))
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(sessions,
				server.WithLogger(c.Logger),
				server.WithRunner(runner),
				server.WithDefaultGrid(cfg.Grid.XCells, cfg.Grid.YCells),
			)
			c.Logger.Info("store ready", "backend", cfg.Store.Backend, "cache", cfg.Cache.Backend)
			return srv.Run(ctx, server.RunOptions{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  cfg.Server.ReadTimeout.Duration,
				WriteTimeout: cfg.Server.WriteTimeout.Duration,
				IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	return cmd
}
