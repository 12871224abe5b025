package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd(opts *globalOptions) *cobra.Command {
	var (
		addr      string
		noWatcher bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and watch the document root",
		Long: `Serve the JSON API used by the admin UI:

  GET    /api/files/exists?output_type=
  POST   /api/save
  GET    /api/history
  GET    /api/history/{id}
  DELETE /api/history/{id}
  POST   /api/generate

plus /healthz and /metrics. The caller is identified by the X-Owner-ID and
X-Can-Manage headers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Default()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !noWatcher {
				go func() {
					if err := c.Watcher().Run(ctx); err != nil {
						c.Logger.Warn("document root watcher stopped", zap.Error(err))
					}
				}()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on http://%s (document root %s)\n", addr, c.Root.Root())
			return c.HTTPServer().ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&noWatcher, "no-watch", false, "Do not watch the document root for outside changes")
	return cmd
}
