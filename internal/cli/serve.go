package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jamesprial/go-reddit-media/internal/server"
)

const shutdownTimeout = 10 * time.Second

func (a *App) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the media API over HTTP",
		Long: `Start an HTTP server exposing classification, resolution and feeds.

API Endpoints:
  GET /api/health
  GET /api/classify?url=<url>
  GET /api/resolve?url=<url>
  GET /api/feed/:subreddit?sort=&after=&limit=&media=`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Resolve port (flag > config > default)
			if port == 0 {
				port = a.cfg.Server.Port
			}

			if !a.Debug {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := server.New(a.client, port, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port (default from config, 8080)")
	return cmd
}
