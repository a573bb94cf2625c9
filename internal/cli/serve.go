package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/subledger/api"
)

func newServeCommand(o *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				o.cfg.Server.Addr = addr
			}
			return o.withApp(cmd.Context(), func(a *app) error {
				return serve(cmd.Context(), o, a)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}

func serve(ctx context.Context, o *options, a *app) error {
	cfg := o.cfg.Server
	gin.SetMode(gin.ReleaseMode)

	h := api.New(a.ledger, api.WithLogger(o.logger), api.WithAirdrop(cfg.EnableAirdrop))
	router := h.Router(cfg.BasePath)
	if cfg.MetricsPath != "" {
		router.GET(cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: router}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o.logger.Info("http server listening", "addr", cfg.Addr, "base_path", cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		o.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
