package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/b0bbywan/go-rtkit/api"
	"github.com/b0bbywan/go-rtkit/discovery"
	"github.com/b0bbywan/go-rtkit/logger"
	"github.com/b0bbywan/go-rtkit/promoter"
)

func (a *app) serveCmd() *cobra.Command {
	var watchConfig bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and stream promotion events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// serve always enables the API, which also lets zeroconf publish it.
			a.v.Set("api.enabled", true)
			if err := a.loadConfig(); err != nil {
				return err
			}
			if watchConfig && a.cfg.File == "" {
				return errors.New("--watch needs a config file")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withClient(ctx, func(client Client) error {
				p := promoter.New(client, a.cfg.Promoter)
				server := api.NewServer(ctx, a.cfg.Api, client, api.Inspector(a.inspect), p)

				if pub := discovery.New(a.cfg.Zeroconf); pub != nil {
					if err := pub.Start(ctx); err != nil {
						logger.Warn("[cmd] zeroconf publication failed: %v", err)
					} else {
						defer pub.Shutdown()
					}
				}

				if watchConfig {
					go func() {
						if err := p.Watch(ctx, a.cfg.File); err != nil {
							logger.Error("[cmd] config watch failed: %v", err)
						}
					}()
				}

				logger.Info("[%s] serving on %v", cmd.Root().Name(), a.cfg.Api.Listens)
				return run(ctx, server)
			})
		},
	}
	cmd.Flags().StringSlice("listen", nil, "address to listen on, repeatable (default 127.0.0.1:8018)")
	cmd.Flags().BoolVar(&watchConfig, "watch", false, "apply the promotions and re-apply them when the config file changes")
	bindFlag(a.v, "api.listen", cmd.Flags().Lookup("listen"))
	return cmd
}

func run(ctx context.Context, server *api.Server) error {
	if server == nil {
		return errors.New("api disabled")
	}
	return server.Run(ctx)
}
