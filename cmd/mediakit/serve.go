package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeforge/mediakit/captcha"
	"github.com/leeforge/mediakit/config"
	"github.com/leeforge/mediakit/http/server"
	"github.com/leeforge/mediakit/logging"
	"github.com/leeforge/mediakit/media/storage"
	"github.com/leeforge/mediakit/redis_client"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		routes bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve captcha and thumbnail endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if routes {
				return printRoutes(cmd.OutOrStdout(), a.cfg.Server)
			}
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&routes, "routes", false, "print the registered routes and exit")
	cmd.Flags().BoolVar(&a.watch, "watch", false, "log configuration file changes")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	deps := server.Deps{Thumbnail: a.cfg.Thumbnail}

	th, err := a.thumbnailer()
	if err != nil {
		return err
	}
	deps.Thumbnailer = th

	provider, err := storage.NewFromConfig(ctx, a.cfg.Storage)
	if err != nil {
		return err
	}
	deps.Storage = provider

	if a.cfg.Captcha.Enabled {
		svc, closeFn, err := a.captchaService(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		deps.Captcha = svc
	}

	a.logger.Info("starting mediakit",
		zap.String("addr", a.cfg.Server.Addr),
		zap.String("storage", provider.Name()),
		zap.Bool("captcha", a.cfg.Captcha.Enabled),
		zap.String("captcha_store", a.cfg.Captcha.Store),
	)
	return server.New(a.cfg.Server, deps, a.logger.Named("http")).Run(ctx)
}

// captchaService wires the configured store. The returned func releases
// the redis client, if one was opened.
func (a *app) captchaService(ctx context.Context) (*captcha.Service, func(), error) {
	opts := []captcha.ServiceOption{captcha.WithServiceLogger(a.logger.Named("captcha"))}
	closeFn := func() {}

	if a.cfg.Captcha.Store == "redis" {
		client, err := redis_client.NewRedis(ctx, a.cfg.Redis, a.logger.Named("redis"))
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() { _ = client.Close() }
		opts = append(opts,
			captcha.WithStore(captcha.NewRedisStore(client, captcha.DefaultKeyPrefix)),
			captcha.WithLimiter(captcha.NewRedisLimiter(client, captcha.DefaultKeyPrefix, a.cfg.Captcha.Limits())),
		)
	}
	return captcha.NewService(a.cfg.Captcha, opts...), closeFn, nil
}

func printRoutes(w io.Writer, cfg config.ServerConfig) error {
	routes, err := server.New(cfg, server.Deps{}, logging.Nop()).Routes()
	if err != nil {
		return err
	}
	for _, r := range routes {
		fmt.Fprintf(w, "%-6s %s\n", r.Method, r.Pattern)
	}
	return nil
}
