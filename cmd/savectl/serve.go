package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/krgsave/internal/server"
	"github.com/danmuck/krgsave/internal/slots"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the save directory over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides [server] addr"},
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			if addr := c.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			catalog := catalogFrom(c)
			srv := server.New(catalog, server.Config{
				Addr:             cfg.Server.Addr,
				CorsOrigins:      cfg.Server.CorsOrigins,
				RescalePerSecond: cfg.Server.RescalePerSecond,
			})
			return srv.Serve(ctx)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print save files as they are written or removed",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return catalogFrom(c).Watch(ctx, func(ev slots.Event) {
				fmt.Fprintf(c.App.Writer, "%s %s\n", ev.Op, ev.Name)
			})
		},
	}
}
