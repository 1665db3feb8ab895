package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/poiesic/qamatch/memory"
	"github.com/poiesic/qamatch/server"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the HTTP API and watch for upcoming memories",
		Action: serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.addr)",
			},
			&cli.BoolFlag{
				Name:  "no-watcher",
				Usage: "Do not check for upcoming memories",
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	query, err := db.NewQueryService(ctx, cfg.SearchOptions()...)
	if err != nil {
		return err
	}
	defer query.Close()
	reviews, err := db.NewReviewQueue()
	if err != nil {
		return err
	}
	memories, err := db.NewMemoryStore()
	if err != nil {
		return err
	}

	srv, err := server.New(query, reviews, memories, server.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, addr)
	})
	if !c.Bool("no-watcher") {
		out := outWriter(c)
		notify := func(_ context.Context, upcoming []memory.Occurrence) {
			fmt.Fprint(out, memory.Alerts(upcoming))
		}
		watcher := memory.NewWatcher(memories, notify, cfg.WatcherOptions()...)
		g.Go(func() error {
			if err := watcher.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

