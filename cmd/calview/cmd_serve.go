package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appLog "calview/internal/log"
	"calview/internal/scheduler"
	"calview/internal/view"
	"calview/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the view API and refresh ICS feeds on schedule",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if serveListen != "" {
		a.cfg.Listen = serveListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.New(a.cfg.RefreshCron, a.store)
	if err != nil {
		return err
	}
	// A failing first refresh is not fatal: the fetcher falls back to its
	// disk cache and the next tick retries.
	if err := sched.RunNow(ctx); err != nil {
		appLog.Error("initial refresh incomplete", err)
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}

	sessions := view.NewSessions(a.newController,
		view.WithMaxSessions(a.cfg.MaxViews),
		view.WithIdleTimeout(a.cfg.ViewIdleTimeout()),
	)
	srv := web.NewServer(a.cfg, sessions, a.palette)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sched.Stop(stopCtx)
	})

	err = g.Wait()
	appLog.Info("calview exiting")
	return err
}
