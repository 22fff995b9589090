package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NavSentinel/internal/logging"
	"NavSentinel/internal/scheduler"
	"NavSentinel/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the cache warmer when enabled)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(background(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		a.log.Info().Str("storage", a.cfg.Storage.Driver).Msg("NavSentinel starting")

		if a.cfg.Funds.Watch {
			if err := a.funds.Watch(ctx); err != nil {
				a.log.Warn().Err(err).Msg("fund file watch disabled")
			}
		}

		if a.cfg.Schedule.Enabled {
			sched := scheduler.NewScheduler(ctx, a.svc, a.cfg.Schedule.RefreshDays, logging.Component(a.log, "scheduler"))
			if err := sched.Register(a.cfg.Schedule.RefreshCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
		}

		srv := server.New(a.svc, server.Options{
			Addr:     a.cfg.Addr(),
			Mode:     a.cfg.Server.Mode,
			Registry: a.metrics.Registry,
			Health: map[string]func() string{
				"nav_source":   a.nav.State,
				"index_source": a.index.State,
			},
		}, logging.Component(a.log, "http"))
		err = srv.Run(ctx)
		a.log.Info().Msg("NavSentinel stopped")
		return err
	},
}

// background returns the command context or a fresh one.
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
