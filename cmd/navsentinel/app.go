package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"NavSentinel/internal/cache"
	"NavSentinel/internal/collector"
	"NavSentinel/internal/config"
	"NavSentinel/internal/daterange"
	"NavSentinel/internal/forecast"
	"NavSentinel/internal/fund"
	"NavSentinel/internal/logging"
	"NavSentinel/internal/metrics"
	"NavSentinel/internal/service"
	"NavSentinel/internal/store"
)

// app holds every long-lived component built from the config.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	store   store.Store
	funds   *fund.Registry
	nav     *collector.GuardedSource
	index   *collector.GuardedSource
	svc     *service.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	m := metrics.New()

	st, err := store.Open(ctx, cfg, logging.Component(log, "store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	funds, err := fund.NewRegistry(cfg.Funds.File, logging.Component(log, "funds"))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load funds: %w", err)
	}

	guard := collector.GuardOptions{
		Timeout:       cfg.Sources.RequestTimeout,
		RatePerSecond: cfg.Sources.RatePerSecond,
		Burst:         cfg.Sources.Burst,
	}
	nav := collector.NewGuardedSource(
		collector.NewAMFISource(cfg.Sources.NavURL, cfg.Sources.Proxy, cfg.Sources.RequestTimeout), guard)
	yahoo := collector.NewYahooSource(cfg.Sources.IndexURL, cfg.Sources.Proxy, cfg.Sources.RequestTimeout)
	yahoo.Loc = loc
	index := collector.NewGuardedSource(yahoo, guard)
	aum := collector.NewAumClient(cfg.Sources.AumURL, cfg.Sources.Proxy, cfg.Sources.RequestTimeout, cfg.Aum.YearIDs)

	validator := daterange.NewValidator(cfg.Cache.RetentionYears)
	validator.Loc = loc

	svc := service.New(service.Deps{
		Validator:   validator,
		Funds:       funds,
		Cache:       cache.New(st, m, logging.Component(log, "cache")),
		NavSource:   nav,
		IndexSource: index,
		IndexSymbol: cfg.Sources.IndexSymbol,
		Aum:         aum,
		Forecaster:  forecast.New(forecast.DefaultOptions(), m, logging.Component(log, "forecast")),
		Log:         logging.Component(log, "service"),
	})

	return &app{cfg: cfg, log: log, metrics: m, store: st, funds: funds, nav: nav, index: index, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close store")
	}
}
