// Package scheduler warms the series cache on a cron schedule so that
// interactive requests are mostly full hits.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"NavSentinel/internal/daterange"
	"NavSentinel/internal/model"
)

// Refresher is the part of the service the warmer drives.
type Refresher interface {
	ListFunds() []model.FundRecord
	RefreshFund(ctx context.Context, rec model.FundRecord, rng daterange.Range) (int, error)
	RefreshIndex(ctx context.Context, rng daterange.Range) (int, error)
	Validator() *daterange.Validator
}

// Scheduler runs the refresh job.
type Scheduler struct {
	Cron        *cron.Cron
	Refresher   Refresher
	Days        int
	Concurrency int
	Ctx         context.Context
	log         zerolog.Logger
}

// NewScheduler creates a Scheduler refreshing the trailing days window.
func NewScheduler(ctx context.Context, r Refresher, days int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Refresher:   r,
		Days:        days,
		Concurrency: 2,
		Ctx:         ctx,
		log:         log,
	}
}

// Register adds the refresh job at spec (six fields, seconds first).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) refreshTask() {
	if err := s.RunNow(s.Ctx); err != nil {
		s.log.Error().Err(err).Msg("refresh task finished with errors")
	}
}

// RunNow refreshes every registered fund and the index once. All series
// are attempted; the first failure is returned.
func (s *Scheduler) RunNow(ctx context.Context) error {
	start := time.Now()
	rng := s.Refresher.Validator().Trailing(s.Days)
	funds := s.Refresher.ListFunds()

	var g errgroup.Group
	g.SetLimit(max(1, s.Concurrency))
	g.Go(func() error {
		n, err := s.Refresher.RefreshIndex(ctx, rng)
		if err != nil {
			return fmt.Errorf("refresh index: %w", err)
		}
		s.log.Debug().Int("points", n).Msg("index refreshed")
		return nil
	})
	for _, f := range funds {
		g.Go(func() error {
			n, err := s.Refresher.RefreshFund(ctx, f, rng)
			if err != nil {
				s.log.Warn().Err(err).Str("fund", f.Fund).Msg("fund refresh failed")
				return fmt.Errorf("refresh %s: %w", f.Fund, err)
			}
			s.log.Debug().Str("fund", f.Fund).Int("points", n).Msg("fund refreshed")
			return nil
		})
	}
	err := g.Wait()
	s.log.Info().Int("funds", len(funds)).Stringer("from", rng.From).Stringer("to", rng.To).
		Dur("took", time.Since(start)).Msg("refresh task complete")
	return err
}
