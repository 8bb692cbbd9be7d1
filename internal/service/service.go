package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"memeconomy/internal/config"
	"memeconomy/internal/crash"
	"memeconomy/internal/history"
	"memeconomy/internal/portfolio"
	"memeconomy/internal/scheduler"
	"memeconomy/internal/sim"
	"memeconomy/internal/storage"
)

const portfolioCleanupInterval = 24 * time.Hour

// Service bundles the simulation components and exposes one entry function
// per periodic job.
type Service struct {
	cfg       *config.Config
	simulator *sim.Simulator
	stable    *sim.StableUpdater
	crashes   *crash.Manager
	retention *history.Retention
	valuator  *portfolio.Valuator
	logger    zerolog.Logger
}

// New constructs the Service from already-wired components. stable may be nil
// when no activity feed is configured.
func New(
	cfg *config.Config,
	simulator *sim.Simulator,
	stable *sim.StableUpdater,
	crashes *crash.Manager,
	retention *history.Retention,
	valuator *portfolio.Valuator,
	logger zerolog.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		simulator: simulator,
		stable:    stable,
		crashes:   crashes,
		retention: retention,
		valuator:  valuator,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// RunPriceTick walks every active memecoin once.
func (s *Service) RunPriceTick(ctx context.Context) error {
	return s.simulator.RunTick(ctx)
}

// RunStableTick updates the stable utility token from server activity.
func (s *Service) RunStableTick(ctx context.Context) error {
	if s.stable == nil {
		return nil
	}
	return s.stable.RunTick(ctx)
}

// PurgeStaleCrashedTokens removes tokens crashed longer ago than the
// retention window.
func (s *Service) PurgeStaleCrashedTokens(ctx context.Context) error {
	_, err := s.crashes.PurgeStale(ctx)
	return err
}

// RollupHistory appends current prices into the given granularity table.
func (s *Service) RollupHistory(g storage.Granularity) scheduler.JobFunc {
	return func(ctx context.Context) error {
		return s.retention.Rollup(ctx, g)
	}
}

// PruneHistory trims the given granularity table to its keep count.
func (s *Service) PruneHistory(g storage.Granularity) scheduler.JobFunc {
	return func(ctx context.Context) error {
		_, err := s.retention.Prune(ctx, g)
		return err
	}
}

// SnapshotAllPortfolios snapshots every holder's portfolio value.
func (s *Service) SnapshotAllPortfolios(ctx context.Context) error {
	_, failed, err := s.valuator.SnapshotAll(ctx)
	if err != nil {
		return err
	}
	if failed > 0 {
		s.logger.Warn().Int("failed", failed).Msg("some portfolio snapshots failed")
	}
	return nil
}

// CleanupPortfolios prunes snapshots beyond the retention window.
func (s *Service) CleanupPortfolios(ctx context.Context) error {
	_, err := s.valuator.Cleanup(ctx, s.cfg.Portfolio.RetentionDays)
	return err
}

// RegisterJobs wires every periodic job into the runner with its configured
// period. Jobs never block each other; each runs on its own goroutine.
func (s *Service) RegisterJobs(runner *scheduler.Runner) {
	runner.Every(s.cfg.Sim.TickInterval, "price_tick", s.RunPriceTick)
	if s.stable != nil {
		runner.Every(s.cfg.Sim.StableInterval, "stable_tick", s.RunStableTick)
	}
	runner.Every(s.cfg.Crash.PurgeInterval, "crash_purge", s.PurgeStaleCrashedTokens)

	for _, g := range storage.Granularities {
		gCfg, ok := s.cfg.History.Granularity(string(g))
		if !ok {
			continue
		}
		if gCfg.RollupInterval > 0 && g != storage.GranularityMinute {
			runner.Every(gCfg.RollupInterval, fmt.Sprintf("history_rollup_%s", g), s.RollupHistory(g))
		}
		if gCfg.PruneInterval > 0 {
			runner.Every(gCfg.PruneInterval, fmt.Sprintf("history_prune_%s", g), s.PruneHistory(g))
		}
	}

	runner.Every(s.cfg.Portfolio.SnapshotInterval, "portfolio_snapshot", s.SnapshotAllPortfolios)
	runner.Every(portfolioCleanupInterval, "portfolio_cleanup", s.CleanupPortfolios)
}
