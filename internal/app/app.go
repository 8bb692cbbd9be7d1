package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"memeconomy/internal/alerting"
	"memeconomy/internal/config"
	"memeconomy/internal/crash"
	"memeconomy/internal/history"
	"memeconomy/internal/ledger"
	"memeconomy/internal/portfolio"
	"memeconomy/internal/scheduler"
	"memeconomy/internal/service"
	"memeconomy/internal/sim"
	"memeconomy/internal/storage"
	"memeconomy/internal/storage/migrations"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	if a.Config.Database.Migrate {
		if err := migrations.Run(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newNotifier() (alerting.Notifier, error) {
	if a.Config.Discord.Enabled {
		return alerting.NewDiscordNotifier(a.Config.Discord.BotToken, a.Config.Discord.CrashChannelID, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger), nil
}

// components holds everything built on top of an open store.
type components struct {
	service   *service.Service
	ledger    *ledger.Ledger
	evaluator *alerting.Evaluator
	valuator  *portfolio.Valuator
}

func (a *App) buildComponents(store *storage.Store) (*components, error) {
	notifier, err := a.newNotifier()
	if err != nil {
		return nil, err
	}

	rng := sim.NewRand()
	evaluator := alerting.NewEvaluator(store, store, notifier, a.Logger)
	crashes := crash.NewManager(store, notifier, a.Config.Crash.Retention, a.Logger)
	simulator := sim.New(store, store, crashes, evaluator, rng, a.Config.Sim, a.Logger)

	var stable *sim.StableUpdater
	if a.Config.Activity.URL != "" {
		source := sim.NewHTTPActivitySource(a.Config.Activity)
		strategy := sim.NewActivityStrategy(a.Config.Sim.StableDefaultPrice, a.Config.Activity.Weight)
		stable = sim.NewStableUpdater(store, store, evaluator, source, strategy, a.Config.Sim.StableSymbol, a.Logger)
	} else {
		a.Logger.Warn().Msg("activity.url not configured; stable token updates disabled")
	}

	retention := history.New(store, store, a.Config.History, a.Logger)
	valuator := portfolio.New(store, store, store, a.Logger)

	svc := service.New(a.Config, simulator, stable, crashes, retention, valuator, a.Logger)
	led := ledger.New(store, store, rng, a.Config.Sim, a.Config.Ledger.TaxRate, a.Logger)

	return &components{
		service:   svc,
		ledger:    led,
		evaluator: evaluator,
		valuator:  valuator,
	}, nil
}

// Run starts every periodic job and blocks until interrupted. In-flight
// per-token operations complete before shutdown; partial tick state is
// self-healing on the next tick.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	comps, err := a.buildComponents(store)
	if err != nil {
		return err
	}

	runner := scheduler.New(a.Logger)
	comps.service.RegisterJobs(runner)

	a.Logger.Info().Msg("starting economy simulation")
	err = runner.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("simulation terminated with error")
		return err
	}

	a.Logger.Info().Msg("economy simulation stopped")
	return nil
}
