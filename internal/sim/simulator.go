package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/alerting"
	"memeconomy/internal/config"
	"memeconomy/internal/crash"
	"memeconomy/internal/storage"
)

// Simulator walks every active memecoin's price once per tick. Tokens are
// processed sequentially and independently: an error on one token is logged
// and the rest of the tick continues.
type Simulator struct {
	tokens    storage.TokenStore
	history   storage.HistoryStore
	crashes   *crash.Manager
	evaluator *alerting.Evaluator
	rng       Rand
	cfg       config.SimConfig
	logger    zerolog.Logger
}

// New constructs a Simulator.
func New(
	tokens storage.TokenStore,
	history storage.HistoryStore,
	crashes *crash.Manager,
	evaluator *alerting.Evaluator,
	rng Rand,
	cfg config.SimConfig,
	logger zerolog.Logger,
) *Simulator {
	return &Simulator{
		tokens:    tokens,
		history:   history,
		crashes:   crashes,
		evaluator: evaluator,
		rng:       rng,
		cfg:       cfg,
		logger:    logger.With().Str("component", "price_simulator").Logger(),
	}
}

// RunTick executes one price tick over all eligible memecoins.
func (s *Simulator) RunTick(ctx context.Context) error {
	tokens, err := s.tokens.ListActiveMemecoins(ctx)
	if err != nil {
		return fmt.Errorf("list active memecoins: %w", err)
	}

	crashed := 0
	for _, token := range tokens {
		wasCrash, err := s.stepToken(ctx, token)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", token.Symbol).Msg("token tick failed")
			continue
		}
		if wasCrash {
			crashed++
		}
	}

	s.logger.Debug().Int("tokens", len(tokens)).Int("crashed", crashed).Msg("price tick complete")
	return nil
}

// stepToken updates a single token: draw a move, then either crash or persist,
// record the sample, and evaluate alerts, in that order.
func (s *Simulator) stepToken(ctx context.Context, token storage.Token) (bool, error) {
	candidate, crashes := s.NextPrice(token.PricePerUnit)
	if crashes {
		return true, s.crashes.Crash(ctx, token)
	}

	if err := s.tokens.UpdateTokenPrice(ctx, token.ID, candidate); err != nil {
		return false, fmt.Errorf("persist price: %w", err)
	}

	point := storage.PriceHistoryPoint{
		TokenID:    token.ID,
		Price:      candidate,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.history.AppendPricePoint(ctx, storage.GranularityMinute, point); err != nil {
		// The price is already committed; a missed sample self-heals next tick.
		s.logger.Error().Err(err).Str("symbol", token.Symbol).Msg("failed to record price sample")
	}

	if err := s.evaluator.Evaluate(ctx, token, candidate); err != nil {
		s.logger.Error().Err(err).Str("symbol", token.Symbol).Msg("alert evaluation failed")
	}

	return false, nil
}

// NextPrice draws direction and magnitude for the current price and applies
// one walk step.
func (s *Simulator) NextPrice(price decimal.Decimal) (decimal.Decimal, bool) {
	dir := Down
	if s.rng.Float64() < s.cfg.UpwardBias {
		dir = Up
	}

	tier := TierFor(s.cfg.Tiers, price)
	magnitude := tier.Min + s.rng.Float64()*(tier.Max-tier.Min)

	return Step(price, dir, magnitude, s.cfg.CrashPriceThreshold)
}
