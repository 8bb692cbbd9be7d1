package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"memeconomy/internal/config"
	"memeconomy/internal/storage"
)

// Retention owns the four price-history tables: rollup jobs copy current
// prices into the coarser tables on their own schedules, and prune jobs apply
// a keep-most-recent-N policy per table. The pruning itself is a data-layer
// operation; this component only invokes it on schedule.
type Retention struct {
	tokens  storage.TokenStore
	history storage.HistoryStore
	cfg     config.HistoryConfig
	logger  zerolog.Logger
}

// New constructs a Retention.
func New(tokens storage.TokenStore, history storage.HistoryStore, cfg config.HistoryConfig, logger zerolog.Logger) *Retention {
	return &Retention{
		tokens:  tokens,
		history: history,
		cfg:     cfg,
		logger:  logger.With().Str("component", "history_retention").Logger(),
	}
}

// Rollup appends the current price of every live token to the granularity
// table. Failures are isolated per token.
func (r *Retention) Rollup(ctx context.Context, g storage.Granularity) error {
	tokens, err := r.tokens.ListTokens(ctx)
	if err != nil {
		return fmt.Errorf("list tokens for %s rollup: %w", g, err)
	}

	now := time.Now().UTC()
	recorded := 0
	for _, token := range tokens {
		if token.Crashed() {
			continue
		}
		point := storage.PriceHistoryPoint{TokenID: token.ID, Price: token.PricePerUnit, RecordedAt: now}
		if err := r.history.AppendPricePoint(ctx, g, point); err != nil {
			r.logger.Error().Err(err).Str("symbol", token.Symbol).Str("granularity", string(g)).Msg("rollup append failed")
			continue
		}
		recorded++
	}

	r.logger.Debug().Str("granularity", string(g)).Int("recorded", recorded).Msg("history rollup complete")
	return nil
}

// Prune trims the granularity table down to its configured keep count and
// returns the number of rows removed.
func (r *Retention) Prune(ctx context.Context, g storage.Granularity) (int64, error) {
	gCfg, ok := r.cfg.Granularity(string(g))
	if !ok {
		return 0, fmt.Errorf("no retention configured for granularity %q", g)
	}

	removed, err := r.history.PruneHistory(ctx, g, gCfg.Keep)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		r.logger.Info().Str("granularity", string(g)).Int64("removed", removed).Msg("pruned price history")
	}
	return removed, nil
}
