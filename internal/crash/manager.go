package crash

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"memeconomy/internal/alerting"
	"memeconomy/internal/storage"
)

// Manager owns the crash lifecycle: the price-to-zero transition, the crash
// announcement, and the eventual deletion of stale crashed tokens. No other
// component deletes token rows.
type Manager struct {
	tokens    storage.TokenStore
	notifier  alerting.Notifier
	retention time.Duration
	logger    zerolog.Logger
}

// NewManager constructs a Manager. retention is how long a crashed token row
// survives before PurgeStale removes it.
func NewManager(tokens storage.TokenStore, notifier alerting.Notifier, retention time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		tokens:    tokens,
		notifier:  notifier,
		retention: retention,
		logger:    logger.With().Str("component", "crash_manager").Logger(),
	}
}

// Crash transitions a token to the crashed state. The store-side guard makes
// the transition exactly-once: repeated sub-threshold reads within a tick, or
// an overlapping tick, observe a lost race and do nothing. The announcement is
// dispatched asynchronously; the zeroed price is the source of truth and a
// delivery failure is only logged.
func (m *Manager) Crash(ctx context.Context, token storage.Token) error {
	transitioned, err := m.tokens.MarkCrashed(ctx, token.ID)
	if err != nil {
		return fmt.Errorf("crash %s: %w", token.Symbol, err)
	}
	if !transitioned {
		m.logger.Debug().Str("symbol", token.Symbol).Msg("token already crashed")
		return nil
	}

	m.logger.Warn().
		Str("symbol", token.Symbol).
		Str("last_price", token.PricePerUnit.String()).
		Msg("token crashed")

	go func(token storage.Token) {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := m.notifier.NotifyCrash(notifyCtx, token); err != nil {
			m.logger.Error().Err(err).Str("symbol", token.Symbol).Msg("crash notification failed")
		}
	}(token)

	return nil
}

// PurgeStale deletes every token whose crash is older than the retention
// window and returns the count removed.
func (m *Manager) PurgeStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-m.retention)
	removed, err := m.tokens.DeleteCrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge stale crashed tokens: %w", err)
	}
	if removed > 0 {
		m.logger.Info().Int64("removed", removed).Msg("purged stale crashed tokens")
	}
	return removed, nil
}
