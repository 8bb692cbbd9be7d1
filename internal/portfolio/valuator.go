package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/storage"
)

// Valuator computes portfolio values from holdings joined against current
// token prices, and maintains the snapshot history.
type Valuator struct {
	holdings  storage.HoldingStore
	tokens    storage.TokenStore
	snapshots storage.PortfolioStore
	logger    zerolog.Logger
}

// New constructs a Valuator.
func New(holdings storage.HoldingStore, tokens storage.TokenStore, snapshots storage.PortfolioStore, logger zerolog.Logger) *Valuator {
	return &Valuator{
		holdings:  holdings,
		tokens:    tokens,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "portfolio_valuator").Logger(),
	}
}

// Value computes the user's current portfolio value. Pure read; nothing is
// persisted.
func (v *Valuator) Value(ctx context.Context, discordID string) (decimal.Decimal, error) {
	holdings, err := v.holdings.ListHoldings(ctx, discordID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list holdings: %w", err)
	}
	if len(holdings) == 0 {
		return decimal.Zero, nil
	}

	tokens, err := v.tokens.ListTokens(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list tokens: %w", err)
	}
	prices := make(map[uuid.UUID]decimal.Decimal, len(tokens))
	for _, token := range tokens {
		prices[token.ID] = token.PricePerUnit
	}

	return ValueOf(holdings, prices), nil
}

// ValueOf sums amount × current price over a set of holdings. Holdings whose
// token has been purged contribute nothing.
func ValueOf(holdings []storage.UserHolding, prices map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, holding := range holdings {
		price, ok := prices[holding.TokenID]
		if !ok {
			continue
		}
		total = total.Add(holding.Amount.Mul(price))
	}
	return total
}

// SnapshotUser computes and appends one portfolio snapshot.
func (v *Valuator) SnapshotUser(ctx context.Context, discordID string) (storage.PortfolioSnapshot, error) {
	value, err := v.Value(ctx, discordID)
	if err != nil {
		return storage.PortfolioSnapshot{}, err
	}

	snapshot := storage.PortfolioSnapshot{
		ID:         uuid.New(),
		DiscordID:  discordID,
		TotalValue: value,
		RecordedAt: time.Now().UTC(),
	}
	if err := v.snapshots.AppendSnapshot(ctx, snapshot); err != nil {
		return storage.PortfolioSnapshot{}, err
	}
	return snapshot, nil
}

// SnapshotAll snapshots every user with a positive holding. A failure on one
// user is logged and counted without stopping the rest.
func (v *Valuator) SnapshotAll(ctx context.Context) (snapshotted, failed int, err error) {
	holders, err := v.holdings.ListHolders(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list holders: %w", err)
	}

	for _, discordID := range holders {
		if _, err := v.SnapshotUser(ctx, discordID); err != nil {
			failed++
			v.logger.Error().Err(err).Str("discord_id", discordID).Msg("portfolio snapshot failed")
			continue
		}
		snapshotted++
	}

	v.logger.Debug().Int("snapshotted", snapshotted).Int("failed", failed).Msg("portfolio snapshots complete")
	return snapshotted, failed, nil
}

// Cleanup prunes snapshots older than the retention window.
func (v *Valuator) Cleanup(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep <= 0 {
		return 0, fmt.Errorf("daysToKeep must be positive")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysToKeep)
	removed, err := v.snapshots.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	if removed > 0 {
		v.logger.Info().Int64("removed", removed).Msg("pruned portfolio snapshots")
	}
	return removed, nil
}
