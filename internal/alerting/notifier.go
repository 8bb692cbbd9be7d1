package alerting

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/storage"
)

// Notifier delivers crash and alert messages. Delivery is best-effort:
// callers log failures and never propagate them as fatal.
type Notifier interface {
	NotifyCrash(ctx context.Context, token storage.Token) error
	NotifyAlert(ctx context.Context, discordID string, token storage.Token, alert storage.Alert, price decimal.Decimal) error
}

// LogNotifier writes notifications to the log only. Used when Discord
// delivery is disabled.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a log-only notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// NotifyCrash logs the crash announcement.
func (n *LogNotifier) NotifyCrash(ctx context.Context, token storage.Token) error {
	n.logger.Warn().
		Str("symbol", token.Symbol).
		Str("name", token.Name).
		Str("last_price", token.PricePerUnit.String()).
		Str("total_supply", token.TotalSupply.String()).
		Msg("token crashed")
	return nil
}

// NotifyAlert logs the triggered alert.
func (n *LogNotifier) NotifyAlert(ctx context.Context, discordID string, token storage.Token, alert storage.Alert, price decimal.Decimal) error {
	n.logger.Info().
		Str("discord_id", discordID).
		Str("symbol", token.Symbol).
		Str("direction", string(alert.Direction)).
		Str("target_price", alert.TargetPrice.String()).
		Str("price", price.String()).
		Msg("price alert triggered")
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
